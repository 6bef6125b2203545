package config

// DefaultRejectedValues returns the dimension values editors send when they
// could not work out a project, file or language. Heartbeats carrying one of
// them are rejected instead of being counted under a placeholder key.
func DefaultRejectedValues() []string {
	return []string{
		// JavaScript plugin leftovers
		"undefined",
		"null",
		"NaN",

		// Explicit unknowns
		"unknown",
		"none",
		"n/a",
	}
}
