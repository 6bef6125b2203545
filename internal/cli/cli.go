package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Ingest   *IngestCommand
	Log      *LogCommand
	Status   *StatusCommand
	Top      *TopCommand
	Calendar *CalendarCommand
	Days     *DaysCommand
	Hours    *HoursCommand
	Minutes  *MinutesCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "codetime"
	parser.LongDescription = "Local coding-time tracker: collects editor heartbeats and reports daily statistics."

	cmds := &commands{
		Ingest:   &IngestCommand{globals: &globals, version: version},
		Log:      &LogCommand{globals: &globals, version: version},
		Status:   &StatusCommand{globals: &globals, version: version},
		Top:      &TopCommand{globals: &globals, version: version},
		Calendar: &CalendarCommand{globals: &globals, version: version},
		Days:     &DaysCommand{globals: &globals, version: version},
		Hours:    &HoursCommand{globals: &globals, version: version},
		Minutes:  &MinutesCommand{globals: &globals, version: version},
	}

	parser.AddCommand("ingest", "Start the codetime daemon", "Start the codetime daemon (local HTTP service receiving editor heartbeats).", cmds.Ingest)
	parser.AddCommand("log", "Record one heartbeat", "Record one heartbeat for the current minute directly in the store.", cmds.Log)
	parser.AddCommand("status", "Show coding statistics", "Show today, best day, total, average and streaks, plus store details.", cmds.Status)
	parser.AddCommand("top", "Rank projects or languages", "Rank projects (or languages) by minutes over a trailing window.", cmds.Top)
	parser.AddCommand("calendar", "Print a year of activity", "Print the activity calendar of a year with heat levels.", cmds.Calendar)
	parser.AddCommand("days", "List recent days", "List the daily entries of the last days, or per-day durations with --each.", cmds.Days)
	parser.AddCommand("hours", "Show the hour-of-day distribution", "Show all-time minutes per hour of day.", cmds.Hours)
	parser.AddCommand("minutes", "Minutes coded recently", "Total minutes recorded since the given number of minutes ago.", cmds.Minutes)

	return parser, &globals, cmds
}

// Run is the main entry point for the codetime CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// go-flags requires a subcommand, but --version is valid without one.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("codetime %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
