package codetime

import "context"

// HoursPerDay is the length of the distribution.
const HoursPerDay = 24

// TimeDistribution sums each hour-of-day bucket across all stored days.
func (s *Service) TimeDistribution(ctx context.Context) ([HoursPerDay]int, error) {
	var dist [HoursPerDay]int
	entries, err := s.rangeEntries(ctx, "", "")
	if err != nil {
		return dist, err
	}
	for _, e := range entries {
		for h, minutes := range e.Hourly {
			if h >= 0 && h < HoursPerDay {
				dist[h] += minutes
			}
		}
	}
	return dist, nil
}
