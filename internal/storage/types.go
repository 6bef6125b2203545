package storage

import (
	"bytes"

	"github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DayLayout is the canonical day key format.
const DayLayout = "2006-01-02"

// DailyEntry is the aggregate of all accepted heartbeats for one calendar day.
type DailyEntry struct {
	Date          string      `json:"date"`
	Projects      Counter     `json:"projects"`
	Languages     Counter     `json:"languages"`
	RelativeFiles Counter     `json:"relative_files"`
	Hourly        map[int]int `json:"hourly"`
	TotalMinutes  int         `json:"total_minutes"`
	LastTimestamp int64       `json:"last_timestamp"`
}

// NewDailyEntry returns an empty entry for day with all dimensions allocated.
func NewDailyEntry(day string) *DailyEntry {
	return &DailyEntry{
		Date:          day,
		Projects:      NewCounter(),
		Languages:     NewCounter(),
		RelativeFiles: NewCounter(),
		Hourly:        make(map[int]int),
	}
}

// HourlySum returns the sum of all hour buckets.
func (e *DailyEntry) HourlySum() int {
	total := 0
	for _, n := range e.Hourly {
		total += n
	}
	return total
}

// Counter maps a dimension value (project, language, file) to minutes and
// iterates in first-insertion order. Copies share the underlying map.
type Counter struct {
	m *orderedmap.OrderedMap[string, int]
}

// NewCounter returns an empty Counter.
func NewCounter() Counter {
	return Counter{m: orderedmap.New[string, int]()}
}

// Add adds n minutes to key, creating it at the end of the order if absent.
func (c *Counter) Add(key string, n int) {
	if c.m == nil {
		c.m = orderedmap.New[string, int]()
	}
	cur, _ := c.m.Get(key)
	c.m.Set(key, cur+n)
}

// Inc adds one minute to key.
func (c *Counter) Inc(key string) {
	c.Add(key, 1)
}

// Get returns the minutes recorded for key, or 0.
func (c Counter) Get(key string) int {
	if c.m == nil {
		return 0
	}
	v, _ := c.m.Get(key)
	return v
}

// Len returns the number of distinct keys.
func (c Counter) Len() int {
	if c.m == nil {
		return 0
	}
	return c.m.Len()
}

// Sum returns the total minutes across all keys.
func (c Counter) Sum() int {
	total := 0
	c.Each(func(_ string, minutes int) {
		total += minutes
	})
	return total
}

// Keys returns the keys in insertion order.
func (c Counter) Keys() []string {
	keys := make([]string, 0, c.Len())
	c.Each(func(key string, _ int) {
		keys = append(keys, key)
	})
	return keys
}

// Each calls fn for every key in insertion order.
func (c Counter) Each(fn func(key string, minutes int)) {
	if c.m == nil {
		return
	}
	for pair := c.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// MarshalJSON encodes the counter as a JSON object preserving key order.
func (c Counter) MarshalJSON() ([]byte, error) {
	if c.m == nil {
		return []byte("{}"), nil
	}
	return c.m.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping the document's key order.
func (c *Counter) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, int]()
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		c.m = m
		return nil
	}
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	c.m = m
	return nil
}

// encodeCounter renders a counter for a JSON text column.
func encodeCounter(c Counter) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeCounter parses a JSON text column into a counter.
func decodeCounter(s string) (Counter, error) {
	var c Counter
	if err := c.UnmarshalJSON([]byte(s)); err != nil {
		return Counter{}, err
	}
	return c, nil
}
