package codetime

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/go-playground/validator/v10"

	"github.com/runnerr0/codetime/internal/metrics"
	"github.com/runnerr0/codetime/internal/storage"
)

// DefaultRejectedValues are dimension values treated as missing.
var DefaultRejectedValues = []string{"undefined", "null", "unknown"}

// Service ingests heartbeats into a daily aggregate store and answers the
// read-side queries. All day keys, hours and windows are computed in one
// location.
type Service struct {
	store    storage.Store
	clock    quartz.Clock
	loc      *time.Location
	rejected map[string]struct{}
	validate *validator.Validate
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c quartz.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLocation sets the time zone used for day keys and hour buckets.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithRejectedValues replaces DefaultRejectedValues. Matching ignores case.
func WithRejectedValues(values []string) Option {
	return func(s *Service) {
		s.rejected = make(map[string]struct{}, len(values))
		for _, v := range values {
			s.rejected[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
		}
	}
}

// New returns a Service over store. Defaults: real clock, UTC and
// DefaultRejectedValues.
func New(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		clock: quartz.NewReal(),
		loc:   time.UTC,
	}
	WithRejectedValues(DefaultRejectedValues)(s)
	for _, opt := range opts {
		opt(s)
	}
	v, err := newValidator(s.isKnown)
	if err != nil {
		panic(fmt.Sprintf("codetime: %v", err))
	}
	s.validate = v
	return s
}

// Location reports the configured time zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.loc)
}

// dayKey formats t as a day key in the service location.
func (s *Service) dayKey(t time.Time) string {
	return t.In(s.loc).Format(storage.DayLayout)
}

// isKnown reports whether v is a usable dimension value.
func (s *Service) isKnown(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	_, rejected := s.rejected[strings.ToLower(v)]
	return !rejected
}

func newValidator(known func(string) bool) (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	err := v.RegisterValidation("known", func(fl validator.FieldLevel) bool {
		return known(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("register known validator: %w", err)
	}
	return v, nil
}

// rangeEntries loads days from..to through the store and records the call.
func (s *Service) rangeEntries(ctx context.Context, from, to string) ([]storage.DailyEntry, error) {
	start := s.clock.Now()
	entries, err := s.store.Range(ctx, from, to)
	metrics.RecordStoreOp("range", s.clock.Since(start), err)
	if err != nil {
		return nil, storeErr("range", err)
	}
	return entries, nil
}
