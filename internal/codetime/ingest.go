package codetime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/runnerr0/codetime/internal/logging"
	"github.com/runnerr0/codetime/internal/metrics"
	"github.com/runnerr0/codetime/internal/storage"
)

// Heartbeat is one "still coding" signal from an editor. Any timestamp the
// editor sends is ignored; the server clock decides the minute.
type Heartbeat struct {
	Project      string `json:"project" validate:"required,known"`
	RelativeFile string `json:"relativeFile" validate:"required,known"`
	Language     string `json:"language" validate:"required,known"`
}

func (h Heartbeat) normalize() Heartbeat {
	return Heartbeat{
		Project:      strings.TrimSpace(h.Project),
		RelativeFile: strings.TrimSpace(h.RelativeFile),
		Language:     strings.TrimSpace(h.Language),
	}
}

// Outcome says what an accepted heartbeat did to its day.
type Outcome string

const (
	OutcomeCreated     Outcome = "created"
	OutcomeIncremented Outcome = "incremented"
	OutcomeDuplicate   Outcome = "duplicate"
)

// Ack describes an accepted heartbeat.
type Ack struct {
	Day          string
	Timestamp    int64
	Outcome      Outcome
	TotalMinutes int
}

// minuteMillis floors t to the start of its minute, in epoch milliseconds.
func minuteMillis(t time.Time) int64 {
	const minute = int64(time.Minute / time.Millisecond)
	ms := t.UnixMilli()
	return ms - ((ms%minute)+minute)%minute
}

// Record validates hb and counts it as one minute of activity on the current
// day. A second heartbeat within the same minute is acknowledged as a
// duplicate and leaves the day untouched.
func (s *Service) Record(ctx context.Context, hb Heartbeat) (Ack, error) {
	hb = hb.normalize()
	if err := s.validateHeartbeat(hb); err != nil {
		metrics.RecordHeartbeat(metrics.ResultRejected)
		logging.Ctx(ctx).Warn().Err(err).Msg("heartbeat rejected")
		return Ack{}, err
	}

	ts := minuteMillis(s.clock.Now())
	at := time.UnixMilli(ts).In(s.loc)
	ack := Ack{Day: at.Format(storage.DayLayout), Timestamp: ts}
	hour := at.Hour()

	start := s.clock.Now()
	err := s.store.Mutate(ctx, ack.Day, func(e *storage.DailyEntry, found bool) (bool, error) {
		if found && e.LastTimestamp == ts {
			ack.Outcome = OutcomeDuplicate
			ack.TotalMinutes = e.TotalMinutes
			return false, nil
		}
		ack.Outcome = OutcomeIncremented
		if !found {
			ack.Outcome = OutcomeCreated
		}
		e.Projects.Inc(hb.Project)
		e.Languages.Inc(hb.Language)
		e.RelativeFiles.Inc(hb.RelativeFile)
		e.Hourly[hour]++
		e.TotalMinutes++
		e.LastTimestamp = ts
		ack.TotalMinutes = e.TotalMinutes
		return true, nil
	})
	metrics.RecordStoreOp("mutate", s.clock.Since(start), err)
	if err != nil {
		metrics.RecordHeartbeat(metrics.ResultError)
		logging.Ctx(ctx).Error().Err(err).Str("day", ack.Day).Msg("heartbeat not stored")
		return Ack{}, storeErr("record heartbeat", err)
	}

	metrics.RecordHeartbeat(string(ack.Outcome))
	logging.Ctx(ctx).Debug().
		Str("day", ack.Day).
		Str("project", hb.Project).
		Str("language", hb.Language).
		Str("outcome", string(ack.Outcome)).
		Int("total_minutes", ack.TotalMinutes).
		Msg("heartbeat recorded")
	return ack, nil
}

func (s *Service) validateHeartbeat(hb Heartbeat) error {
	err := s.validate.Struct(hb)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return invalidf("heartbeat: %v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "known":
			msgs = append(msgs, fmt.Sprintf("%s %q is not a usable value", fe.Field(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return invalidf("heartbeat: %s", strings.Join(msgs, "; "))
}
