// Package calendar renders event suggestions as iCalendar documents so a
// client can import them as tentative events.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/JaimeStill/harmony/internal/events"
)

const productID = "-//Harmony//Event Suggestion//EN"

// ErrUnschedulable is returned when a suggestion has no event or no start
// date to place on a calendar.
var ErrUnschedulable = errors.New("suggestion cannot be scheduled")

const defaultDuration = time.Hour

// Render builds a VCALENDAR with one tentative VEVENT. Times without an
// explicit endpoint timezone are interpreted in loc. Events without a start
// time become all-day events.
func Render(s *events.Suggestion, loc *time.Location, now time.Time) (string, error) {
	if !s.HasEvent() {
		return "", fmt.Errorf("%w: no event identified", ErrUnschedulable)
	}
	if s.EventWindow.Start.DateISO == nil {
		return "", fmt.Errorf("%w: start date unknown", ErrUnschedulable)
	}
	if loc == nil {
		loc = time.UTC
	}

	start, timed, err := resolve(s.EventWindow.Start, loc)
	if err != nil {
		return "", err
	}

	end, err := endOf(s.EventWindow.End, start, timed, loc)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	event := cal.AddEvent(uuid.NewString() + "@harmony")
	event.SetDtStampTime(now)
	event.SetCreatedTime(now)
	event.SetStatus(ics.ObjectStatusTentative)
	event.SetSummary(*s.EventTitle)

	if timed {
		event.SetStartAt(start)
		event.SetEndAt(end)
	} else {
		event.SetAllDayStartAt(start)
		event.SetAllDayEndAt(end)
	}

	if s.Location != nil && *s.Location != "" {
		event.SetLocation(*s.Location)
	}
	if desc := describe(s); desc != "" {
		event.SetDescription(desc)
	}

	return cal.Serialize(), nil
}

func resolve(e events.Endpoint, loc *time.Location) (time.Time, bool, error) {
	if e.Timezone != nil && *e.Timezone != "" {
		if tz, err := time.LoadLocation(*e.Timezone); err == nil {
			loc = tz
		}
	}

	day, err := time.ParseInLocation(time.DateOnly, *e.DateISO, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: invalid date %q", ErrUnschedulable, *e.DateISO)
	}

	if e.TimeISO == nil {
		return day, false, nil
	}

	clock, err := parseClock(*e.TimeISO)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: invalid time %q", ErrUnschedulable, *e.TimeISO)
	}

	return time.Date(
		day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, loc,
	), true, nil
}

func endOf(e *events.Endpoint, start time.Time, timed bool, loc *time.Location) (time.Time, error) {
	fallback := start.AddDate(0, 0, 1)
	if timed {
		fallback = start.Add(defaultDuration)
	}

	if e == nil {
		return fallback, nil
	}

	if e.DateISO == nil {
		if e.TimeISO == nil || !timed {
			return fallback, nil
		}
		date := start.In(loc).Format(time.DateOnly)
		e = &events.Endpoint{DateISO: &date, TimeISO: e.TimeISO, Timezone: e.Timezone}
	}

	end, endTimed, err := resolve(*e, loc)
	if err != nil {
		return time.Time{}, err
	}

	if !timed {
		end = end.AddDate(0, 0, 1)
	} else if !endTimed {
		return fallback, nil
	}

	if !end.After(start) {
		return fallback, nil
	}
	return end, nil
}

func parseClock(s string) (time.Time, error) {
	for _, layout := range []string{"15:04", time.TimeOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized clock %q", s)
}

func describe(s *events.Suggestion) string {
	var parts []string

	if s.Notes != nil && *s.Notes != "" {
		parts = append(parts, *s.Notes)
	}
	if len(s.Participants) > 0 {
		parts = append(parts, "Participants: "+strings.Join(s.Participants, ", "))
	}
	if phrase := s.EventWindow.Start.DatetimeText; phrase != nil && *phrase != "" {
		parts = append(parts, "Original wording: "+*phrase)
	}
	if len(s.FollowUpActions) > 0 {
		lines := []string{"Follow-up:"}
		for _, f := range s.FollowUpActions {
			lines = append(lines, fmt.Sprintf("- %s (%s)", f.Action, f.Reason))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	parts = append(parts, fmt.Sprintf("Confidence: %.2f", s.Confidence))

	return strings.Join(parts, "\n\n")
}
