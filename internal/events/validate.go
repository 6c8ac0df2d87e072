package events

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/JaimeStill/harmony/pkg/formatting"
)

var (
	suggestionFields = fields{
		required: []string{"event_window", "participants", "source_text", "confidence", "follow_up_actions", "context"},
		optional: []string{"event_title", "location", "notes"},
	}
	windowFields = fields{
		required: []string{"start"},
		optional: []string{"end"},
	}
	endpointFields = fields{
		required: []string{"certainty"},
		optional: []string{"date_iso", "time_iso", "time_text", "datetime_text", "timezone"},
	}
	followUpFields = fields{required: []string{"action", "reason"}}
	contextFields  = fields{required: []string{"today", "assumed_timezone"}}
)

// collectiveNouns are group words that never name a participant.
var collectiveNouns = []string{
	"all", "everyone", "everybody", "friends", "family", "team", "group",
	"guys", "folks", "people", "crew", "gang", "squad", "colleagues",
	"coworkers", "co-workers", "classmates", "others", "y'all", "you all",
}

var collectivePrefixes = []string{"the ", "my ", "our ", "your ", "all the ", "all my "}

// Decode parses a model reply and validates it into a Suggestion. Replies
// wrapped in a markdown code fence are accepted. Failures are *SchemaError
// values carrying raw.
func Decode(raw string) (*Suggestion, error) {
	doc, err := formatting.Parse[any](raw)
	if err != nil {
		return nil, &SchemaError{Err: ErrNotJSON, Reason: parseReason(err), Raw: raw}
	}

	s, err := Validate(doc)
	if err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			se.Raw = raw
		}
		return nil, err
	}
	return s, nil
}

// Validate checks a generic JSON document against the event schema and
// builds the typed Suggestion. Values are never coerced between types.
func Validate(doc any) (*Suggestion, error) {
	root, err := object(doc, "$")
	if err != nil {
		return nil, err
	}
	if err := suggestionFields.check("", root); err != nil {
		return nil, err
	}

	var s Suggestion

	if s.EventTitle, err = optionalString(root, "", "event_title"); err != nil {
		return nil, err
	}
	if s.Location, err = optionalString(root, "", "location"); err != nil {
		return nil, err
	}
	if s.Notes, err = optionalString(root, "", "notes"); err != nil {
		return nil, err
	}
	if s.SourceText, err = requiredString(root, "", "source_text"); err != nil {
		return nil, err
	}
	if s.EventWindow, err = decodeWindow(root["event_window"], "event_window"); err != nil {
		return nil, err
	}
	if s.Participants, err = decodeParticipants(root["participants"], "participants"); err != nil {
		return nil, err
	}
	if s.Confidence, err = decodeConfidence(root["confidence"], "confidence"); err != nil {
		return nil, err
	}
	if s.FollowUpActions, err = decodeFollowUps(root["follow_up_actions"], "follow_up_actions"); err != nil {
		return nil, err
	}
	if s.Context, err = decodeContext(root["context"], "context"); err != nil {
		return nil, err
	}

	return &s, nil
}

func decodeWindow(v any, path string) (Window, error) {
	var w Window

	obj, err := object(v, path)
	if err != nil {
		return w, err
	}
	if err := windowFields.check(path, obj); err != nil {
		return w, err
	}

	if w.Start, err = decodeEndpoint(obj["start"], join(path, "start")); err != nil {
		return w, err
	}
	if end, ok := obj["end"]; ok && end != nil {
		e, err := decodeEndpoint(end, join(path, "end"))
		if err != nil {
			return w, err
		}
		w.End = &e
	}
	return w, nil
}

func decodeEndpoint(v any, path string) (Endpoint, error) {
	var e Endpoint

	obj, err := object(v, path)
	if err != nil {
		return e, err
	}
	if err := endpointFields.check(path, obj); err != nil {
		return e, err
	}

	if e.DateISO, err = optionalString(obj, path, "date_iso"); err != nil {
		return e, err
	}
	if e.TimeISO, err = optionalString(obj, path, "time_iso"); err != nil {
		return e, err
	}
	if e.TimeText, err = optionalString(obj, path, "time_text"); err != nil {
		return e, err
	}
	if e.DatetimeText, err = optionalString(obj, path, "datetime_text"); err != nil {
		return e, err
	}
	if e.Timezone, err = optionalString(obj, path, "timezone"); err != nil {
		return e, err
	}

	certainty, err := requiredString(obj, path, "certainty")
	if err != nil {
		return e, err
	}
	e.Certainty = Certainty(certainty)
	if !e.Certainty.Valid() {
		return e, violation(join(path, "certainty"), "must be low, medium or high, got %q", certainty)
	}

	if e.DateISO != nil {
		if _, err := time.Parse(time.DateOnly, *e.DateISO); err != nil {
			return e, violation(join(path, "date_iso"), "must be YYYY-MM-DD, got %q", *e.DateISO)
		}
	}
	if e.TimeISO != nil && !validClock(*e.TimeISO) {
		return e, violation(join(path, "time_iso"), "must be HH:MM or HH:MM:SS, got %q", *e.TimeISO)
	}
	if e.Timezone != nil && strings.TrimSpace(*e.Timezone) == "" {
		return e, violation(join(path, "timezone"), "must be null or non-empty")
	}

	if e.TimeISO != nil && e.Certainty != CertaintyHigh {
		return e, violation(join(path, "certainty"), "must be high when time_iso is set")
	}
	if e.DateISO == nil && e.TimeISO == nil && e.Certainty == CertaintyHigh {
		return e, violation(join(path, "certainty"), "must be low or medium when neither date_iso nor time_iso is set")
	}

	return e, nil
}

func decodeParticipants(v any, path string) ([]string, error) {
	items, err := array(v, path)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		p := index(path, i)
		name, ok := item.(string)
		if !ok {
			return nil, violation(p, "expected string, got %s", kind(item))
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, violation(p, "must not be empty")
		}
		if isCollective(name) {
			return nil, violation(p, "%q is a group, not a participant", name)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, violation(p, "duplicate participant %q", name)
		}
		seen[key] = true
		out = append(out, name)
	}
	return out, nil
}

func decodeConfidence(v any, path string) (float64, error) {
	n, ok := v.(float64)
	if !ok {
		return 0, violation(path, "expected number, got %s", kind(v))
	}
	if math.IsNaN(n) || n < 0 || n > 1 {
		return 0, violation(path, "must be within [0, 1], got %v", n)
	}
	return n, nil
}

func decodeFollowUps(v any, path string) ([]FollowUp, error) {
	items, err := array(v, path)
	if err != nil {
		return nil, err
	}

	out := make([]FollowUp, 0, len(items))
	for i, item := range items {
		p := index(path, i)
		obj, err := object(item, p)
		if err != nil {
			return nil, err
		}
		if err := followUpFields.check(p, obj); err != nil {
			return nil, err
		}

		var f FollowUp
		if f.Action, err = requiredString(obj, p, "action"); err != nil {
			return nil, err
		}
		if strings.TrimSpace(f.Action) == "" {
			return nil, violation(join(p, "action"), "must not be empty")
		}
		if f.Reason, err = requiredString(obj, p, "reason"); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func decodeContext(v any, path string) (Context, error) {
	var c Context

	obj, err := object(v, path)
	if err != nil {
		return c, err
	}
	if err := contextFields.check(path, obj); err != nil {
		return c, err
	}

	if c.Today, err = requiredString(obj, path, "today"); err != nil {
		return c, err
	}
	if _, err := time.Parse(time.DateOnly, c.Today); err != nil {
		return c, violation(join(path, "today"), "must be YYYY-MM-DD, got %q", c.Today)
	}
	if c.AssumedTimezone, err = requiredString(obj, path, "assumed_timezone"); err != nil {
		return c, err
	}
	if strings.TrimSpace(c.AssumedTimezone) == "" {
		return c, violation(join(path, "assumed_timezone"), "must not be empty")
	}
	return c, nil
}

type fields struct {
	required []string
	optional []string
}

// check rejects unknown keys and reports the first missing required key in
// declaration order.
func (f fields) check(path string, obj map[string]any) error {
	for _, key := range f.required {
		if _, ok := obj[key]; !ok {
			return violation(join(path, key), "required field missing")
		}
	}

	var unknown []string
	for key := range obj {
		if !slices.Contains(f.required, key) && !slices.Contains(f.optional, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return violation(join(path, unknown[0]), "unexpected field")
	}
	return nil
}

func object(v any, path string) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, violation(path, "expected object, got %s", kind(v))
	}
	return obj, nil
}

func array(v any, path string) ([]any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, violation(path, "expected array, got %s", kind(v))
	}
	return items, nil
}

func requiredString(obj map[string]any, path, key string) (string, error) {
	s, ok := obj[key].(string)
	if !ok {
		return "", violation(join(path, key), "expected string, got %s", kind(obj[key]))
	}
	return s, nil
}

func optionalString(obj map[string]any, path, key string) (*string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, violation(join(path, key), "expected string or null, got %s", kind(v))
	}
	return &s, nil
}

func validClock(s string) bool {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func isCollective(name string) bool {
	n := strings.ToLower(name)
	for _, prefix := range collectivePrefixes {
		n = strings.TrimPrefix(n, prefix)
	}
	return slices.Contains(collectiveNouns, n)
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

func parseReason(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
