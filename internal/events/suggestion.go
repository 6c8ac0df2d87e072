// Package events defines the EventSuggestion record produced by the intake
// pipeline and the strict validation that turns model output into it.
package events

// Certainty grades how firmly an endpoint is known.
type Certainty string

const (
	CertaintyLow    Certainty = "low"
	CertaintyMedium Certainty = "medium"
	CertaintyHigh   Certainty = "high"
)

// Valid reports whether c is one of the defined grades.
func (c Certainty) Valid() bool {
	switch c {
	case CertaintyLow, CertaintyMedium, CertaintyHigh:
		return true
	}
	return false
}

// Endpoint is one end of an event window. A set TimeISO implies high
// certainty; when only vague phrasing is known both DateISO and TimeISO are
// nil and certainty is low or medium.
type Endpoint struct {
	DateISO      *string   `json:"date_iso"`
	TimeISO      *string   `json:"time_iso"`
	TimeText     *string   `json:"time_text"`
	DatetimeText *string   `json:"datetime_text"`
	Timezone     *string   `json:"timezone"`
	Certainty    Certainty `json:"certainty"`
}

// Window spans an event. End is nil when the source gives no end.
type Window struct {
	Start Endpoint  `json:"start"`
	End   *Endpoint `json:"end"`
}

// FollowUp is an action the user should take before committing the event.
type FollowUp struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// Context echoes the run context the model assumed.
type Context struct {
	Today           string `json:"today"`
	AssumedTimezone string `json:"assumed_timezone"`
}

// Suggestion is a tentative calendar event extracted from one source text.
// Values are only produced by Decode or Validate and are not mutated
// afterwards.
type Suggestion struct {
	EventTitle      *string    `json:"event_title"`
	EventWindow     Window     `json:"event_window"`
	Location        *string    `json:"location"`
	Participants    []string   `json:"participants"`
	SourceText      string     `json:"source_text"`
	Notes           *string    `json:"notes"`
	Confidence      float64    `json:"confidence"`
	FollowUpActions []FollowUp `json:"follow_up_actions"`
	Context         Context    `json:"context"`
}

// HasEvent reports whether the model identified an event at all.
func (s *Suggestion) HasEvent() bool {
	return s.EventTitle != nil && *s.EventTitle != ""
}
