package events

import "github.com/JaimeStill/harmony/pkg/openapi"

// Schemas returns the OpenAPI component schemas describing Suggestion.
func Schemas() map[string]*openapi.Schema {
	str := func(desc string) *openapi.Schema {
		return openapi.Nullable(&openapi.Schema{Type: "string", Description: desc})
	}

	return map[string]*openapi.Schema{
		"EventWindowEndpoint": {
			Type:     "object",
			Required: []string{"certainty"},
			Properties: map[string]*openapi.Schema{
				"date_iso":      str("Calendar date, YYYY-MM-DD"),
				"time_iso":      str("Clock time, HH:MM; requires high certainty"),
				"time_text":     str("Time phrase as written"),
				"datetime_text": str("Fuzzy date/time phrase as written"),
				"timezone":      str("IANA timezone when known"),
				"certainty": {
					Type: "string",
					Enum: []any{"low", "medium", "high"},
				},
			},
		},
		"EventWindow": {
			Type:     "object",
			Required: []string{"start"},
			Properties: map[string]*openapi.Schema{
				"start": openapi.SchemaRef("EventWindowEndpoint"),
				"end":   openapi.Nullable(openapi.SchemaRef("EventWindowEndpoint")),
			},
		},
		"FollowUpAction": {
			Type:     "object",
			Required: []string{"action", "reason"},
			Properties: map[string]*openapi.Schema{
				"action": {Type: "string"},
				"reason": {Type: "string"},
			},
		},
		"EventSuggestion": {
			Type:     "object",
			Required: []string{"event_window", "participants", "source_text", "confidence", "follow_up_actions", "context"},
			Properties: map[string]*openapi.Schema{
				"event_title":  str("Short title; null when no event was found"),
				"event_window": openapi.SchemaRef("EventWindow"),
				"location":     str("Venue or address"),
				"participants": {
					Type:        "array",
					Description: "Named people, never groups",
					Items:       &openapi.Schema{Type: "string"},
				},
				"source_text": {Type: "string"},
				"notes":       str("Extra details"),
				"confidence": {
					Type:    "number",
					Minimum: ptr(0.0),
					Maximum: ptr(1.0),
				},
				"follow_up_actions": {
					Type:  "array",
					Items: openapi.SchemaRef("FollowUpAction"),
				},
				"context": {
					Type:     "object",
					Required: []string{"today", "assumed_timezone"},
					Properties: map[string]*openapi.Schema{
						"today":            {Type: "string", Format: "date"},
						"assumed_timezone": {Type: "string"},
					},
				},
			},
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
