/*
Package storage provides data models for the fork event store.

These models mirror the two tables of the store: annotated candidate forks
(codes) and raw interaction events (commands).
*/
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Retrospective answers recorded by participants.
const (
	RetrospectiveYes = "y"
	RetrospectiveNo  = "n"
)

// AnnotatedEvent is one row of the codes table: a moment flagged as a
// possible fork by the coders, the participant, or both.
type AnnotatedEvent struct {
	// Participant identifies the study participant.
	Participant string `json:"participant"`

	// VideoTime is the raw timestamp as stored. Window queries use it
	// verbatim so SQLite parses it the same way on both sides.
	VideoTime string `json:"videotime"`

	// Timestamp is VideoTime as SQLite reads it, in UTC.
	Timestamp time.Time `json:"timestamp"`

	// Retrospective is the participant's post-hoc answer: "y", "n" or empty.
	Retrospective string `json:"retrospective"`

	// Forks is the number of forks the coders detected at this moment.
	Forks int `json:"forks"`
}

// String identifies the row in logs and errors.
func (e AnnotatedEvent) String() string {
	return fmt.Sprintf("participant=%s videotime=%s retrospective=%q forks=%d",
		e.Participant, e.VideoTime, e.Retrospective, e.Forks)
}

// InteractionEvent is one row of the commands table.
type InteractionEvent struct {
	Participant    string    `json:"participant"`
	VideoTime      string    `json:"videotime"`
	Timestamp      time.Time `json:"timestamp"`
	Command        string    `json:"command"`
	EclipseCommand string    `json:"eclipsecommand,omitempty"`
}

// Field selects which commands column an event name is matched against.
type Field int

const (
	// FieldCommand matches the recorder's command name (e.g. FileOpenCommand).
	FieldCommand Field = iota
	// FieldEclipseCommand matches the IDE command identifier.
	FieldEclipseCommand
)

// Column returns the commands column for f.
func (f Field) Column() string {
	if f == FieldEclipseCommand {
		return "eclipsecommand"
	}
	return "command"
}

func (f Field) String() string {
	return f.Column()
}

// ParseField maps a column name to a Field.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "command", "":
		return FieldCommand, nil
	case "eclipsecommand", "eclipse":
		return FieldEclipseCommand, nil
	default:
		return FieldCommand, fmt.Errorf("unknown event field %q", s)
	}
}

// WindowQuery selects interaction events of one name, for the anchor's
// participant, whose offset in seconds from Anchor is within [Start, End].
type WindowQuery struct {
	Participant string
	Anchor      string
	Field       Field
	Name        string
	Start       int
	End         int
}

// FollowUpQuery selects Target command events of Participant that happen
// strictly after Trigger and strictly less than Bound seconds after Anchor.
type FollowUpQuery struct {
	Participant string
	Anchor      string
	Trigger     string
	Target      string
	Bound       int
}

// EventName is a distinct event name found in the commands table.
type EventName struct {
	Field Field  `json:"field"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}
