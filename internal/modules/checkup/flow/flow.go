// Package flow implements the checkup step machine:
// input → types → suitability → analyzing → preview → report.
package flow

import (
	"errors"
	"fmt"
)

// State is a step of the checkup flow
type State string

const (
	StateInput       State = "input"
	StateTypes       State = "types"
	StateSuitability State = "suitability"
	StateAnalyzing   State = "analyzing"
	StatePreview     State = "preview"
	StateReport      State = "report"
)

// Event triggers a transition
type Event string

const (
	EventHoldingsSubmitted Event = "holdings_submitted"
	EventHoldingsEdited    Event = "holdings_edited"
	EventTypesConfirmed    Event = "types_confirmed"
	EventProfileSubmitted  Event = "profile_submitted"
	EventAnalysisCompleted Event = "analysis_completed"
	EventAnalysisFailed    Event = "analysis_failed"
	EventReportUnlocked    Event = "report_unlocked"
)

// ErrInvalidTransition is returned for events not accepted in the current state
var ErrInvalidTransition = errors.New("invalid transition")

type edge struct {
	from  State
	event Event
}

var transitions = map[edge]State{
	{StateInput, EventHoldingsSubmitted}: StateTypes,

	{StateTypes, EventHoldingsSubmitted}: StateTypes,
	{StateTypes, EventHoldingsEdited}:    StateTypes,
	{StateTypes, EventTypesConfirmed}:    StateSuitability,

	{StateSuitability, EventProfileSubmitted}:  StateAnalyzing,
	{StateSuitability, EventHoldingsEdited}:    StateTypes,
	{StateSuitability, EventHoldingsSubmitted}: StateTypes,

	{StateAnalyzing, EventAnalysisCompleted}: StatePreview,
	{StateAnalyzing, EventAnalysisFailed}:    StateSuitability,

	// Re-analysis after a profile change or an explicit refresh
	{StatePreview, EventProfileSubmitted}:  StateAnalyzing,
	{StatePreview, EventHoldingsEdited}:    StateTypes,
	{StatePreview, EventHoldingsSubmitted}: StateTypes,
	{StatePreview, EventReportUnlocked}:    StateReport,

	{StateReport, EventReportUnlocked}: StateReport,
}

// Transition returns the state reached from s on e
func Transition(s State, e Event) (State, error) {
	next, ok := transitions[edge{s, e}]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
	}
	return next, nil
}

// Can reports whether e is accepted in s
func Can(s State, e Event) bool {
	_, ok := transitions[edge{s, e}]
	return ok
}

// Payload is the typed data carried by an event
type Payload interface {
	Event() Event
}

// HoldingsSubmitted is fired after a parse/OCR batch is attached
type HoldingsSubmitted struct {
	Count  int
	Errors int
}

// HoldingsEdited is fired after a type override or bulk re-typing
type HoldingsEdited struct {
	Count int
}

// TypesConfirmed is fired when the user accepts the classification
type TypesConfirmed struct {
	Confidence float64
}

// ProfileSubmitted is fired when the suitability profile is set
type ProfileSubmitted struct {
	Tolerance string
}

// AnalysisCompleted is fired after analytics and score are stored
type AnalysisCompleted struct {
	Score int
}

// AnalysisFailed is fired when the engine rejects the input
type AnalysisFailed struct {
	Reason string
}

// ReportUnlocked is fired when the diagnosis report is generated
type ReportUnlocked struct{}

func (HoldingsSubmitted) Event() Event { return EventHoldingsSubmitted }
func (HoldingsEdited) Event() Event    { return EventHoldingsEdited }
func (TypesConfirmed) Event() Event    { return EventTypesConfirmed }
func (ProfileSubmitted) Event() Event  { return EventProfileSubmitted }
func (AnalysisCompleted) Event() Event { return EventAnalysisCompleted }
func (AnalysisFailed) Event() Event    { return EventAnalysisFailed }
func (ReportUnlocked) Event() Event    { return EventReportUnlocked }

// Transitioned records one accepted transition
type Transitioned struct {
	From    State
	To      State
	Payload Payload
}

// Fire applies the event carried by p to s
func Fire(s State, p Payload) (Transitioned, error) {
	next, err := Transition(s, p.Event())
	if err != nil {
		return Transitioned{From: s, To: s, Payload: p}, err
	}
	return Transitioned{From: s, To: next, Payload: p}, nil
}
