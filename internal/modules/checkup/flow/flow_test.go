package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_HappyPath(t *testing.T) {
	steps := []Payload{
		HoldingsSubmitted{Count: 3},
		TypesConfirmed{Confidence: 1},
		ProfileSubmitted{Tolerance: "moderado"},
		AnalysisCompleted{Score: 72},
		ReportUnlocked{},
	}
	expected := []State{StateTypes, StateSuitability, StateAnalyzing, StatePreview, StateReport}

	state := StateInput
	for i, p := range steps {
		tr, err := Fire(state, p)
		require.NoError(t, err)
		assert.Equal(t, state, tr.From)
		assert.Equal(t, expected[i], tr.To)
		state = tr.To
	}
}

func TestTransition_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
	}{
		{"analyze before holdings", StateInput, EventProfileSubmitted},
		{"report before analysis", StateSuitability, EventReportUnlocked},
		{"confirm types twice", StateSuitability, EventTypesConfirmed},
		{"edit holdings while analyzing", StateAnalyzing, EventHoldingsEdited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Transition(tt.state, tt.event)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.state, next)
			assert.False(t, Can(tt.state, tt.event))
		})
	}
}

func TestTransition_EditFromPreviewRequiresReanalysis(t *testing.T) {
	next, err := Transition(StatePreview, EventHoldingsEdited)
	require.NoError(t, err)
	assert.Equal(t, StateTypes, next)
}

func TestFire_FailedAnalysisReturnsToSuitability(t *testing.T) {
	tr, err := Fire(StateAnalyzing, AnalysisFailed{Reason: "no holdings"})
	require.NoError(t, err)
	assert.Equal(t, StateSuitability, tr.To)
	assert.Equal(t, EventAnalysisFailed, tr.Payload.Event())
}
