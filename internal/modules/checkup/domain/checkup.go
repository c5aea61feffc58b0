package domain

import (
	"time"

	"github.com/aristath/checkup/internal/modules/checkup/flow"
)

// Status is the commercial state of a checkup, owned by the payment gate
type Status string

const (
	StatusPreview Status = "preview"
	StatusPaid    Status = "paid"
	StatusDone    Status = "done"
)

// Checkup is the persisted aggregate
type Checkup struct {
	ID                       string           `json:"id"`
	Status                   Status           `json:"status"`
	Step                     flow.State       `json:"step"`
	Profile                  *UserProfile     `json:"profile,omitempty"`
	PolicyProfile            *PolicyProfile   `json:"policy_profile,omitempty"`
	Holdings                 []TypedHolding   `json:"holdings"`
	ParseErrors              []string         `json:"parse_errors,omitempty"`
	ClassificationConfidence *float64         `json:"classification_confidence,omitempty"`
	Analytics                *Analytics       `json:"analytics,omitempty"`
	Score                    *int             `json:"score,omitempty"`
	Report                   *DiagnosisReport `json:"report,omitempty"`
	CreatedAt                time.Time        `json:"created_at"`
	UpdatedAt                time.Time        `json:"updated_at"`
}
