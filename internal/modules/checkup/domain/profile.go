package domain

// Objective is the investor's main goal
type Objective string

const (
	ObjectiveAposentadoria     Objective = "aposentadoria"
	ObjectiveReservaEmergencia Objective = "reserva_emergencia"
	ObjectiveCrescimento       Objective = "crescimento"
	ObjectiveRendaPassiva      Objective = "renda_passiva"
	ObjectivePreservacao       Objective = "preservacao"
)

// RiskTolerance is the investor's declared risk appetite
type RiskTolerance string

const (
	RiskConservador RiskTolerance = "conservador"
	RiskModerado    RiskTolerance = "moderado"
	RiskArrojado    RiskTolerance = "arrojado"
)

// AgeBand is the optional age bracket of the investor
type AgeBand string

const (
	AgeAte30    AgeBand = "ate_30"
	Age31a45    AgeBand = "31_45"
	Age46a60    AgeBand = "46_60"
	AgeAcima60  AgeBand = "acima_60"
	AgeNotGiven AgeBand = ""
)

// UserProfile captures investor intent and suitability, independent of holdings
type UserProfile struct {
	ObjetivoPrincipal Objective     `json:"objetivo_principal"`
	PrazoAnos         int           `json:"prazo_anos"`
	ToleranciaRisco   RiskTolerance `json:"tolerancia_risco"`
	IdadeFaixa        AgeBand       `json:"idade_faixa,omitempty"`
}

// Validate checks every profile field against its enum
func (p UserProfile) Validate() error {
	switch p.ObjetivoPrincipal {
	case ObjectiveAposentadoria, ObjectiveReservaEmergencia, ObjectiveCrescimento,
		ObjectiveRendaPassiva, ObjectivePreservacao:
	default:
		return &ValidationError{Field: "objetivo_principal", Reason: "valor desconhecido: " + string(p.ObjetivoPrincipal), kind: ErrInvalidProfile}
	}

	if p.PrazoAnos <= 0 {
		return &ValidationError{Field: "prazo_anos", Reason: "deve ser maior que zero", kind: ErrInvalidProfile}
	}

	if !p.ToleranciaRisco.IsValid() {
		return &ValidationError{Field: "tolerancia_risco", Reason: "valor desconhecido: " + string(p.ToleranciaRisco), kind: ErrInvalidProfile}
	}

	switch p.IdadeFaixa {
	case AgeNotGiven, AgeAte30, Age31a45, Age46a60, AgeAcima60:
	default:
		return &ValidationError{Field: "idade_faixa", Reason: "valor desconhecido: " + string(p.IdadeFaixa), kind: ErrInvalidProfile}
	}

	return nil
}

// IsValid reports whether r is a known tolerance
func (r RiskTolerance) IsValid() bool {
	switch r {
	case RiskConservador, RiskModerado, RiskArrojado:
		return true
	}
	return false
}
