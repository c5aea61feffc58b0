// Package domain provides the data model of the portfolio checkup engine.
// It has no infrastructure dependencies; every other checkup package builds on it.
package domain

import (
	"math"

	"github.com/aristath/checkup/internal/utils"
)

// HoldingType is the closed taxonomy a holding is classified into
type HoldingType string

const (
	// HoldingTypeAcaoBR represents Brazilian listed equities (PETR4, VALE3)
	HoldingTypeAcaoBR HoldingType = "Ação BR"
	// HoldingTypeFII represents Brazilian real estate funds (HGLG11)
	HoldingTypeFII HoldingType = "FII"
	// HoldingTypeETFBR represents ETFs listed on B3 (BOVA11)
	HoldingTypeETFBR HoldingType = "ETF BR"
	// HoldingTypeExterior represents assets held abroad or BDRs
	HoldingTypeExterior HoldingType = "Exterior"
	// HoldingTypeRFIPCA represents inflation-linked fixed income (Tesouro IPCA+)
	HoldingTypeRFIPCA HoldingType = "RF IPCA"
	// HoldingTypeRendaFixa represents other fixed income (Selic, prefixado, CDB)
	HoldingTypeRendaFixa HoldingType = "Renda Fixa"
	// HoldingTypeFundo represents investment funds (multimercado, FIC)
	HoldingTypeFundo HoldingType = "Fundo"
	// HoldingTypePrevidencia represents private pension plans (VGBL/PGBL)
	HoldingTypePrevidencia HoldingType = "Previdência"
	// HoldingTypeCaixa represents cash and cash equivalents
	HoldingTypeCaixa HoldingType = "Caixa"
	// HoldingTypeOutro is the default for holdings pending confirmation
	HoldingTypeOutro HoldingType = "Outro"
)

// AllHoldingTypes lists every HoldingType in canonical order.
// Any iteration that feeds a computation must use this order.
var AllHoldingTypes = []HoldingType{
	HoldingTypeAcaoBR,
	HoldingTypeFII,
	HoldingTypeETFBR,
	HoldingTypeExterior,
	HoldingTypeRFIPCA,
	HoldingTypeRendaFixa,
	HoldingTypeFundo,
	HoldingTypePrevidencia,
	HoldingTypeCaixa,
	HoldingTypeOutro,
}

// holdingTypeAliases maps folded user/OCR spellings to the taxonomy
var holdingTypeAliases = map[string]HoldingType{
	"ACAO BR":     HoldingTypeAcaoBR,
	"ACAO":        HoldingTypeAcaoBR,
	"ACOES":       HoldingTypeAcaoBR,
	"ACOES BR":    HoldingTypeAcaoBR,
	"ACAO BRASIL": HoldingTypeAcaoBR,
	"STOCK BR":    HoldingTypeAcaoBR,

	"FII":                 HoldingTypeFII,
	"FIIS":                HoldingTypeFII,
	"FUNDO IMOBILIARIO":   HoldingTypeFII,
	"FUNDOS IMOBILIARIOS": HoldingTypeFII,

	"ETF BR": HoldingTypeETFBR,
	"ETF":    HoldingTypeETFBR,
	"ETFS":   HoldingTypeETFBR,

	"EXTERIOR":      HoldingTypeExterior,
	"INTERNACIONAL": HoldingTypeExterior,
	"OFFSHORE":      HoldingTypeExterior,
	"BDR":           HoldingTypeExterior,
	"BDRS":          HoldingTypeExterior,
	"STOCKS":        HoldingTypeExterior,
	"REIT":          HoldingTypeExterior,

	"RF IPCA":      HoldingTypeRFIPCA,
	"IPCA":         HoldingTypeRFIPCA,
	"IPCA+":        HoldingTypeRFIPCA,
	"TESOURO IPCA": HoldingTypeRFIPCA,

	"RENDA FIXA":    HoldingTypeRendaFixa,
	"RF":            HoldingTypeRendaFixa,
	"RF POS":        HoldingTypeRendaFixa,
	"RF PRE":        HoldingTypeRendaFixa,
	"TESOURO":       HoldingTypeRendaFixa,
	"TESOURO SELIC": HoldingTypeRendaFixa,
	"CDB":           HoldingTypeRendaFixa,
	"LCI":           HoldingTypeRendaFixa,
	"LCA":           HoldingTypeRendaFixa,

	"FUNDO":        HoldingTypeFundo,
	"FUNDOS":       HoldingTypeFundo,
	"FIC":          HoldingTypeFundo,
	"FIM":          HoldingTypeFundo,
	"MULTIMERCADO": HoldingTypeFundo,

	"PREVIDENCIA":         HoldingTypePrevidencia,
	"PREVIDENCIA PRIVADA": HoldingTypePrevidencia,
	"VGBL":                HoldingTypePrevidencia,
	"PGBL":                HoldingTypePrevidencia,

	"CAIXA":    HoldingTypeCaixa,
	"CASH":     HoldingTypeCaixa,
	"SALDO":    HoldingTypeCaixa,
	"CONTA":    HoldingTypeCaixa,
	"POUPANCA": HoldingTypeCaixa,

	"OUTRO":  HoldingTypeOutro,
	"OUTROS": HoldingTypeOutro,
}

// IsValid reports whether t is one of the taxonomy values
func (t HoldingType) IsValid() bool {
	for _, v := range AllHoldingTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsExterior reports whether t belongs to the exterior side of the BR/exterior split
func (t HoldingType) IsExterior() bool {
	return t == HoldingTypeExterior
}

// IsComplex reports whether t is one of the "black box" types
func (t HoldingType) IsComplex() bool {
	return t == HoldingTypeFundo || t == HoldingTypePrevidencia
}

// IsRiskAsset reports whether t carries equity-like risk
func (t HoldingType) IsRiskAsset() bool {
	switch t {
	case HoldingTypeAcaoBR, HoldingTypeFII, HoldingTypeETFBR, HoldingTypeExterior:
		return true
	}
	return false
}

// ParseHoldingType resolves a free-form label to a HoldingType.
// Matching is case-, accent- and alias-insensitive; ok is false for unknown labels.
func ParseHoldingType(s string) (HoldingType, bool) {
	key := utils.FoldUpper(s)
	if key == "" {
		return "", false
	}
	for _, t := range AllHoldingTypes {
		if utils.FoldUpper(string(t)) == key {
			return t, true
		}
	}
	t, ok := holdingTypeAliases[key]
	return t, ok
}

// RawHolding is a holding as read from one input row, before classification
type RawHolding struct {
	NomeOuCodigo string   `json:"nome_ou_codigo"`
	Valor        *float64 `json:"valor,omitempty"`
	Quantidade   *float64 `json:"quantidade,omitempty"`
	Preco        *float64 `json:"preco,omitempty"`
	Tipo         string   `json:"tipo,omitempty"` // Free-form hint (OCR, spreadsheet column)
}

// ResolveValue returns the monetary value of the holding.
// Valor wins; otherwise quantidade*preco. ok is false when neither yields a finite positive number.
func (h RawHolding) ResolveValue() (float64, bool) {
	return resolveValue(h.Valor, h.Quantidade, h.Preco)
}

// TypedHolding is a RawHolding with a resolved HoldingType
type TypedHolding struct {
	NomeOuCodigo  string      `json:"nome_ou_codigo"`
	Valor         *float64    `json:"valor,omitempty"`
	Quantidade    *float64    `json:"quantidade,omitempty"`
	Preco         *float64    `json:"preco,omitempty"`
	Tipo          HoldingType `json:"tipo"`
	TipoSugerido  HoldingType `json:"tipo_sugerido,omitempty"`  // Heuristic suggestion at classification time
	TipoInformado string      `json:"tipo_informado,omitempty"` // Original hint from the input row
}

// ResolveValue returns the monetary value of the holding (see RawHolding.ResolveValue)
func (h TypedHolding) ResolveValue() (float64, bool) {
	return resolveValue(h.Valor, h.Quantidade, h.Preco)
}

// Raw rebuilds the RawHolding this holding was classified from
func (h TypedHolding) Raw() RawHolding {
	return RawHolding{
		NomeOuCodigo: h.NomeOuCodigo,
		Valor:        h.Valor,
		Quantidade:   h.Quantidade,
		Preco:        h.Preco,
		Tipo:         h.TipoInformado,
	}
}

func resolveValue(valor, quantidade, preco *float64) (float64, bool) {
	if valor != nil {
		return *valor, isPositiveFinite(*valor)
	}
	if quantidade != nil && preco != nil {
		v := *quantidade * *preco
		return v, isPositiveFinite(v)
	}
	return 0, false
}

func isPositiveFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// Float returns a pointer to v, for building optional holding fields
func Float(v float64) *float64 {
	return &v
}
