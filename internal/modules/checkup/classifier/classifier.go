// Package classifier assigns a HoldingType to each parsed holding.
package classifier

import (
	"regexp"
	"strings"

	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/aristath/checkup/internal/utils"
)

var (
	unitTickerPattern   = regexp.MustCompile(`^[A-Z]{4}11$`)
	equityTickerPattern = regexp.MustCompile(`^[A-Z]{4}[3-6]F?$`)
	bdrTickerPattern    = regexp.MustCompile(`^[A-Z]{4}3[45]$`)
	usSuffixPattern     = regexp.MustCompile(`^[A-Z]{1,5}\.US$`)
)

// knownUSTickers are bare US listings common in Brazilian portfolios. A bare
// short word is otherwise too ambiguous ("OURO", "ITAU") to call exterior.
var knownUSTickers = map[string]bool{
	"VOO": true, "VTI": true, "SPY": true, "IVV": true, "QQQ": true, "VT": true,
	"VXUS": true, "VEA": true, "VWO": true, "BND": true, "TLT": true, "SCHD": true,
	"VNQ": true, "AAPL": true, "MSFT": true, "GOOGL": true, "AMZN": true, "NVDA": true,
	"META": true, "TSLA": true, "BRK.B": true, "JPM": true, "KO": true, "DIS": true,
}

// knownETFs are B3 ETFs sharing the XXXX11 shape with FIIs
var knownETFs = map[string]bool{
	"BOVA11": true, "IVVB11": true, "SMAL11": true, "HASH11": true,
	"BOVV11": true, "DIVO11": true, "FIND11": true, "GOLD11": true,
	"NASD11": true, "SPXI11": true, "XINA11": true, "EURP11": true,
	"ACWI11": true, "BBSD11": true, "ECOO11": true, "MATB11": true,
	"PIBB11": true, "BRAX11": true, "IMAB11": true, "FIXA11": true,
	"B5P211": true, "IRFM11": true, "QBTC11": true, "ETHE11": true,
	"WRLD11": true, "SPXB11": true, "USTK11": true, "BOVB11": true,
}

var (
	fixedIncomeKeywords = []string{"TESOURO", "DEBENTURE"}
	fixedIncomeWords    = []string{"CDB", "LCI", "LCA", "CRI", "CRA", "LTN", "NTN", "LFT", "RDB"}
	pensionKeywords     = []string{"PREVID", "VGBL", "PGBL"}
	fundWords           = []string{"FUNDO", "FIC", "FIM", "FIA", "MULTIMERCADO"}
	cashKeywords        = []string{"CAIXA", "SALDO", "CONTA", "POUPANCA", "CASH"}
	exteriorKeywords    = []string{"EXTERIOR", "OFFSHORE", "INTERNACION"}
)

// SuggestHoldingType infers the type of a raw holding from its hint and name.
// The first matching rule wins.
func SuggestHoldingType(h domain.RawHolding) domain.HoldingType {
	if t, ok := domain.ParseHoldingType(h.Tipo); ok {
		return t
	}

	name := utils.FoldUpper(h.NomeOuCodigo)
	ticker := strings.ReplaceAll(name, " ", "")

	switch {
	case unitTickerPattern.MatchString(ticker):
		if knownETFs[ticker] {
			return domain.HoldingTypeETFBR
		}
		return domain.HoldingTypeFII
	case equityTickerPattern.MatchString(ticker):
		return domain.HoldingTypeAcaoBR
	case containsAny(name, fixedIncomeKeywords), containsWord(name, fixedIncomeWords):
		if strings.Contains(name, "IPCA") {
			return domain.HoldingTypeRFIPCA
		}
		return domain.HoldingTypeRendaFixa
	case containsAny(name, pensionKeywords):
		return domain.HoldingTypePrevidencia
	case containsWord(name, fundWords):
		return domain.HoldingTypeFundo
	case containsAny(name, cashKeywords):
		return domain.HoldingTypeCaixa
	case bdrTickerPattern.MatchString(ticker),
		usSuffixPattern.MatchString(name),
		knownUSTickers[name],
		containsAny(name, exteriorKeywords):
		return domain.HoldingTypeExterior
	}

	return domain.HoldingTypeOutro
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// containsWord matches whole words only, so "FIA" does not match "CONFIANCA".
// Digits split words too, letting "NTN-B" and "CDB2027" match.
func containsWord(s string, words []string) bool {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r < 'A' || r > 'Z'
	})
	for _, tok := range tokens {
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}

// Classify types every raw holding with its suggestion.
// The input is not modified.
func Classify(raws []domain.RawHolding) []domain.TypedHolding {
	out := make([]domain.TypedHolding, len(raws))
	for i, raw := range raws {
		suggested := SuggestHoldingType(raw)
		out[i] = domain.TypedHolding{
			NomeOuCodigo:  raw.NomeOuCodigo,
			Valor:         raw.Valor,
			Quantidade:    raw.Quantidade,
			Preco:         raw.Preco,
			Tipo:          suggested,
			TipoSugerido:  suggested,
			TipoInformado: raw.Tipo,
		}
	}
	return out
}

// ApplyTypeToSimilar re-types every holding whose name contains pattern (case-insensitive).
// It returns a new slice; an empty pattern or an unknown type changes nothing.
func ApplyTypeToSimilar(holdings []domain.TypedHolding, pattern string, t domain.HoldingType) []domain.TypedHolding {
	out := append([]domain.TypedHolding(nil), holdings...)

	needle := utils.FoldUpper(pattern)
	if needle == "" || !t.IsValid() {
		return out
	}

	for i := range out {
		if strings.Contains(utils.FoldUpper(out[i].NomeOuCodigo), needle) {
			out[i].Tipo = t
		}
	}
	return out
}

// CountSimilar returns how many holdings ApplyTypeToSimilar would touch
func CountSimilar(holdings []domain.TypedHolding, pattern string) int {
	needle := utils.FoldUpper(pattern)
	if needle == "" {
		return 0
	}
	n := 0
	for _, h := range holdings {
		if strings.Contains(utils.FoldUpper(h.NomeOuCodigo), needle) {
			n++
		}
	}
	return n
}

// OverrideType returns a new slice with the holding at index re-typed
func OverrideType(holdings []domain.TypedHolding, index int, t domain.HoldingType) ([]domain.TypedHolding, error) {
	if index < 0 || index >= len(holdings) {
		return nil, domain.NewHoldingError("index", "out of range")
	}
	if !t.IsValid() {
		return nil, domain.NewHoldingError("tipo", "unknown holding type "+string(t))
	}

	out := append([]domain.TypedHolding(nil), holdings...)
	out[index].Tipo = t
	return out, nil
}

// Confidence is the share of holdings whose confirmed type matches a fresh suggestion.
// An empty list is fully confident.
func Confidence(holdings []domain.TypedHolding) float64 {
	if len(holdings) == 0 {
		return 1
	}
	matches := 0
	for _, h := range holdings {
		if SuggestHoldingType(h.Raw()) == h.Tipo {
			matches++
		}
	}
	return float64(matches) / float64(len(holdings))
}
