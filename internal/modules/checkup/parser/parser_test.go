package parser

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		wantErr  bool
	}{
		{name: "plain integer", input: "50000", expected: 50000},
		{name: "pt-BR thousands dot", input: "50.000", expected: 50000},
		{name: "pt-BR full", input: "1.234,56", expected: 1234.56},
		{name: "en-US full", input: "1,234.56", expected: 1234.56},
		{name: "currency prefix", input: "R$ 50.000,00", expected: 50000},
		{name: "dollar prefix", input: "US$ 1.250,75", expected: 1250.75},
		{name: "decimal dot", input: "1234.5", expected: 1234.5},
		{name: "short decimal dot", input: "1.5", expected: 1.5},
		{name: "lone comma is decimal", input: "12,5", expected: 12.5},
		{name: "repeated dots", input: "1.234.567", expected: 1234567},
		{name: "parenthesized negative", input: "(100)", expected: -100},
		{name: "letters", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "only currency", input: "R$", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNumber(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidNumber)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestParseText_TabSeparated(t *testing.T) {
	result := ParseText("PETR4\t50000\nVALE3\t30000")

	require.Len(t, result.Holdings, 2)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "PETR4", result.Holdings[0].NomeOuCodigo)
	assert.Equal(t, 50000.0, *result.Holdings[0].Valor)
	assert.Equal(t, "VALE3", result.Holdings[1].NomeOuCodigo)
	assert.Equal(t, 30000.0, *result.Holdings[1].Valor)
}

func TestParseText_MalformedRowIsCollected(t *testing.T) {
	result := ParseText("PETR4\tabc\nVALE3\t30000")

	require.Len(t, result.Holdings, 1)
	assert.Equal(t, "VALE3", result.Holdings[0].NomeOuCodigo)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "linha 1")
	assert.Contains(t, result.Errors[0], "valor inválido")
}

func TestParseText_RowErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{name: "empty name", input: "\t5000", errMsg: "linha 1: nome vazio"},
		{name: "zero value", input: "PETR4\t0", errMsg: "linha 1: valor inválido"},
		{name: "negative value", input: "PETR4\t-10", errMsg: "linha 1: valor inválido"},
		{name: "missing value", input: "PETR4\t", errMsg: "linha 1: valor inválido"},
		{name: "total row", input: "PETR4\t100\nTotal\t100", errMsg: "linha 2: linha de total ignorada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseText(tt.input)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.errMsg, result.Errors[0])
		})
	}
}

func TestParseText_Delimiters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		nome     string
		expected float64
	}{
		{name: "semicolon", input: "HGLG11;10.000,50", nome: "HGLG11", expected: 10000.5},
		{name: "comma decimal tail", input: "PETR4,50000,00", nome: "PETR4", expected: 50000},
		{name: "comma grouped tail", input: "PETR4,50.000,00", nome: "PETR4", expected: 50000},
		{name: "single space", input: "PETR4 50000", nome: "PETR4", expected: 50000},
		{name: "single space with decimal comma", input: "PETR4 50.000,00", nome: "PETR4", expected: 50000},
		{name: "wide spaces with decimal comma", input: "Tesouro Selic 2029  1.234,56", nome: "Tesouro Selic 2029", expected: 1234.56},
		{name: "comma and space", input: "PETR4, 50.000,00", nome: "PETR4", expected: 50000},
		{name: "wide spaces", input: "Tesouro IPCA 2035   12.000", nome: "Tesouro IPCA 2035", expected: 12000},
		{name: "quoted name", input: "\"BOVA11\"\t2500", nome: "BOVA11", expected: 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseText(tt.input)
			require.Empty(t, result.Errors)
			require.Len(t, result.Holdings, 1)
			assert.Equal(t, tt.nome, result.Holdings[0].NomeOuCodigo)
			assert.InDelta(t, tt.expected, *result.Holdings[0].Valor, 1e-9)
		})
	}
}

func TestParseText_TypeHint(t *testing.T) {
	result := ParseText("XPML11\t8000\tfii\nPETR4\t100\t200")

	require.Len(t, result.Holdings, 2)
	assert.Equal(t, "fii", result.Holdings[0].Tipo)
	assert.Empty(t, result.Holdings[1].Tipo, "numeric third token is not a type hint")
}

func TestParseText_Header(t *testing.T) {
	input := "Ativo;Valor;Tipo\nHGLG11;10.000,50;FII\n\nTesouro Selic 2029;5.000,00;"

	result := ParseText(input)

	assert.Empty(t, result.Errors)
	require.Len(t, result.Holdings, 2)
	assert.Equal(t, "HGLG11", result.Holdings[0].NomeOuCodigo)
	assert.Equal(t, "FII", result.Holdings[0].Tipo)
	assert.InDelta(t, 10000.5, *result.Holdings[0].Valor, 1e-9)
	assert.Equal(t, "Tesouro Selic 2029", result.Holdings[1].NomeOuCodigo)
	assert.InDelta(t, 5000.0, *result.Holdings[1].Valor, 1e-9)
}

func TestParseText_HeaderWithQuantityAndPrice(t *testing.T) {
	input := "Ticker,Quantidade,Preço\nPETR4,100,35.5\nVALE3,10,60"

	result := ParseText(input)

	assert.Empty(t, result.Errors)
	require.Len(t, result.Holdings, 2)
	assert.InDelta(t, 3550.0, *result.Holdings[0].Valor, 1e-9)
	assert.InDelta(t, 100.0, *result.Holdings[0].Quantidade, 1e-9)
	assert.InDelta(t, 600.0, *result.Holdings[1].Valor, 1e-9)
}

func TestParseText_HeaderLineNumbers(t *testing.T) {
	result := ParseText("Ativo\tValor\nPETR4\txyz")

	assert.Empty(t, result.Holdings)
	assert.Equal(t, []string{"linha 2: valor inválido"}, result.Errors)
}

func TestParseText_EveryDataLineAccountedFor(t *testing.T) {
	input := strings.Join([]string{
		"PETR4\t50000",
		"",
		"VALE3\tabc",
		"\t100",
		"ITSA4\t1.000,00",
		"   ",
		"Total\t51000",
	}, "\n")

	result := ParseText(input)

	assert.Equal(t, 5, len(result.Holdings)+len(result.Errors))
	assert.Len(t, result.Holdings, 2)
	assert.Equal(t, []string{
		"linha 3: valor inválido",
		"linha 4: nome vazio",
		"linha 7: linha de total ignorada",
	}, result.Errors)
}

func TestParseText_Empty(t *testing.T) {
	result := ParseText("  \n\n")

	assert.NotNil(t, result.Holdings)
	assert.Empty(t, result.Holdings)
	assert.Empty(t, result.Errors)
}

func TestParseText_RoundTrip(t *testing.T) {
	first := ParseText("PETR4\t50000\nHGLG11\t12.500,25\tFII\nIVVB11\t7.000")

	var lines []string
	for _, h := range first.Holdings {
		line := h.NomeOuCodigo + "\t" + strings.ReplaceAll(formatPlain(*h.Valor), ".", ",")
		if h.Tipo != "" {
			line += "\t" + h.Tipo
		}
		lines = append(lines, line)
	}

	second := ParseText(strings.Join(lines, "\n"))

	assert.Empty(t, second.Errors)
	assert.Equal(t, first.Holdings, second.Holdings)
}

func formatPlain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func TestParseCSV(t *testing.T) {
	input := "\xEF\xBB\xBFAtivo,Valor\nPETR4,\"50.000,00\"\nVALE3,30000\n,100\n"

	result, err := ParseCSV(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, result.Holdings, 2)
	assert.Equal(t, "PETR4", result.Holdings[0].NomeOuCodigo)
	assert.InDelta(t, 50000.0, *result.Holdings[0].Valor, 1e-9)
	assert.Equal(t, []string{"linha 4: nome vazio"}, result.Errors)
}

func TestParseCSV_SemicolonSniffed(t *testing.T) {
	input := "ativo;valor;classe\nBOVA11;1.500,00;ETF\nTesouro IPCA+ 2035;2.000,00;\n"

	result, err := ParseCSV(strings.NewReader(input))

	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Holdings, 2)
	assert.Equal(t, "ETF", result.Holdings[0].Tipo)
	assert.InDelta(t, 2000.0, *result.Holdings[1].Valor, 1e-9)
}

func TestParseExcel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Ativo", "Valor", "Tipo"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"PETR4", 50000, "Ação"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"KNRI11", "abc", ""}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]interface{}{"Tesouro Selic", 1250.5, ""}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	result, err := ParseExcel(bytes.NewReader(buf.Bytes()))

	require.NoError(t, err)
	require.Len(t, result.Holdings, 2)
	assert.Equal(t, "PETR4", result.Holdings[0].NomeOuCodigo)
	assert.Equal(t, "Ação", result.Holdings[0].Tipo)
	assert.InDelta(t, 1250.5, *result.Holdings[1].Valor, 1e-9)
	assert.Equal(t, []string{"linha 4: valor inválido"}, result.Errors)
}

func TestParseExcel_NotAWorkbook(t *testing.T) {
	_, err := ParseExcel(strings.NewReader("not a zip"))
	assert.Error(t, err)
}
