// Package parser turns pasted text, CSV and spreadsheet rows into raw holdings.
// Row problems are collected as error strings and never abort the batch.
package parser

import (
	"fmt"
	"strings"

	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/aristath/checkup/internal/utils"
)

// Result is the outcome of one parse batch.
// len(Holdings) + number of errored lines == number of non-blank data lines.
type Result struct {
	Holdings []domain.RawHolding `json:"holdings"`
	Errors   []string            `json:"errors"`
}

// row is one non-blank input line with its 1-based physical line number
type row struct {
	line       int
	cells      []string
	commaSplit bool
}

// column indexes of a recognized header; -1 when absent
type columns struct {
	name, valor, quantidade, preco, tipo int
}

var headerKeywords = []struct {
	prefixes []string
	set      func(c *columns, idx int)
}{
	{[]string{"NOME_OU_CODIGO", "ATIVO", "NOME", "CODIGO", "TICKER", "PAPEL", "PRODUTO", "DESCRICAO"}, func(c *columns, i int) { c.name = i }},
	{[]string{"VALOR", "SALDO", "TOTAL", "POSICAO", "MONTANTE"}, func(c *columns, i int) { c.valor = i }},
	{[]string{"QUANTIDADE", "QTDE", "QTD"}, func(c *columns, i int) { c.quantidade = i }},
	{[]string{"PRECO", "COTACAO"}, func(c *columns, i int) { c.preco = i }},
	{[]string{"TIPO", "CLASSE", "CATEGORIA"}, func(c *columns, i int) { c.tipo = i }},
}

var totalRowNames = map[string]bool{"TOTAL": true, "SUBTOTAL": true, "TOTAL GERAL": true}

// ParseText parses pasted text, one holding per line
func ParseText(raw string) Result {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	rows := make([]row, 0, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells, commaSplit := splitLine(line)
		rows = append(rows, row{line: i + 1, cells: cells, commaSplit: commaSplit})
	}

	return parseRows(rows)
}

// splitLine splits on whichever of tab, comma or semicolon occurs first in the line.
// Lines without any of them fall back to runs of two or more spaces, then to a
// single space when that yields exactly two tokens ("PETR4 50000"). A comma
// inside a space-separated value ("PETR4 50.000,00") is read as decimal.
func splitLine(line string) ([]string, bool) {
	trimmed := strings.TrimSpace(line)

	delim := firstDelimiter(line)
	if delim == "," {
		// "PETR4 50.000,00": the comma is the decimal separator of a space-separated value
		if cells := splitSpaces(trimmed); len(cells) == 2 && !strings.Contains(cells[0], ",") && isNumeric(cells[1]) {
			return cells, false
		}
	}
	if delim != "" {
		return trimCells(strings.Split(line, delim)), delim == ","
	}
	return splitSpaces(trimmed), false
}

// splitSpaces splits on runs of two or more spaces, or on the single space of a
// two-word line
func splitSpaces(trimmed string) []string {
	if strings.Contains(trimmed, "  ") {
		var cells []string
		for _, part := range strings.Split(trimmed, "  ") {
			if strings.TrimSpace(part) != "" {
				cells = append(cells, part)
			}
		}
		return trimCells(cells)
	}

	if fields := strings.Fields(trimmed); len(fields) == 2 {
		return fields
	}
	return []string{trimmed}
}

func firstDelimiter(line string) string {
	best, bestIdx := "", -1
	for _, d := range []string{"\t", ",", ";"} {
		if idx := strings.Index(line, d); idx >= 0 && (bestIdx < 0 || idx < bestIdx) {
			best, bestIdx = d, idx
		}
	}
	return best
}

// mergeDecimalTail rejoins "PETR4,50000,00" where the comma split a pt-BR decimal part
func mergeDecimalTail(cells []string) []string {
	if len(cells) != 3 {
		return cells
	}
	tail := cells[2]
	if len(tail) != 2 || !allDigits(tail) || !allDigits(strings.ReplaceAll(cells[1], ".", "")) {
		return cells
	}
	return []string{cells[0], cells[1] + "," + tail}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func trimCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.Trim(strings.TrimSpace(c), `"'`)
	}
	return out
}

// parseRows applies header detection and row validation shared by every input format
func parseRows(rows []row) Result {
	result := Result{
		Holdings: []domain.RawHolding{},
		Errors:   []string{},
	}
	if len(rows) == 0 {
		return result
	}

	cols, isHeader := detectHeader(rows[0].cells)
	// a three-column header owns its third cell, so "x,1,50" stays three values
	mergeTails := !isHeader || len(rows[0].cells) < 3
	if isHeader {
		rows = rows[1:]
	}

	for _, r := range rows {
		if r.commaSplit && mergeTails {
			r.cells = mergeDecimalTail(r.cells)
		}
		holding, errMsg := parseRow(r, cols)
		if errMsg != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("linha %d: %s", r.line, errMsg))
			continue
		}
		result.Holdings = append(result.Holdings, holding)
	}

	return result
}

func positionalColumns() columns {
	return columns{name: 0, valor: 1, quantidade: -1, preco: -1, tipo: 2}
}

// detectHeader recognizes a header row by its column names.
// A header needs a name column and at least one value-bearing column.
func detectHeader(cells []string) (columns, bool) {
	if len(cells) >= 2 && isNumeric(cells[1]) {
		return positionalColumns(), false
	}

	cols := columns{name: -1, valor: -1, quantidade: -1, preco: -1, tipo: -1}
	for idx, cell := range cells {
		key := utils.FoldUpper(cell)
		if key == "" {
			continue
		}
		for _, kw := range headerKeywords {
			if hasAnyPrefix(key, kw.prefixes) {
				kw.set(&cols, idx)
				break
			}
		}
	}

	if cols.name >= 0 && (cols.valor >= 0 || (cols.quantidade >= 0 && cols.preco >= 0)) {
		return cols, true
	}
	return positionalColumns(), false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

// parseRow returns the holding or a non-empty error reason
func parseRow(r row, cols columns) (domain.RawHolding, string) {
	name := cell(r.cells, cols.name)
	if name == "" {
		return domain.RawHolding{}, "nome vazio"
	}
	if totalRowNames[utils.FoldUpper(name)] {
		return domain.RawHolding{}, "linha de total ignorada"
	}

	holding := domain.RawHolding{NomeOuCodigo: name}

	if raw := cell(r.cells, cols.valor); raw != "" {
		v, err := ParseNumber(raw)
		if err != nil {
			return domain.RawHolding{}, "valor inválido"
		}
		holding.Valor = domain.Float(v)
	}

	if raw := cell(r.cells, cols.quantidade); raw != "" {
		if q, err := ParseNumber(raw); err == nil {
			holding.Quantidade = domain.Float(q)
		}
	}
	if raw := cell(r.cells, cols.preco); raw != "" {
		if p, err := ParseNumber(raw); err == nil {
			holding.Preco = domain.Float(p)
		}
	}

	if hint := cell(r.cells, cols.tipo); hint != "" && !isNumeric(hint) {
		holding.Tipo = hint
	}

	v, ok := holding.ResolveValue()
	if !ok {
		return domain.RawHolding{}, "valor inválido"
	}
	holding.Valor = domain.Float(v)

	return holding, ""
}
