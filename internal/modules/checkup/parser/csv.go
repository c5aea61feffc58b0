package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV parses a delimited export. The delimiter is sniffed from the first
// non-blank line using the same priority as pasted text.
func ParseCSV(r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows []row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// a broken quote only loses that record
			rows = append(rows, row{line: parseErr.StartLine})
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("failed to read CSV record: %w", err)
		}

		if isBlankRecord(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, row{line: line, cells: trimCells(record), commaSplit: reader.Comma == ','})
	}

	return parseRows(rows), nil
}

func sniffDelimiter(data []byte) rune {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch firstDelimiter(line) {
		case "\t":
			return '\t'
		case ";":
			return ';'
		}
		return ','
	}
	return ','
}

func isBlankRecord(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
