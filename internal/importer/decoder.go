// Package importer implements the bulk audience import pipeline: decoding
// delimited payloads, normalizing localized headers and aggregating
// per-record outcomes into an import report.
package importer

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
)

// Row is one decoded data row. Line is the 1-based position of the row in the
// original payload (the header is line 1), so error messages point at the
// line the operator sees in their file. Fields is keyed by the lower-cased,
// trimmed header names.
type Row struct {
	Line   int
	Fields map[string]string
}

// Decode parses a delimited text payload into ordered rows. The delimiter
// (comma or semicolon) is resolved from the header line. Fields may be
// double-quoted; inside quotes delimiters and newlines are literal and ""
// escapes a quote. Payloads with no data rows decode to an empty sequence.
func Decode(payload []byte) ([]Row, error) {
	payload = bytes.TrimPrefix(payload, []byte{0xEF, 0xBB, 0xBF})
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}

	reader := csv.NewReader(bytes.NewReader(payload))
	reader.Comma = sniffDelimiter(payload)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i, name := range header {
		header[i] = strings.ToLower(strings.TrimSpace(name))
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlank(record) {
			continue
		}
		// FieldPos reports the physical input line, counting lines consumed
		// by quoted newlines and blank lines the csv reader skipped.
		line, _ := reader.FieldPos(0)

		fields := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(record) {
				fields[name] = record[i]
			}
		}
		rows = append(rows, Row{Line: line, Fields: fields})
	}
	return rows, nil
}

// sniffDelimiter resolves comma vs semicolon from the header line.
func sniffDelimiter(payload []byte) rune {
	headerLine := payload
	if idx := bytes.IndexByte(payload, '\n'); idx >= 0 {
		headerLine = payload[:idx]
	}
	if bytes.Count(headerLine, []byte{';'}) > bytes.Count(headerLine, []byte{','}) {
		return ';'
	}
	return ','
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
