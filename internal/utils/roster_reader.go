package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"certgen/internal/logger"
	. "certgen/internal/models"
)

// Record is a raw CSV record with its 1-based record number.
type Record struct {
	RowNumber int
	Fields    []string
}

type Roster struct {
	Path     string
	Encoding string
	Header   []string
	Records  []Record
}

type RosterReader struct {
	encodings []Encoding
	log       logger.Logger
}

func NewRosterReader(encodings []Encoding) *RosterReader {
	return &RosterReader{
		encodings: encodings,
		log:       logger.New("utils").File("roster_reader"),
	}
}

// Read tries each candidate encoding in order. A wrong column count in a decoded
// header stops the search; decode failures and empty headers move on.
func (r *RosterReader) Read(path string) (*Roster, error) {
	log := r.log.Function("Read")
	log.Debug("Attempting to read CSV file", "path", path)

	data, err := readAll(path)
	if err != nil {
		return nil, err
	}

	tried := make([]string, 0, len(r.encodings))
	for _, enc := range r.encodings {
		tried = append(tried, enc.Name)

		text, err := enc.Decode(data)
		if err != nil {
			log.Warn("failed to decode roster, trying next encoding", "encoding", enc.Name, "error", err)
			continue
		}

		records, err := parseCSV(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse roster as %s: %w", enc.Name, err)
		}

		if len(records) == 0 || len(records[0].Fields) == 0 {
			log.Debug("empty header, trying next encoding", "encoding", enc.Name)
			continue
		}

		header := records[0].Fields
		if len(header) != len(RosterColumns) {
			return nil, &SchemaError{Header: header}
		}

		log.Info("Successfully read file with encoding", "encoding", enc.Name, "records", len(records)-1)

		return &Roster{
			Path:     path,
			Encoding: enc.Name,
			Header:   header,
			Records:  records[1:],
		}, nil
	}

	return nil, &EncodingExhaustedError{Path: path, Tried: tried}
}

func readAll(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	return data, nil
}

// parseCSV numbers records by input position. encoding/csv skips empty lines,
// so each one is kept here as a zero-field record.
func parseCSV(text string) ([]Record, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records []Record
	offset := 0
	for {
		for {
			rest := text[offset:]
			if strings.HasPrefix(rest, "\n") {
				offset++
			} else if strings.HasPrefix(rest, "\r\n") {
				offset += 2
			} else {
				break
			}
			records = append(records, Record{RowNumber: len(records) + 1, Fields: []string{}})
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, Record{RowNumber: len(records) + 1, Fields: fields})
		offset = int(reader.InputOffset())
	}
}
