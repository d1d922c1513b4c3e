package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	"certgen/internal/logger"
	. "certgen/internal/models"

	"golang.org/x/text/transform"
)

var (
	sampleFirstNames = []string{"Alice", "José", "Zoë", "Søren", "Chloé", "Bob", "Mária", "Ingrid", "André", "Noël"}
	sampleLastNames  = []string{"Smith", "García", "Müller", "Ødegaard", "Dubois", "Nowak", "Björk", "Peña", "O'Brien", "Fernández"}
	sampleEvents     = []string{"Go Workshop", "Conférence Annuelle", "Data Summit", "Café Meetup", "Security Bootcamp"}
)

type SampleRosterConfig struct {
	Rows     int
	Encoding string
	// MalformedEvery inserts a four-field row after every n valid rows; zero disables it.
	MalformedEvery int
	Seed           int64
}

type SampleRosterGenerator struct {
	config SampleRosterConfig
	log    logger.Logger
}

func NewSampleRosterGenerator(config SampleRosterConfig) *SampleRosterGenerator {
	return &SampleRosterGenerator{
		config: config,
		log:    logger.New("utils").File("sample_roster"),
	}
}

// Rows returns the valid rows the generator writes, in order.
func (g *SampleRosterGenerator) Rows() []RosterRow {
	rng := rand.New(rand.NewSource(g.config.Seed))
	rows := make([]RosterRow, g.config.Rows)
	for i := range rows {
		rows[i] = RosterRow{
			Name:  sampleFirstNames[rng.Intn(len(sampleFirstNames))] + " " + sampleLastNames[rng.Intn(len(sampleLastNames))],
			Event: sampleEvents[rng.Intn(len(sampleEvents))],
			Date:  fmt.Sprintf("2024-%02d-%02d", rng.Intn(12)+1, rng.Intn(28)+1),
		}
	}
	return rows
}

// Write encodes the roster, header first, in the configured encoding.
func (g *SampleRosterGenerator) Write(w io.Writer) (valid, malformed int, err error) {
	log := g.log.Function("Write")

	enc, err := LookupEncoding(g.config.Encoding)
	if err != nil {
		return 0, 0, err
	}

	encoded := transform.NewWriter(w, enc.NewEncoder())
	writer := csv.NewWriter(encoded)

	if err := writer.Write(RosterColumns); err != nil {
		return 0, 0, log.Err("failed to write header", err)
	}

	for i, row := range g.Rows() {
		if err := writer.Write([]string{row.Name, row.Event, row.Date}); err != nil {
			return valid, malformed, log.Err("failed to write row", err, "index", i)
		}
		valid++

		if g.config.MalformedEvery > 0 && valid%g.config.MalformedEvery == 0 {
			if err := writer.Write([]string{row.Name, row.Event, row.Date, "extra"}); err != nil {
				return valid, malformed, log.Err("failed to write malformed row", err, "index", i)
			}
			malformed++
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return valid, malformed, log.Err("failed to flush roster", err)
	}
	if err := encoded.Close(); err != nil {
		return valid, malformed, log.Err("failed to encode roster", err, "encoding", enc.Name)
	}

	log.Debug("sample roster written", "valid", valid, "malformed", malformed, "encoding", enc.Name)
	return valid, malformed, nil
}

// WriteFile writes the roster to path, creating parent directories.
func (g *SampleRosterGenerator) WriteFile(path string) (valid, malformed int, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, 0, g.log.Function("WriteFile").Err("failed to create directory", err, "path", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, 0, g.log.Function("WriteFile").Err("failed to create roster file", err, "path", path)
	}
	defer file.Close()

	return g.Write(file)
}
