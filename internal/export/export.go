// Package export writes run results to disk as a plain CIDR list and as a
// JSON report with per-country detail.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"cidrscout/internal/pipeline"
)

// Report is the JSON document written next to the CIDR list.
type Report struct {
	GeneratedAt    time.Time       `json:"generated_at"`
	Countries      []string        `json:"countries"`
	RequestedTotal int             `json:"requested_total"`
	FoundTotal     int             `json:"found_total"`
	Distribution   map[string]int  `json:"distribution"`
	PerCountry     []CountryReport `json:"per_country"`
}

type CountryReport struct {
	Country    string            `json:"country"`
	Target     int               `json:"target"`
	Found      int               `json:"found"`
	Candidates []CandidateReport `json:"candidates"`
}

type CandidateReport struct {
	CIDR         string  `json:"cidr"`
	OperatorID   string  `json:"operator_id"`
	ProbeAddress string  `json:"probe_address"`
	Score        float64 `json:"score"`
	Blacklisted  bool    `json:"blacklisted"`
	GeoCountry   string  `json:"geo_country,omitempty"`
}

// WriteCIDRList writes one CIDR per line in request order.
func WriteCIDRList(path string, result *pipeline.Result) error {
	var sb strings.Builder
	for _, candidate := range result.Candidates() {
		sb.WriteString(candidate.CIDR)
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("export: write cidr list: %w", err)
	}

	return nil
}

// WriteReport writes the JSON report for a finished run.
func WriteReport(path string, result *pipeline.Result, now time.Time) error {
	report := BuildReport(result, now)

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal report: %w", err)
	}

	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("export: write report: %w", err)
	}

	return nil
}

// BuildReport converts a pipeline result into the report document.
func BuildReport(result *pipeline.Result, now time.Time) Report {
	report := Report{
		GeneratedAt:    now.UTC(),
		Countries:      result.Countries,
		RequestedTotal: result.RequestedTotal,
		FoundTotal:     result.FoundTotal,
		Distribution:   make(map[string]int, len(result.Quotas)),
	}

	for _, q := range result.Quotas {
		report.Distribution[q.Country] = q.Target
	}

	for _, country := range result.PerCountry {
		entry := CountryReport{
			Country:    country.Country,
			Target:     country.Target,
			Found:      len(country.Candidates),
			Candidates: make([]CandidateReport, 0, len(country.Candidates)),
		}

		for _, candidate := range country.Candidates {
			entry.Candidates = append(entry.Candidates, CandidateReport{
				CIDR:         candidate.CIDR,
				OperatorID:   candidate.OperatorID,
				ProbeAddress: candidate.ProbeAddress,
				Score:        candidate.Score.Value,
				Blacklisted:  candidate.Score.Blacklisted,
				GeoCountry:   candidate.GeoCountry,
			})
		}

		report.PerCountry = append(report.PerCountry, entry)
	}

	return report
}
