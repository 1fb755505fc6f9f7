package database

import (
	"fmt"
	"strings"

	"cidrscout/internal/domain"

	"gorm.io/gorm"
)

// RunStore persists discovery runs and their scored candidates.
type RunStore struct {
	db *gorm.DB
}

func NewRunStore(db *gorm.DB) *RunStore {
	return &RunStore{db: db}
}

// SaveRun writes the run header and its candidates in one transaction and
// returns the generated run id.
func (s *RunStore) SaveRun(requestedTotal int, countries []string, candidates []domain.ScoredCandidate) (uint64, error) {
	run := domain.DiscoveryRun{
		RequestedTotal: requestedTotal,
		FoundTotal:     len(candidates),
		Countries:      strings.Join(countries, ","),
	}

	for _, candidate := range candidates {
		run.Candidates = append(run.Candidates, domain.CandidateRecord{
			CIDR:         candidate.CIDR,
			OperatorID:   candidate.OperatorID,
			Country:      candidate.Country,
			ProbeAddress: candidate.ProbeAddress,
			Score:        candidate.Score.Value,
			Blacklisted:  candidate.Score.Blacklisted,
			GeoCountry:   candidate.GeoCountry,
		})
	}

	if err := s.db.Create(&run).Error; err != nil {
		return 0, fmt.Errorf("database: save run: %w", err)
	}

	return run.ID, nil
}

// RecentRuns returns the newest runs first, without their candidates.
func (s *RunStore) RecentRuns(limit int) ([]domain.DiscoveryRun, error) {
	if limit <= 0 {
		limit = 10
	}

	var runs []domain.DiscoveryRun
	if err := s.db.Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("database: recent runs: %w", err)
	}

	return runs, nil
}

// RunCandidates loads the candidates of one run ordered by score.
func (s *RunStore) RunCandidates(runID uint64) ([]domain.CandidateRecord, error) {
	var records []domain.CandidateRecord
	err := s.db.
		Where("run_id = ?", runID).
		Order("score ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("database: run candidates: %w", err)
	}

	return records, nil
}
