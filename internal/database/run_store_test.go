package database

import (
	"fmt"
	"testing"

	"cidrscout/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRunStoreTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.DiscoveryRun{},
		&domain.CandidateRecord{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	DB = db

	t.Cleanup(func() {
		DB = nil
	})

	return db
}

func scored(cidr, operator, country, ip string, value float64, blacklisted bool) domain.ScoredCandidate {
	return domain.ScoredCandidate{
		Candidate: domain.Candidate{
			CIDR:       cidr,
			OperatorID: operator,
			Country:    country,
		},
		ProbeAddress: ip,
		Score:        domain.AggregateScore{Value: value, Blacklisted: blacklisted},
	}
}

func TestSaveRunPersistsHeaderAndCandidates(t *testing.T) {
	db := setupRunStoreTestDB(t)
	store := NewRunStore(db)

	candidates := []domain.ScoredCandidate{
		scored("203.0.113.0/24", "AS7922", "US", "203.0.113.120", 5, false),
		scored("198.51.100.0/22", "AS7018", "US", "198.51.100.200", 80, true),
	}

	runID, err := store.SaveRun(10, []string{"US", "DE"}, candidates)
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if runID == 0 {
		t.Fatalf("SaveRun() returned zero run id")
	}

	var run domain.DiscoveryRun
	if err := db.First(&run, runID).Error; err != nil {
		t.Fatalf("load run: %v", err)
	}

	if run.RequestedTotal != 10 {
		t.Fatalf("RequestedTotal = %d, want %d", run.RequestedTotal, 10)
	}
	if run.FoundTotal != 2 {
		t.Fatalf("FoundTotal = %d, want %d", run.FoundTotal, 2)
	}
	if run.Countries != "US,DE" {
		t.Fatalf("Countries = %q, want %q", run.Countries, "US,DE")
	}

	records, err := store.RunCandidates(runID)
	if err != nil {
		t.Fatalf("RunCandidates() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("RunCandidates() returned %d records, want %d", len(records), 2)
	}

	if records[0].CIDR != "203.0.113.0/24" || records[1].CIDR != "198.51.100.0/22" {
		t.Fatalf("candidates not ordered by score: %q, %q", records[0].CIDR, records[1].CIDR)
	}
	if !records[1].Blacklisted {
		t.Fatalf("second record should keep its blacklist flag")
	}
}

func TestSaveRunEmptyCandidates(t *testing.T) {
	db := setupRunStoreTestDB(t)
	store := NewRunStore(db)

	runID, err := store.SaveRun(5, []string{"GB"}, nil)
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	var run domain.DiscoveryRun
	if err := db.First(&run, runID).Error; err != nil {
		t.Fatalf("load run: %v", err)
	}
	if run.FoundTotal != 0 {
		t.Fatalf("FoundTotal = %d, want 0", run.FoundTotal)
	}
}

func TestRecentRunsNewestFirst(t *testing.T) {
	db := setupRunStoreTestDB(t)
	store := NewRunStore(db)

	for i := 0; i < 3; i++ {
		if _, err := store.SaveRun(i+1, []string{"US"}, nil); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}

	runs, err := store.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("RecentRuns() returned %d runs, want 2", len(runs))
	}
	if runs[0].ID < runs[1].ID {
		t.Fatalf("runs not newest-first: %d before %d", runs[0].ID, runs[1].ID)
	}
}
