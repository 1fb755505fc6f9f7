package domain

import "time"

// DiscoveryRun is one execution of the pipeline, persisted for history.
type DiscoveryRun struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	RequestedTotal int       `gorm:"not null"`
	FoundTotal     int       `gorm:"not null"`
	Countries      string    `gorm:"size:256;not null"`
	StartedAt      time.Time `gorm:"autoCreateTime"`

	Candidates []CandidateRecord `gorm:"foreignKey:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// CandidateRecord is one scored candidate within a run.
type CandidateRecord struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	RunID        uint64  `gorm:"not null;index"`
	CIDR         string  `gorm:"size:43;not null"`
	OperatorID   string  `gorm:"size:32;not null"`
	Country      string  `gorm:"size:2;not null;index"`
	ProbeAddress string  `gorm:"size:15;not null"`
	Score        float64 `gorm:"type:numeric(5,2);not null"`
	Blacklisted  bool    `gorm:"not null"`
	GeoCountry   string  `gorm:"size:2"`
	CreatedAt    time.Time
}
