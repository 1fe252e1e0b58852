package models

import "time"

// Metric is the materialised aggregate of a project's interactions.
type Metric struct {
	SubjectSlug string    `gorm:"primaryKey;size:128"`
	ViewCount   int64     `gorm:"not null;default:0"`
	LikeCount   int64     `gorm:"not null;default:0"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Counts is the read model served to callers: {views, likes}.
type Counts struct {
	Views int64 `json:"views"`
	Likes int64 `json:"likes"`
}

// Counts returns the pair of counters, zero for a nil aggregate.
func (m *Metric) Counts() Counts {
	if m == nil {
		return Counts{}
	}
	return Counts{Views: m.ViewCount, Likes: m.LikeCount}
}
