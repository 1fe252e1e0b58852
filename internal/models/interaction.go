package models

import "time"

// InteractionKind tells a view from a like.
type InteractionKind string

const (
	KindView InteractionKind = "VIEW"
	KindLike InteractionKind = "LIKE"
)

// Valid reports whether k is one of the known kinds.
func (k InteractionKind) Valid() bool {
	return k == KindView || k == KindLike
}

// Interaction represents one accepted visitor action against a project slug.
// Rows are append-only: never updated, never deleted.
type Interaction struct {
	ID uint `gorm:"primaryKey"`

	// VisitorKey is the coarse dedup key derived from network headers ("unknown" when absent)
	VisitorKey string `gorm:"size:255;not null;index:idx_interactions_lookup,priority:1;uniqueIndex:idx_interactions_once,priority:1"`

	SubjectSlug string `gorm:"size:128;not null;index:idx_interactions_lookup,priority:2;uniqueIndex:idx_interactions_once,priority:2"`

	Kind InteractionKind `gorm:"size:8;not null;index:idx_interactions_lookup,priority:3"`

	// OnceKind mirrors Kind for interactions that may happen at most once per
	// visitor and slug (likes) and stays NULL otherwise. NULLs never collide in
	// a unique index, so the store enforces LIKE uniqueness while VIEW rows repeat.
	OnceKind *InteractionKind `gorm:"size:8;uniqueIndex:idx_interactions_once,priority:3"`

	OccurredAt time.Time `gorm:"not null"`
}

// NewInteraction builds a log row for kind, filling OnceKind for likes.
func NewInteraction(visitorKey, slug string, kind InteractionKind, at time.Time) *Interaction {
	i := &Interaction{
		VisitorKey:  visitorKey,
		SubjectSlug: slug,
		Kind:        kind,
		OccurredAt:  at.UTC(),
	}
	if kind == KindLike {
		once := kind
		i.OnceKind = &once
	}
	return i
}

// InteractionTally is the number of log rows of one kind for one slug.
type InteractionTally struct {
	SubjectSlug string
	Kind        InteractionKind
	Total       int64
}
