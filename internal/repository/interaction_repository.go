package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/axellelanca/portfolio/internal/models"
	"gorm.io/gorm"
)

// InteractionRepository est une interface qui définit les lectures du journal d'interactions
type InteractionRepository interface {
	LatestInteraction(ctx context.Context, visitorKey, slug string, kind models.InteractionKind) (*models.Interaction, error)
	HasInteraction(ctx context.Context, visitorKey, slug string, kind models.InteractionKind) (bool, error)
}

// GormInteractionRepository est l'implémentation de InteractionRepository utilisant GORM.
type GormInteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository crée et retourne une nouvelle instance de GormInteractionRepository.
func NewInteractionRepository(db *gorm.DB) *GormInteractionRepository {
	return &GormInteractionRepository{db: db}
}

// LatestInteraction retourne la dernière interaction du visiteur sur le slug, ou nil s'il n'y en a pas.
// Le journal est en ajout seul : l'id le plus élevé est le plus récent.
func (r *GormInteractionRepository) LatestInteraction(ctx context.Context, visitorKey, slug string, kind models.InteractionKind) (*models.Interaction, error) {
	var interaction models.Interaction
	err := r.db.WithContext(ctx).
		Where("visitor_key = ? AND subject_slug = ? AND kind = ?", visitorKey, slug, kind).
		Order("id DESC").
		Take(&interaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find latest %s interaction for %s: %w", kind, slug, err)
	}
	return &interaction, nil
}

// HasInteraction indique si le visiteur a déjà une interaction de ce type sur le slug.
func (r *GormInteractionRepository) HasInteraction(ctx context.Context, visitorKey, slug string, kind models.InteractionKind) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Interaction{}).
		Where("visitor_key = ? AND subject_slug = ? AND kind = ?", visitorKey, slug, kind).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s interaction for %s: %w", kind, slug, err)
	}
	return count > 0, nil
}

// tallyBySlug compte les interactions par slug et par type.
func tallyBySlug(db *gorm.DB) ([]models.InteractionTally, error) {
	var tallies []models.InteractionTally
	err := db.Model(&models.Interaction{}).
		Select("subject_slug, kind, COUNT(*) AS total").
		Group("subject_slug, kind").
		Scan(&tallies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to tally interactions: %w", err)
	}
	return tallies, nil
}
