package repository

import (
	"context"
	"fmt"

	"github.com/axellelanca/portfolio/internal/models"
	"gorm.io/gorm"
)

// MessageRepository est une interface qui définit l'accès aux messages de contact
type MessageRepository interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	ListRecent(ctx context.Context, limit int) ([]models.Message, error)
}

// GormMessageRepository est l'implémentation de MessageRepository utilisant GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository crée et retourne une nouvelle instance de GormMessageRepository.
func NewMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// CreateMessage insère un nouveau message dans la base de données.
func (r *GormMessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListRecent récupère les derniers messages, du plus récent au plus ancien.
func (r *GormMessageRepository) ListRecent(ctx context.Context, limit int) ([]models.Message, error) {
	var messages []models.Message
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
