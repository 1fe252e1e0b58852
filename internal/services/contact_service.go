package services

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	apperrors "github.com/axellelanca/portfolio/internal/errors"
	"github.com/axellelanca/portfolio/internal/models"
	"github.com/axellelanca/portfolio/internal/repository"
	"github.com/axellelanca/portfolio/internal/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ContactRequest is a contact form submission. The binding tags are shared
// by gin's binder and ContactService's own validator.
type ContactRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=100"`
	Email string `json:"email" binding:"required,email"`
	Body  string `json:"body" binding:"required,min=10,max=1000"`
}

// Limiter throttles events per key.
type Limiter interface {
	Allow(key string) bool
}

// ContactService persists contact form submissions. Delivery by email is
// handled elsewhere.
type ContactService struct {
	messages repository.MessageRepository
	limiter  Limiter
	validate *validator.Validate
	timeout  time.Duration
}

// NewContactService creates a ContactService. limiter may be nil.
func NewContactService(messages repository.MessageRepository, limiter Limiter, timeout time.Duration) *ContactService {
	v := validator.New()
	v.SetTagName("binding")

	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &ContactService{
		messages: messages,
		limiter:  limiter,
		validate: v,
		timeout:  timeout,
	}
}

// Submit validates and stores req on behalf of visitorKey.
func (s *ContactService) Submit(ctx context.Context, visitorKey string, req ContactRequest) (*models.Message, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Body = strings.TrimSpace(req.Body)

	if err := s.validate.Struct(req); err != nil {
		telemetry.ContactMessagesTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidMessage, err)
	}

	// Only well-formed submissions spend the visitor's burst
	if s.limiter != nil && !s.limiter.Allow(NormalizeVisitorKey(visitorKey)) {
		telemetry.ContactMessagesTotal.WithLabelValues("throttled").Inc()
		return nil, apperrors.ErrRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	message := &models.Message{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Email: req.Email,
		Body:  req.Body,
	}
	if err := s.messages.CreateMessage(ctx, message); err != nil {
		log.ErrorContext(ctx, "Failed to store contact message", "err", err)
		telemetry.ContactMessagesTotal.WithLabelValues(telemetry.OutcomeError).Inc()
		return nil, &apperrors.StorageError{Op: "create_message", Err: err}
	}

	telemetry.ContactMessagesTotal.WithLabelValues(telemetry.OutcomeAccepted).Inc()
	log.InfoContext(ctx, "Contact message stored", "id", message.ID)
	return message, nil
}

// Recent returns the newest stored messages.
func (s *ContactService) Recent(ctx context.Context, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	messages, err := s.messages.ListRecent(ctx, limit)
	if err != nil {
		return nil, &apperrors.StorageError{Op: "list_messages", Err: err}
	}
	return messages, nil
}
