package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/axellelanca/portfolio/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetricRepository est une interface qui définit les méthodes d'accès aux agrégats
type MetricRepository interface {
	FindBySlug(ctx context.Context, slug string) (*models.Metric, error)
	ListMetrics(ctx context.Context) ([]models.Metric, error)
	RecordInteraction(ctx context.Context, interaction *models.Interaction) (*models.Metric, bool, error)
	Snapshot(ctx context.Context) (*AuditSnapshot, error)
	RepairFromLog(ctx context.Context, slug string) (*models.Metric, error)
}

// AuditSnapshot est une lecture cohérente du journal et des agrégats,
// prise dans une seule transaction.
type AuditSnapshot struct {
	Tallies []models.InteractionTally
	Metrics []models.Metric
}

// GormMetricRepository est l'implémentation de MetricRepository utilisant GORM.
type GormMetricRepository struct {
	db *gorm.DB
}

// NewMetricRepository crée et retourne une nouvelle instance de GormMetricRepository.
func NewMetricRepository(db *gorm.DB) *GormMetricRepository {
	return &GormMetricRepository{db: db}
}

// FindBySlug récupère l'agrégat d'un slug, ou nil s'il n'existe pas encore.
func (r *GormMetricRepository) FindBySlug(ctx context.Context, slug string) (*models.Metric, error) {
	metric, err := findMetric(r.db.WithContext(ctx), slug)
	if err != nil {
		return nil, fmt.Errorf("failed to find metric for %s: %w", slug, err)
	}
	return metric, nil
}

// ListMetrics récupère tous les agrégats.
func (r *GormMetricRepository) ListMetrics(ctx context.Context) ([]models.Metric, error) {
	var metrics []models.Metric
	if err := r.db.WithContext(ctx).Order("subject_slug ASC").Find(&metrics).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve all metrics: %w", err)
	}
	return metrics, nil
}

// RecordInteraction ajoute l'interaction au journal et incrémente le compteur
// correspondant dans la même transaction. Le booléen est faux quand l'index
// unique a rejeté la ligne (like déjà enregistré) : rien n'est incrémenté et
// l'agrégat courant est retourné.
func (r *GormMetricRepository) RecordInteraction(ctx context.Context, interaction *models.Interaction) (*models.Metric, bool, error) {
	if !interaction.Kind.Valid() {
		return nil, false, fmt.Errorf("unknown interaction kind %q", interaction.Kind)
	}

	var (
		metric   *models.Metric
		accepted bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(interaction)
		switch {
		case res.Error == nil:
			accepted = res.RowsAffected > 0
		case IsUniqueViolation(res.Error):
			accepted = false
		default:
			return fmt.Errorf("failed to insert %s interaction: %w", interaction.Kind, res.Error)
		}

		if accepted {
			if err := incrementMetric(tx, interaction.SubjectSlug, interaction.Kind); err != nil {
				return err
			}
		}

		var err error
		metric, err = findMetric(tx, interaction.SubjectSlug)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to record interaction for %s: %w", interaction.SubjectSlug, err)
	}

	if metric == nil {
		metric = &models.Metric{SubjectSlug: interaction.SubjectSlug}
	}
	return metric, accepted, nil
}

// Snapshot lit le décompte du journal et les agrégats dans une même
// transaction de lecture, pour que l'audit compare deux vues du même état.
func (r *GormMetricRepository) Snapshot(ctx context.Context) (*AuditSnapshot, error) {
	snapshot := &AuditSnapshot{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if snapshot.Tallies, err = tallyBySlug(tx); err != nil {
			return err
		}
		return tx.Order("subject_slug ASC").Find(&snapshot.Metrics).Error
	}, snapshotTxOptions(r.db)...)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit snapshot: %w", err)
	}
	return snapshot, nil
}

// RepairFromLog recalcule les compteurs d'un slug à partir du journal, dans
// la base et en une seule instruction : un incrément accepté pendant l'audit
// n'est jamais écrasé.
func (r *GormMetricRepository) RepairFromLog(ctx context.Context, slug string) (*models.Metric, error) {
	var metric *models.Metric
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// La ligne doit exister pour que l'UPDATE la recalcule
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Metric{SubjectSlug: slug}).Error; err != nil {
			return err
		}

		countLog := func(kind models.InteractionKind) *gorm.DB {
			return tx.Session(&gorm.Session{NewDB: true}).
				Model(&models.Interaction{}).
				Select("COUNT(*)").
				Where("subject_slug = ? AND kind = ?", slug, kind)
		}
		err := tx.Model(&models.Metric{}).
			Where("subject_slug = ?", slug).
			UpdateColumns(map[string]any{
				"view_count": countLog(models.KindView),
				"like_count": countLog(models.KindLike),
				"updated_at": time.Now().UTC(),
			}).Error
		if err != nil {
			return err
		}

		metric, err = findMetric(tx, slug)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to repair metric for %s: %w", slug, err)
	}
	return metric, nil
}

// snapshotTxOptions demande un instantané cohérent à MySQL. SQLite garde son
// verrou partagé jusqu'au commit, la transaction par défaut suffit.
func snapshotTxOptions(db *gorm.DB) []*sql.TxOptions {
	if db.Dialector.Name() == "mysql" {
		return []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead, ReadOnly: true}}
	}
	return nil
}

// incrementMetric crée ou met à jour la ligne d'agrégat ; l'ajout de un au
// compteur se fait dans la base, jamais en Go.
func incrementMetric(tx *gorm.DB, slug string, kind models.InteractionKind) error {
	column := "view_count"
	initial := models.Metric{SubjectSlug: slug, ViewCount: 1}
	if kind == models.KindLike {
		column = "like_count"
		initial = models.Metric{SubjectSlug: slug, LikeCount: 1}
	}

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject_slug"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: column}, Value: gorm.Expr(column + " + ?", 1)},
			{Column: clause.Column{Name: "updated_at"}, Value: time.Now().UTC()},
		},
	}).Create(&initial).Error
	if err != nil {
		return fmt.Errorf("failed to increment %s for %s: %w", column, slug, err)
	}
	return nil
}

func findMetric(db *gorm.DB, slug string) (*models.Metric, error) {
	var metric models.Metric
	if err := db.Where("subject_slug = ?", slug).Take(&metric).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &metric, nil
}
