package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// snapshotRowID is the primary key of the single stored pet snapshot.
const snapshotRowID = 1

var (
	_ ports.SnapshotStore   = (*SQLiteAdapter)(nil)
	_ ports.EventRepository = (*SQLiteAdapter)(nil)
)

// SQLiteAdapter stores the pet snapshot, the event archive and the audit
// trail using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// PetStateModel is the GORM model for the pet snapshot.
type PetStateModel struct {
	ID             uint `gorm:"primaryKey"`
	Health         float64
	EvolutionStage int
	Points         int
	Streak         int
	UpdatedAt      time.Time
}

// SnapshotEventModel holds the bounded history that belongs to the snapshot.
type SnapshotEventModel struct {
	Seq       int    `gorm:"primaryKey"`
	EventID   string `gorm:"index"`
	Kind      string
	Category  string
	Severity  int
	Effect    float64
	Timestamp time.Time
}

// ArchivedEventModel is the unbounded event archive.
type ArchivedEventModel struct {
	ID        string `gorm:"primaryKey"`
	Kind      string `gorm:"index"`
	Category  string
	Severity  int
	Effect    float64
	Timestamp time.Time `gorm:"index"`
}

// AuditLogModel is the GORM model for audit entries.
type AuditLogModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	Username  string
	Action    string `gorm:"index"`
	Target    string
	Details   string
	IPAddress string
	Timestamp time.Time `gorm:"index"`
}

// NewSQLiteAdapter opens the database at path and migrates the schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("install tracing plugin: %w", err)
	}

	// SQLite serializes writers anyway; one connection also keeps
	// ":memory:" databases shared across queries.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&PetStateModel{}, &SnapshotEventModel{}, &ArchivedEventModel{}, &AuditLogModel{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteAdapter{db: db}, nil
}

// Save replaces the stored snapshot and its history in one transaction.
func (a *SQLiteAdapter) Save(ctx context.Context, state domain.PetState) error {
	model, events := toStateModel(state)

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&model).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&SnapshotEventModel{}).Error; err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		return tx.CreateInBatches(events, 100).Error
	})
}

// Load returns the stored snapshot, or nil when none has been saved.
func (a *SQLiteAdapter) Load(ctx context.Context) (*domain.PetState, error) {
	db := a.db.WithContext(ctx)

	var model PetStateModel
	if err := db.First(&model, snapshotRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var events []SnapshotEventModel
	if err := db.Order("seq asc").Find(&events).Error; err != nil {
		return nil, err
	}

	state := toStateDomain(model, events)
	return &state, nil
}

// SaveEventsBatch archives events; already-archived IDs are ignored.
func (a *SQLiteAdapter) SaveEventsBatch(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	models := make([]ArchivedEventModel, len(events))
	for i, e := range events {
		models[i] = toArchivedModel(e)
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(models, 100).Error
	})
}

// ListEvents returns up to limit archived events, newest first.
func (a *SQLiteAdapter) ListEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	var models []ArchivedEventModel
	if err := a.db.WithContext(ctx).Order("timestamp desc").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	events := make([]domain.Event, len(models))
	for i, m := range models {
		events[i] = toEventDomain(m)
	}
	return events, nil
}

// Close closes the underlying database connection.
func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
