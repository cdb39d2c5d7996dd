// Package store persists assessments in a SQL database through gorm.
// SQLite paths and postgres:// URLs are both accepted.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

// ErrNotFound is returned when no assessment has the requested id
var ErrNotFound = errors.New("assessment not found")

// DefaultListLimit caps List when no limit is given
const DefaultListLimit = 50

type assessmentRecord struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Vendor       string    `gorm:"size:255;index"`
	CreatedAt    time.Time `gorm:"index"`
	OverallScore int
	OverallLevel string `gorm:"size:16;index"`
	Coverage     float64
	Backend      string `gorm:"size:32"`
	DurationMS   int64
	Payload      []byte
}

func (assessmentRecord) TableName() string {
	return "assessments"
}

// ListOptions filters and pages List
type ListOptions struct {
	Vendor string
	Level  model.RiskLevel
	Limit  int
	Offset int
}

// Store reads and writes assessments
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to dsn and migrates the schema
func Open(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("store: empty dsn")
	}

	db, err := gorm.Open(dialector(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if isMemory(dsn) {
		// every connection to :memory: is a separate database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&assessmentRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, logger: slog.Default()}, nil
}

func dialector(dsn string) gorm.Dialector {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") || strings.HasPrefix(lower, "host=") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") && !strings.Contains(dsn, "cache=shared")
}

// SetLogger replaces the logger
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Save inserts or replaces an assessment
func (s *Store) Save(ctx context.Context, a *model.Assessment) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("%w: assessment without id", model.ErrInvalidInput)
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}

	rec := assessmentRecord{
		ID:         a.ID,
		Vendor:     a.Vendor,
		CreatedAt:  a.CreatedAt,
		Backend:    a.Backend,
		DurationMS: a.Duration.Milliseconds(),
		Payload:    payload,
	}
	if a.Report != nil {
		rec.OverallScore = a.Report.OverallScore
		rec.OverallLevel = string(a.Report.OverallLevel)
		rec.Coverage = a.Report.Coverage
	}

	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("save assessment %s: %w", a.ID, err)
	}
	s.logger.Debug("stored assessment", "id", a.ID, "vendor", a.Vendor)
	return nil
}

// Get loads a full assessment by id
func (s *Store) Get(ctx context.Context, id string) (*model.Assessment, error) {
	var rec assessmentRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load assessment %s: %w", id, err)
	}

	var a model.Assessment
	if err := json.Unmarshal(rec.Payload, &a); err != nil {
		return nil, fmt.Errorf("decode assessment %s: %w", id, err)
	}
	return &a, nil
}

// List returns summaries, newest first
func (s *Store) List(ctx context.Context, opts ListOptions) ([]model.AssessmentSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	q := s.db.WithContext(ctx).
		Model(&assessmentRecord{}).
		Select("id", "vendor", "created_at", "overall_score", "overall_level", "coverage")
	if opts.Vendor != "" {
		q = q.Where("vendor = ?", opts.Vendor)
	}
	if opts.Level != "" {
		q = q.Where("overall_level = ?", string(opts.Level))
	}

	var recs []assessmentRecord
	if err := q.Order("created_at DESC").Order("id").Limit(limit).Offset(opts.Offset).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}

	out := make([]model.AssessmentSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, model.AssessmentSummary{
			ID:           rec.ID,
			Vendor:       rec.Vendor,
			CreatedAt:    rec.CreatedAt,
			OverallScore: rec.OverallScore,
			OverallLevel: model.RiskLevel(rec.OverallLevel),
			Coverage:     rec.Coverage,
		})
	}
	return out, nil
}

// Delete removes an assessment
func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&assessmentRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete assessment %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close releases the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
