package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	kindJurisdiction = "jurisdiction"
	kindCategory     = "category"
)

// Record is one persisted preference blob per (user, kind).
type Record struct {
	UserID    uint64    `gorm:"primaryKey;autoIncrement:false"`
	Kind      string    `gorm:"primaryKey;type:varchar(16)"`
	Blob      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (Record) TableName() string { return "user_preferences" }

type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

func (s *Store) SetJurisdiction(ctx context.Context, userID uint64, j Jurisdiction) error {
	j.SchemaVersion = SchemaVersion
	return s.put(ctx, userID, kindJurisdiction, j)
}

// GetJurisdiction returns the zero value when nothing usable is stored;
// corrupt blobs are discarded, never surfaced.
func (s *Store) GetJurisdiction(ctx context.Context, userID uint64) (Jurisdiction, error) {
	var j Jurisdiction
	ok, err := s.get(ctx, userID, kindJurisdiction, &j)
	if err != nil || !ok {
		return Jurisdiction{}, err
	}
	if j.SchemaVersion != SchemaVersion {
		s.logger.Warn("discarding preference blob with unknown schema version",
			zap.Uint64("user_id", userID),
			zap.Int("version", j.SchemaVersion))
		return Jurisdiction{}, nil
	}
	return j, nil
}

func (s *Store) SetCategory(ctx context.Context, userID uint64, c CategorySelection) error {
	c.SchemaVersion = SchemaVersion
	return s.put(ctx, userID, kindCategory, c)
}

func (s *Store) GetCategory(ctx context.Context, userID uint64) (CategorySelection, error) {
	var c CategorySelection
	ok, err := s.get(ctx, userID, kindCategory, &c)
	if err != nil || !ok {
		return CategorySelection{}, err
	}
	if c.SchemaVersion != SchemaVersion {
		return CategorySelection{}, nil
	}
	return c, nil
}

// Clear removes both blobs; the next read re-onboards.
func (s *Store) Clear(ctx context.Context, userID uint64) error {
	return s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&Record{}).Error
}

func (s *Store) put(ctx context.Context, userID uint64, kind string, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return err
	}
	rec := Record{UserID: userID, Kind: kind, Blob: string(blob)}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"blob", "updated_at"}),
		}).
		Create(&rec).Error
}

// get reports (false, nil) both when no row exists and when the stored
// blob cannot be decoded.
func (s *Store) get(ctx context.Context, userID uint64, kind string, out any) (bool, error) {
	var rec Record
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, kind).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(rec.Blob), out); err != nil {
		s.logger.Warn("discarding corrupt preference blob",
			zap.Uint64("user_id", userID),
			zap.String("kind", kind),
			zap.Error(err))
		return false, nil
	}
	return true, nil
}
