package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/user/life-rpg/internal/interfaces"
	"github.com/user/life-rpg/internal/types"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// userDocument is one user's snapshot, stored as two JSON columns.
type userDocument struct {
	UserID    string         `gorm:"primaryKey;column:user_id"`
	Profile   datatypes.JSON `gorm:"column:profile"`
	State     datatypes.JSON `gorm:"column:state"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (userDocument) TableName() string { return "user_documents" }

// DocumentStore is the remote persistence backed by a SQLite document table
type DocumentStore struct {
	db     *gorm.DB
	Logger *zap.Logger
}

var _ interfaces.Persistence = (*DocumentStore)(nil)

// OpenDocumentStore opens (creating if needed) the SQLite file at path
func OpenDocumentStore(path string, logger *zap.Logger) (*DocumentStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}
	if err := db.AutoMigrate(&userDocument{}); err != nil {
		return nil, fmt.Errorf("failed to migrate document store: %w", err)
	}

	return &DocumentStore{db: db, Logger: logger}, nil
}

// Save upserts the user's snapshot
func (s *DocumentStore) Save(ctx context.Context, userID string, snap types.Snapshot) error {
	profile, err := json.Marshal(snap.Profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	state, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	doc := userDocument{
		UserID:    userID,
		Profile:   datatypes.JSON(profile),
		State:     datatypes.JSON(state),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Save(&doc).Error; err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	s.Logger.Debug("Document saved", zap.String("user_id", userID))
	return nil
}

// Load returns the user's snapshot or interfaces.ErrNotFound
func (s *DocumentStore) Load(ctx context.Context, userID string) (types.Snapshot, error) {
	var doc userDocument
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.Snapshot{}, interfaces.ErrNotFound
	}
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("failed to load document: %w", err)
	}

	var snap types.Snapshot
	if len(doc.Profile) > 0 {
		if err := json.Unmarshal(doc.Profile, &snap.Profile); err != nil {
			return types.Snapshot{}, fmt.Errorf("failed to parse profile: %w", err)
		}
	}
	if len(doc.State) > 0 {
		if err := json.Unmarshal(doc.State, &snap.State); err != nil {
			return types.Snapshot{}, fmt.Errorf("failed to parse game state: %w", err)
		}
	}
	return snap, nil
}

// Close releases the underlying connection
func (s *DocumentStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
