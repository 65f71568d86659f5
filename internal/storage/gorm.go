package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Entry struct {
	VisitorID string    `gorm:"primaryKey;size:64" json:"visitor_id"`
	Key       string    `gorm:"primaryKey;column:item_key;size:64" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Entry) TableName() string { return "visitor_storage" }

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Migrate(ctx context.Context) error {
	return s.DB.WithContext(ctx).AutoMigrate(&Entry{})
}

func (s *GormStore) Scope(visitorID string) Storage {
	return &gormScope{db: s.DB, visitorID: visitorID}
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormScope struct {
	db        *gorm.DB
	visitorID string
}

func (s *gormScope) where(ctx context.Context, key string) *gorm.DB {
	return s.db.WithContext(ctx).Where("visitor_id = ? AND item_key = ?", s.visitorID, key)
}

func (s *gormScope) GetItem(ctx context.Context, key string) (string, bool, error) {
	var e Entry
	res := s.where(ctx, key).Limit(1).Find(&e)
	if res.Error != nil {
		return "", false, fmt.Errorf("get %q: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return "", false, nil
	}
	return e.Value, true, nil
}

func (s *gormScope) SetItem(ctx context.Context, key, value string) error {
	e := Entry{
		VisitorID: s.visitorID,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "visitor_id"}, {Name: "item_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *gormScope) RemoveItem(ctx context.Context, key string) error {
	if err := s.where(ctx, key).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}
