package store

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"xui-keys-bot/internal/models"
)

// GetSetting returns a stored setting and whether it exists
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).First(&setting, "name = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storeErr("get setting", err)
	}
	return setting.Value, true, nil
}

// SetSetting creates or overwrites a setting
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Name: key, Value: value}).Error
	return storeErr("set setting", err)
}

// Maintenance reports whether maintenance mode is on. Read errors count as off.
func (s *Store) Maintenance(ctx context.Context) bool {
	value, ok, err := s.GetSetting(ctx, models.SettingMaintenance)
	if err != nil {
		s.logger.Warnf("Failed to read maintenance flag: %v", err)
		return false
	}
	if !ok {
		return false
	}
	on, _ := strconv.ParseBool(value)
	return on
}

// SetMaintenance switches maintenance mode
func (s *Store) SetMaintenance(ctx context.Context, on bool) error {
	return s.SetSetting(ctx, models.SettingMaintenance, strconv.FormatBool(on))
}
