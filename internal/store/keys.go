package store

import (
	"context"

	"xui-keys-bot/internal/models"
)

// AddKey records an issued credential
func (s *Store) AddKey(ctx context.Context, key *models.Key) error {
	return storeErr("add key", s.db.WithContext(ctx).Create(key).Error)
}

// Keys returns the user's keys, most recent first
func (s *Store) Keys(ctx context.Context, tgID int64) ([]models.Key, error) {
	var keys []models.Key
	err := s.db.WithContext(ctx).
		Where("tg_id = ?", tgID).
		Order("created_at DESC").
		Find(&keys).Error
	if err != nil {
		return nil, storeErr("list keys", err)
	}
	return keys, nil
}

// DeleteKey removes a key record; deleting a missing key is not an error
func (s *Store) DeleteKey(ctx context.Context, uuid string) error {
	return storeErr("delete key", s.db.WithContext(ctx).Delete(&models.Key{}, "uuid = ?", uuid).Error)
}
