package repository

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	synclogDomain "github.com/hartley-studio/service-billing/internal/domain/synclog"
)

// GormSyncLogRepository implements synclog.Repository using GORM. Entries are
// only ever inserted; there is no update path.
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GORM-based sync log repository.
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Append inserts one audit entry.
func (r *GormSyncLogRepository) Append(ctx context.Context, e *synclogDomain.Entry) error {
	var payload []byte
	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return err
		}
		payload = raw
	}

	model := SyncLogModel{
		ID:           e.ID,
		Provider:     e.Provider,
		Direction:    e.Direction,
		Status:       string(e.Status),
		EntityType:   e.EntityType,
		EntityID:     e.EntityID,
		RemoteID:     e.RemoteID,
		Kind:         string(e.Kind),
		Message:      e.Message,
		Payload:      payload,
		ErrorMessage: e.ErrorMessage,
		CreatedAt:    e.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// ListRecent returns entries newest first with pagination (admin).
func (r *GormSyncLogRepository) ListRecent(ctx context.Context, page, limit int) ([]*synclogDomain.Entry, int64, error) {
	var total int64
	r.db.WithContext(ctx).Model(&SyncLogModel{}).Count(&total)

	var models []SyncLogModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]*synclogDomain.Entry, len(models))
	for i, m := range models {
		var payload json.RawMessage
		if len(m.Payload) > 0 {
			payload = json.RawMessage(m.Payload)
		}
		entries[i] = &synclogDomain.Entry{
			ID:           m.ID,
			Provider:     m.Provider,
			Direction:    m.Direction,
			Status:       synclogDomain.Status(m.Status),
			EntityType:   m.EntityType,
			EntityID:     m.EntityID,
			RemoteID:     m.RemoteID,
			Kind:         synclogDomain.Kind(m.Kind),
			Message:      m.Message,
			Payload:      payload,
			ErrorMessage: m.ErrorMessage,
			CreatedAt:    m.CreatedAt,
		}
	}
	return entries, total, nil
}
