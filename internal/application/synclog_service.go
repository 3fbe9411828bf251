package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hartley-studio/service-billing/internal/domain/synclog"
)

// SyncLogEntryDTO is the outward representation of one audit entry. Payload
// is passed through as raw JSON; its shape depends on the entry kind.
type SyncLogEntryDTO struct {
	ID           uuid.UUID       `json:"id"`
	Provider     string          `json:"provider"`
	Direction    string          `json:"direction"`
	Status       string          `json:"status"`
	EntityType   string          `json:"entity_type"`
	EntityID     string          `json:"entity_id"`
	RemoteID     string          `json:"remote_id,omitempty"`
	Kind         string          `json:"kind"`
	Message      string          `json:"message,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SyncLogService exposes the reconciliation audit trail to operators.
type SyncLogService struct {
	entries synclog.Repository
}

// NewSyncLogService creates a new SyncLogService.
func NewSyncLogService(entries synclog.Repository) *SyncLogService {
	return &SyncLogService{entries: entries}
}

// ListSyncLog returns entries newest first, paginated.
func (s *SyncLogService) ListSyncLog(ctx context.Context, page, limit int) ([]SyncLogEntryDTO, int64, error) {
	entries, total, err := s.entries.ListRecent(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]SyncLogEntryDTO, 0, len(entries))
	for _, e := range entries {
		dto := SyncLogEntryDTO{
			ID:           e.ID,
			Provider:     e.Provider,
			Direction:    e.Direction,
			Status:       string(e.Status),
			EntityType:   e.EntityType,
			EntityID:     e.EntityID,
			RemoteID:     e.RemoteID,
			Kind:         string(e.Kind),
			Message:      e.Message,
			ErrorMessage: e.ErrorMessage,
			CreatedAt:    e.CreatedAt,
		}
		switch p := e.Payload.(type) {
		case json.RawMessage:
			dto.Payload = p
		case []byte:
			dto.Payload = p
		case nil:
		default:
			if raw, err := json.Marshal(p); err == nil {
				dto.Payload = raw
			}
		}
		dtos = append(dtos, dto)
	}
	return dtos, total, nil
}
