package dto

import (
	"time"

	"github.com/noah-isme/sala-api/internal/models"
)

// AdminActivityListRequest defines filters for retrieving activity logs.
type AdminActivityListRequest struct {
	Page       int
	PageSize   int
	ActorID    uint
	Action     string
	EntityType string
	EntityID   uint
	// From and To are calendar days; To is inclusive.
	From *time.Time
	To   *time.Time
}

// AdminActivityResponse serializes activity log entries.
type AdminActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actorId"`
	ActorRole  string                 `json:"actorRole"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entityType"`
	EntityID   *uint                  `json:"entityId"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// AdminActivityListResponse wraps paginated activity logs.
type AdminActivityListResponse struct {
	Items      []AdminActivityResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

// NewAdminActivityResponse converts the activity model into a DTO.
func NewAdminActivityResponse(model models.ActivityLog) AdminActivityResponse {
	metadata := make(map[string]interface{}, len(model.Metadata))
	for key, value := range model.Metadata {
		metadata[key] = value
	}

	return AdminActivityResponse{
		ID:         model.ID,
		ActorID:    model.ActorID,
		ActorRole:  model.ActorRole,
		Action:     model.Action,
		EntityType: model.EntityType,
		EntityID:   model.EntityID,
		Metadata:   metadata,
		CreatedAt:  model.CreatedAt,
	}
}

// UploadResponse describes the stored file returned to the client.
type UploadResponse struct {
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	SizeBytes int64  `json:"sizeBytes"`
	MimeType  string `json:"mimeType"`
	Checksum  string `json:"checksum"`
	// Reused is set when identical content was already stored.
	Reused bool `json:"reused"`
}

// Event is an invalidation notice pushed to dashboard clients.
type Event struct {
	ID    string    `json:"id"`
	Topic string    `json:"topic"`
	At    time.Time `json:"at"`
}
