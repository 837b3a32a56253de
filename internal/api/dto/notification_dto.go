package dto

import (
	"time"

	"github.com/assetdesk/problem-report-service/internal/domain"
)

// NotificationResponse is the wire form of a notification row.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Message   string                  `json:"message"`
	RelatedID *string                 `json:"relatedId"`
	IsRead    bool                    `json:"isRead"`
	CreatedAt time.Time               `json:"createdAt"`
}
