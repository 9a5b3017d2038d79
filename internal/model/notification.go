package model

import "time"

// Notification — one dashboard inbox entry for one user. Unlike todos,
// notifications are informational and carry no completion state beyond
// the read flag.
type Notification struct {
	NotificationID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	RecipientEmail string    `gorm:"type:varchar(255);not null"                     json:"recipient_email"`
	Kind           string    `gorm:"type:varchar(50);not null"                      json:"kind"`
	Title          string    `gorm:"type:varchar(255);not null"                     json:"title"`
	Content        string    `gorm:"type:text;not null;default:''"                  json:"content"`
	Link           string    `gorm:"type:varchar(255);not null;default:''"          json:"link"`
	IsRead         bool      `gorm:"not null;default:false"                         json:"is_read"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName maps to notifications.
func (Notification) TableName() string { return "notifications" }
