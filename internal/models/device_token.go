package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
)

type DeviceToken struct {
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Token     string    `db:"token" json:"token"`
	Platform  string    `db:"platform" json:"platform"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
