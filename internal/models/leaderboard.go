package models

import (
	"time"

	"github.com/google/uuid"
)

type LeaderboardEntry struct {
	Position      int       `db:"-" json:"position"`
	UserID        uuid.UUID `db:"id" json:"userId"`
	Name          string    `db:"name" json:"name"`
	SecurityScore int       `db:"security_score" json:"securityScore"`
	Rank          int       `db:"rank" json:"rank"`
	CreatedAt     time.Time `db:"created_at" json:"-"`
}
