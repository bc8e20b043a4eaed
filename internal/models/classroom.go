package models

import (
	"time"

	"github.com/google/uuid"
)

type Classroom struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	OwnerID      uuid.UUID `db:"owner_id" json:"ownerId"`
	StudentCount int       `db:"student_count" json:"studentCount"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// ClassroomStudent is a member row joined with the public part of the user.
type ClassroomStudent struct {
	UserID        uuid.UUID `db:"user_id" json:"userId"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	SecurityScore int       `db:"security_score" json:"securityScore"`
	Rank          int       `db:"rank" json:"rank"`
	JoinedAt      time.Time `db:"joined_at" json:"joinedAt"`
}
