package models

import (
	"time"

	"github.com/google/uuid"
)

// Supported interface languages.
const (
	LanguageRU = "ru"
	LanguageEN = "en"
	LanguageKK = "kk"
)

// ValidLanguage reports whether lang is one of ru, en, kk.
func ValidLanguage(lang string) bool {
	switch lang {
	case LanguageRU, LanguageEN, LanguageKK:
		return true
	}
	return false
}

// User represents a learner, teacher or admin account.
type User struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	Email            string           `db:"email" json:"email"`
	Name             string           `db:"name" json:"name"`
	PasswordHash     string           `db:"password_hash" json:"-"`
	Role             string           `db:"role" json:"role"`
	Language         string           `db:"language" json:"language"`
	SubscriptionTier SubscriptionTier `db:"subscription_tier" json:"subscriptionTier"`
	SecurityScore    int              `db:"security_score" json:"securityScore"`
	Rank             int              `db:"rank" json:"rank"`
	HasSeenWelcome   bool             `db:"has_seen_welcome" json:"hasSeenWelcome"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updatedAt"`
}
