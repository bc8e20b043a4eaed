package models

import "strings"

// SubscriptionTier уровень подписки. Порядок: FREE < PRO < BUSINESS.
type SubscriptionTier string

const (
	TierFree     SubscriptionTier = "FREE"
	TierPro      SubscriptionTier = "PRO"
	TierBusiness SubscriptionTier = "BUSINESS"
)

var tierLevels = map[SubscriptionTier]int{
	TierFree:     0,
	TierPro:      1,
	TierBusiness: 2,
}

// Level returns the position of the tier in the hierarchy. Unknown tiers count as FREE.
func (t SubscriptionTier) Level() int {
	return tierLevels[t]
}

// Valid reports whether t is one of the known tiers.
func (t SubscriptionTier) Valid() bool {
	_, ok := tierLevels[t]
	return ok
}

// CanAccess reports whether a user on tier t may open content requiring `required`.
func (t SubscriptionTier) CanAccess(required SubscriptionTier) bool {
	return t.Level() >= required.Level()
}

// ParseTier normalizes user input; unknown values become FREE.
func ParseTier(s string) SubscriptionTier {
	t := SubscriptionTier(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return TierFree
	}
	return t
}
