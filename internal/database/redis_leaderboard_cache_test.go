package database

import (
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// zrevOrder повторяет порядок ZREVRANGE: score по убыванию, при равенстве member по убыванию.
func zrevOrder(scores map[string]float64) []string {
	members := make([]string, 0, len(scores))
	for m := range scores {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		if scores[members[i]] != scores[members[j]] {
			return scores[members[i]] > scores[members[j]]
		}
		return members[i] > members[j]
	})
	return members
}

func TestMemberKey_OrdersTiesByRegistrationTime(t *testing.T) {
	early, late, top := uuid.New(), uuid.New(), uuid.New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// Очки за пределами точности float64 для упаковки score и времени в одно число
	const big = 5_000_000
	scores := map[string]float64{
		memberKey(late, base.Add(time.Millisecond)): big,
		memberKey(early, base):                      big,
		memberKey(top, base.Add(time.Hour)):         big + 1,
	}

	var got []string
	for _, m := range zrevOrder(scores) {
		got = append(got, userIDFromMember(m))
	}
	assert.Equal(t, []string{top.String(), early.String(), late.String()}, got)
}

func TestMemberKey_StableForUser(t *testing.T) {
	id := uuid.New()
	created := time.Date(2024, 9, 1, 8, 30, 0, 123456000, time.UTC)

	// created_at после JSON в hash сравнивается с исходным до микросекунды
	assert.Equal(t, memberKey(id, created), memberKey(id, created.Add(999*time.Nanosecond)))
	assert.NotEqual(t, memberKey(id, created), memberKey(id, created.Add(time.Microsecond)))
	assert.Equal(t, id.String(), userIDFromMember(memberKey(id, created)))
	assert.Len(t, memberKey(id, created), 17+1+36)
}
