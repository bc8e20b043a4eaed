package models

const (
	RankNovice   = 1
	RankDefender = 2
	RankGuardian = 3
	RankExpert   = 4
)

var rankNames = map[int]string{
	RankNovice:   "Novice",
	RankDefender: "Defender",
	RankGuardian: "Guardian",
	RankExpert:   "Expert",
}

// RankName returns the display name of a rank; out-of-range values map to Novice.
func RankName(rank int) string {
	if name, ok := rankNames[rank]; ok {
		return name
	}
	return rankNames[RankNovice]
}
