package scoring

import (
	"sort"

	"github.com/google/uuid"
)

type ScoreRow struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	Score         int       `json:"total_score"`
}

type RankedRow struct {
	Position int `json:"position"`
	ScoreRow
}

// Rank orders rows by score, highest first, and assigns consecutive
// positions: equal scores share a position and the next distinct score gets
// the following integer (50, 50, 30 -> 1, 1, 2). Ties are listed by
// participant id so the result does not depend on input order.
func Rank(rows []ScoreRow) []RankedRow {
	sorted := make([]ScoreRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].ParticipantID.String() < sorted[j].ParticipantID.String()
	})

	ranked := make([]RankedRow, len(sorted))
	position := 0
	for i, row := range sorted {
		if i == 0 || row.Score != sorted[i-1].Score {
			position++
		}
		ranked[i] = RankedRow{Position: position, ScoreRow: row}
	}
	return ranked
}

// Winners returns every row sharing the first position.
func Winners(ranked []RankedRow) []RankedRow {
	var winners []RankedRow
	for _, row := range ranked {
		if row.Position != 1 {
			break
		}
		winners = append(winners, row)
	}
	return winners
}

// Top returns the first n rows; n <= 0 means all of them.
func Top(ranked []RankedRow, n int) []RankedRow {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}
