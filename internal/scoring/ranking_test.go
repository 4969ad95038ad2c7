package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func rows(scores ...int) []ScoreRow {
	out := make([]ScoreRow, len(scores))
	for i, s := range scores {
		out[i] = ScoreRow{ParticipantID: uuid.New(), Score: s}
	}
	return out
}

func positions(ranked []RankedRow) []int {
	out := make([]int, len(ranked))
	for i, r := range ranked {
		out[i] = r.Position
	}
	return out
}

func TestRank(t *testing.T) {
	testCases := []struct {
		name      string
		scores    []int
		positions []int
	}{
		{"Empty", nil, []int{}},
		{"Single", []int{12}, []int{1}},
		{"Tie on top", []int{30, 50, 50}, []int{1, 1, 2}},
		{"Tie in the middle", []int{10, 40, 50, 40}, []int{1, 2, 2, 3}},
		{"All tied", []int{7, 7, 7}, []int{1, 1, 1}},
		{"Zeroes", []int{0, 5, 0}, []int{1, 2, 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.positions, positions(Rank(rows(tc.scores...))))
		})
	}
}

func TestRank_OrderIndependent(t *testing.T) {
	in := rows(20, 35, 20, 35, 8)
	reversed := make([]ScoreRow, len(in))
	for i := range in {
		reversed[len(in)-1-i] = in[i]
	}

	assert.Equal(t, Rank(in), Rank(reversed))
	for i := 1; i < len(in); i++ {
		ranked := Rank(in)
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	in := rows(1, 2, 3)
	first := in[0]
	Rank(in)
	assert.Equal(t, first, in[0])
}

func TestWinners(t *testing.T) {
	ranked := Rank(rows(50, 50, 30))
	winners := Winners(ranked)
	assert.Len(t, winners, 2)
	for _, w := range winners {
		assert.Equal(t, 50, w.Score)
	}

	assert.Empty(t, Winners(nil))
}

func TestTop(t *testing.T) {
	ranked := Rank(rows(50, 40, 40, 10))

	assert.Len(t, Top(ranked, 2), 2)
	assert.Len(t, Top(ranked, 0), 4)
	assert.Len(t, Top(ranked, 10), 4)
}
