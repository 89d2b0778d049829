package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreExactMatch(t *testing.T) {
	assert.Equal(t, 100, Score("Rusty Sword", "Rusty Sword"))
	assert.Equal(t, 100, Score("rusty sword", "Rusty Sword"))
}

func TestScoreSubstring(t *testing.T) {
	assert.Equal(t, 80, Score("sty swo", "Rusty Sword"))
}

func TestScorePerWordAverage(t *testing.T) {
	score := Score("rst srd", "Rusty Sword")
	assert.Greater(t, score, FuzzyThreshold)
	assert.Less(t, score, 80)
}

func TestScoreZeroWhenNotEveryTokenMatches(t *testing.T) {
	assert.Equal(t, 0, Score("xyz", "Rusty Sword"))
	assert.Equal(t, 0, Score("rusty zzz", "Rusty Sword"))
}

func TestFindBestBreaksTiesByOrder(t *testing.T) {
	candidates := []Candidate{
		{Name: "Rusty Sword", Data: 1},
		{Name: "Rusty Shield", Data: 2},
	}
	got, score, ok := FindBest("rusty", candidates)
	assert.True(t, ok)
	assert.Greater(t, score, 0)
	assert.Equal(t, "Rusty Sword", got.Name)
}

func TestFindBestReturnsFalseBelowThreshold(t *testing.T) {
	_, _, ok := FindBest("zzz", []Candidate{{Name: "Rusty Sword"}})
	assert.False(t, ok)
}
