package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffRoster(t *testing.T) {
	stored := []int64{101, 102, 103}
	fetched := []int64{101, 103, 104}

	kept, added, removed := DiffRoster(stored, fetched)

	assert.ElementsMatch(t, []int64{101, 103}, kept)
	assert.ElementsMatch(t, []int64{104}, added, "New roster members are inserts")
	assert.ElementsMatch(t, []int64{102}, removed, "Departed members are soft-deletes")
}

func TestDiffRosterEmptyStored(t *testing.T) {
	kept, added, removed := DiffRoster(nil, []int64{1, 2})

	assert.Empty(t, kept)
	assert.ElementsMatch(t, []int64{1, 2}, added)
	assert.Empty(t, removed)
}

func TestDiffRosterEmptyFetch(t *testing.T) {
	// an empty upstream roster deactivates everyone; the rows stay behind
	kept, added, removed := DiffRoster([]int64{1, 2}, nil)

	assert.Empty(t, kept)
	assert.Empty(t, added)
	assert.ElementsMatch(t, []int64{1, 2}, removed)
}
