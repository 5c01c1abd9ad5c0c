package domain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func abc() []Track {
	return []Track{
		{ID: "A", URL: "https://cdn.test/a.mp3"},
		{ID: "B", URL: "https://cdn.test/b.mp3"},
		{ID: "C", URL: "https://cdn.test/c.mp3"},
	}
}

func noRandom(t *testing.T) RandomIndex {
	return func(int) int {
		t.Fatal("random source must not be used")
		return 0
	}
}

func TestResolve_OrderedStopsAtEnd(t *testing.T) {
	playlist := abc()

	assert.Equal(t, NoTrack, ResolveNext(playlist, "C", false, ModeOrdered, noRandom(t)))
	assert.Equal(t, 1, ResolvePrevious(playlist, "C", false, ModeOrdered, noRandom(t)))
	assert.Equal(t, 1, ResolveNext(playlist, "A", false, ModeOrdered, noRandom(t)))
	assert.Equal(t, NoTrack, ResolvePrevious(playlist, "A", false, ModeOrdered, noRandom(t)))
}

func TestResolve_LoopAllWraps(t *testing.T) {
	playlist := abc()

	assert.Equal(t, 0, ResolveNext(playlist, "C", false, ModeLoopAll, noRandom(t)))
	assert.Equal(t, 2, ResolvePrevious(playlist, "A", false, ModeLoopAll, noRandom(t)))
	assert.Equal(t, 2, ResolveNext(playlist, "B", false, ModeLoopAll, noRandom(t)))
}

func TestResolve_LoopOneNavigatesLikeOrdered(t *testing.T) {
	playlist := abc()

	assert.Equal(t, 1, ResolveNext(playlist, "A", false, ModeLoopOne, noRandom(t)))
	assert.Equal(t, NoTrack, ResolveNext(playlist, "C", false, ModeLoopOne, noRandom(t)))
	assert.Equal(t, NoTrack, ResolvePrevious(playlist, "A", false, ModeLoopOne, noRandom(t)))
}

func TestResolve_UnknownOrEmpty(t *testing.T) {
	assert.Equal(t, NoTrack, ResolveNext(nil, "A", false, ModeLoopAll, noRandom(t)))
	assert.Equal(t, NoTrack, ResolveNext(abc(), "Z", false, ModeLoopAll, noRandom(t)))
	assert.Equal(t, NoTrack, ResolveNext(abc(), "Z", true, ModeOrdered, noRandom(t)))
	assert.Equal(t, NoTrack, ResolveNext([]Track{}, "", true, ModeShuffle, noRandom(t)))
}

func TestResolve_DuplicatesUseFirstOccurrence(t *testing.T) {
	playlist := []Track{{ID: "A"}, {ID: "B"}, {ID: "A"}, {ID: "C"}}

	assert.Equal(t, 1, ResolveNext(playlist, "A", false, ModeOrdered, noRandom(t)))
	assert.Equal(t, 3, ResolvePrevious(playlist, "A", false, ModeLoopAll, noRandom(t)))
}

func TestResolve_ShuffleOverridesMode(t *testing.T) {
	playlist := abc()
	rng := rand.New(rand.NewPCG(1, 2))

	seen := make(map[int]bool)
	for i := 0; i < 500; i++ {
		idx := ResolveNext(playlist, "B", true, ModeLoopAll, rng.IntN)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, len(playlist))
		seen[idx] = true

		prev := ResolvePrevious(playlist, "A", true, ModeOrdered, rng.IntN)
		assert.NotEqual(t, NoTrack, prev)
	}

	assert.Len(t, seen, len(playlist), "every index should eventually be produced")
}

func TestResolve_ShuffleMode(t *testing.T) {
	playlist := abc()
	calls := 0
	random := func(n int) int {
		calls++
		assert.Equal(t, 3, n)
		return 2
	}

	assert.Equal(t, 2, ResolveNext(playlist, "C", false, ModeShuffle, random))
	assert.Equal(t, 1, calls)
}

func TestIndexOf(t *testing.T) {
	assert.Equal(t, 2, IndexOf(abc(), "C"))
	assert.Equal(t, NoTrack, IndexOf(abc(), "nope"))
}
