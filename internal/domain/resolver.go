package domain

// NoTrack is returned by the resolver when playback should stop.
const NoTrack = -1

// Direction selects which neighbour the resolver looks for.
type Direction int

const (
	// Forward resolves the next track
	Forward Direction = iota

	// Backward resolves the previous track
	Backward
)

// RandomIndex returns a uniformly random integer in [0, n).
// math/rand/v2's IntN and (*rand.Rand).IntN both satisfy it.
type RandomIndex func(n int) int

// IndexOf returns the position of the first track with the given ID, or NoTrack.
func IndexOf(playlist []Track, id string) int {
	for i, t := range playlist {
		if t.ID == id {
			return i
		}
	}
	return NoTrack
}

// ResolveNext returns the index of the track after currentID, or NoTrack.
func ResolveNext(playlist []Track, currentID string, shuffle bool, mode PlaybackMode, random RandomIndex) int {
	return Resolve(playlist, currentID, shuffle, mode, Forward, random)
}

// ResolvePrevious returns the index of the track before currentID, or NoTrack.
func ResolvePrevious(playlist []Track, currentID string, shuffle bool, mode PlaybackMode, random RandomIndex) int {
	return Resolve(playlist, currentID, shuffle, mode, Backward, random)
}

// Resolve maps the current track, playlist and ordering settings to a playlist index.
//
// The current position is looked up by ID (first occurrence) on every call,
// so the playlist may change between calls. Rules, in priority order:
//   - unknown current track or empty playlist: NoTrack
//   - shuffle flag or shuffle mode: uniformly random index, either direction
//   - loop-all: wraps at both ends, never NoTrack
//   - ordered and loop-one: the neighbour if it exists, otherwise NoTrack
//
// loop-one only changes what happens when a track finishes, not navigation.
func Resolve(playlist []Track, currentID string, shuffle bool, mode PlaybackMode, dir Direction, random RandomIndex) int {
	n := len(playlist)
	if n == 0 {
		return NoTrack
	}

	current := IndexOf(playlist, currentID)
	if current == NoTrack {
		return NoTrack
	}

	if shuffle || mode == ModeShuffle {
		return random(n)
	}

	if mode == ModeLoopAll {
		if dir == Backward {
			if current == 0 {
				return n - 1
			}
			return current - 1
		}
		return (current + 1) % n
	}

	if dir == Backward {
		if current-1 >= 0 {
			return current - 1
		}
		return NoTrack
	}
	if current+1 < n {
		return current + 1
	}
	return NoTrack
}
