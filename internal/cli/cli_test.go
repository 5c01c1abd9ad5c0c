package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/studybeats/internal/testutil"
)

const testPlaylist = `{
  "album": {"id": "focus", "name": "Focus"},
  "tracks": [
    {"id": "a", "title": "Alpha", "artist": "Lo Fi Crew", "url": "https://cdn.studybeats.test/a.mp3", "duration": 120},
    {"id": "b", "title": "Beta", "url": "https://cdn.studybeats.test/b.mp3", "duration": 60}
  ]
}`

// writeTestConfig points the CLI at a mock engine and a throwaway database.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[engine]\nkind = \"mock\"\n\n" +
		"[storage]\nbackend = \"sqlite\"\npath = '" + filepath.Join(dir, "session.db") + "'\n\n" +
		"[log]\nlevel = \"error\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "StudyBeats dev")
}

func TestVersionCommand_IgnoresBrokenConfig(t *testing.T) {
	out, _, err := runCLI(t, "", "version", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Contains(t, out, "StudyBeats")
}

func TestInvalidEngineFlag(t *testing.T) {
	cfg := writeTestConfig(t)

	_, _, err := runCLI(t, "", "status", "--config", cfg, "--engine", "bass")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.kind")
}

func TestStatus_NoSavedSession(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	cfg := writeTestConfig(t)

	out, _, err := runCLI(t, "", "status", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "no saved session")
}

func TestPlayStatusReset(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	cfg := writeTestConfig(t)
	playlist := filepath.Join(t.TempDir(), "focus.json")
	require.NoError(t, os.WriteFile(playlist, []byte(testPlaylist), 0o600))

	script := "vol 0.4\nmode loop-all\nstatus\nquit\n"
	out, _, err := runCLI(t, script, "play", playlist, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "> Alpha - Lo Fi Crew")
	assert.Contains(t, out, "volume 40%")
	assert.Contains(t, out, "mode loop-all, shuffle false")
	assert.Contains(t, out, "album:    Focus")
	assert.Contains(t, out, "playlist: 2 track(s)")

	out, _, err = runCLI(t, "", "status", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "mode:     loop-all")
	assert.Contains(t, out, "volume:   40%")
	assert.Contains(t, out, "length:   3:00 (2 of 2 tracks)")
	assert.Contains(t, out, "Alpha - Lo Fi Crew")
	assert.Contains(t, out, "Beta")
	assert.Contains(t, out, "saved:")

	out, _, err = runCLI(t, "", "reset", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "session cleared")

	out, _, err = runCLI(t, "", "status", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "no saved session")
}

func TestPlay_RestoresSavedPlaylist(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	cfg := writeTestConfig(t)
	playlist := filepath.Join(t.TempDir(), "focus.json")
	require.NoError(t, os.WriteFile(playlist, []byte(testPlaylist), 0o600))

	_, _, err := runCLI(t, "quit\n", "play", playlist, "--config", cfg)
	require.NoError(t, err)

	out, _, err := runCLI(t, "quit\n", "play", "--start", "1", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "> Beta")
}

func TestPlay_ShellErrors(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	cfg := writeTestConfig(t)

	script := "bogus\nvol loud\nmode sideways\nrm\nadd {not json\n\nhelp\n"
	out, _, err := runCLI(t, script, "play", "--config", cfg)
	require.NoError(t, err)

	assert.Contains(t, out, "playlist is empty")
	assert.Contains(t, out, `error: unknown command "bogus"`)
	assert.Contains(t, out, "error: strconv.ParseFloat")
	assert.Contains(t, out, `error: unknown playback mode "sideways"`)
	assert.Contains(t, out, "error: expected 1 index(es)")
	assert.Contains(t, out, "error: parse track")
	assert.Contains(t, out, "shuffle on|off")
}

func TestPlay_AddAndEdit(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)
	cfg := writeTestConfig(t)

	script := strings.Join([]string{
		`add {"id":"x","title":"Xylo","url":"https://cdn.studybeats.test/x.mp3"}`,
		`add {"id":"y","title":"Yarrow","url":"https://cdn.studybeats.test/y.mp3"}`,
		"mv 1 0",
		"quit",
	}, "\n")
	_, _, err := runCLI(t, script, "play", "--config", cfg)
	require.NoError(t, err)

	out, _, err := runCLI(t, "", "status", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "playlist: 2 track(s)")
	assert.Less(t, strings.Index(out, "Yarrow"), strings.Index(out, "Xylo"))
}

func TestPlay_UnknownModeFlag(t *testing.T) {
	cfg := writeTestConfig(t)

	_, _, err := runCLI(t, "", "play", "--mode", "random", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown playback mode")
}

func TestScanCommand(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	cfg := writeTestConfig(t)
	music := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(music, "one.wav"), []byte("RIFF\x00\x00\x00\x00WAVE"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(music, "notes.txt"), []byte("not audio"), 0o600))

	outFile := filepath.Join(t.TempDir(), "lofi.json")
	_, stderr, err := runCLI(t, "", "scan", music,
		"--base-url", "https://media.studybeats.test/lofi",
		"--album", "Lofi",
		"--out", outFile,
		"--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, stderr, "wrote 1 track(s)")

	pl, err := readPlaylist(outFile)
	require.NoError(t, err)
	require.Len(t, pl.Tracks, 1)
	assert.Equal(t, "one", pl.Tracks[0].Title)
	assert.Equal(t, "https://media.studybeats.test/lofi/one.wav", pl.Tracks[0].URL)
	require.NotNil(t, pl.Album)
	assert.Equal(t, "Lofi", pl.Album.Name)
	assert.NotEmpty(t, pl.Album.ID)
}

func TestScanCommand_RequiresBaseURL(t *testing.T) {
	cfg := writeTestConfig(t)

	_, _, err := runCLI(t, "", "scan", t.TempDir(), "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base-url")
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "0:00", formatClock(0))
	assert.Equal(t, "3:05", formatClock(185_400_000_000))
	assert.Equal(t, "1:01:01", formatClock(3661_000_000_000))
}
