package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanglvm/forkfeat/internal/config"
	"github.com/khanglvm/forkfeat/internal/storage"
)

// runCLI executes the command tree with args in a fresh working directory.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCmd()
	cmd.SetArgs(args)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

type fixture struct {
	codes    []storage.AnnotatedEvent
	commands []storage.InteractionEvent
}

// studyFixture has one confirmed fork with an open on each side, one fork
// the participant disowned, and a search dialog followed by a file open.
func studyFixture() fixture {
	return fixture{
		codes: []storage.AnnotatedEvent{
			{Participant: "1", VideoTime: "2013-05-14 10:00:00", Retrospective: "y", Forks: 2},
			{Participant: "2", VideoTime: "2013-05-14 11:00:00", Retrospective: "n", Forks: 1},
			{Participant: "3", VideoTime: "2013-05-14 12:00:00", Retrospective: "", Forks: 1},
		},
		commands: []storage.InteractionEvent{
			{Participant: "1", VideoTime: "2013-05-14 09:59:50", Command: "FileOpenCommand"},
			{Participant: "1", VideoTime: "2013-05-14 10:00:40", Command: "FileOpenCommand"},
			{Participant: "2", VideoTime: "2013-05-14 10:59:30", Command: "EclipseCommand", EclipseCommand: "org.eclipse.search.ui.openSearchDialog"},
			{Participant: "2", VideoTime: "2013-05-14 10:59:40", Command: "FileOpenCommand"},
			{Participant: "2", VideoTime: "2013-05-14 11:00:10", Command: "Insert"},
		},
	}
}

// writeStore builds f as a SQLite store and chdirs into a fresh directory.
func writeStore(t *testing.T, f fixture) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "ift_forks.sqlite")
	s := storage.NewStorage(path, false)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))
	for _, c := range f.codes {
		require.NoError(t, s.InsertAnnotated(ctx, c))
	}
	for _, c := range f.commands {
		require.NoError(t, s.InsertInteraction(ctx, c))
	}
	require.NoError(t, s.Close())

	return path
}

func dataRows(t *testing.T, arffText string) []string {
	t.Helper()
	_, data, found := strings.Cut(arffText, "@DATA\n")
	require.True(t, found, "no @DATA section in:\n%s", arffText)
	return strings.Split(strings.TrimSpace(data), "\n")
}

func TestExtractWritesTable(t *testing.T) {
	db := writeStore(t, studyFixture())

	stdout, _, err := runCLI(t, "extract", "--db", db, "--output", "features.arff")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Wrote 2 rows to features.arff")

	data, err := os.ReadFile("features.arff")
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasPrefix(text, "@RELATION iftforks\n"))
	assert.Equal(t, 49, strings.Count(text, "@ATTRIBUTE "))

	rows := dataRows(t, text)
	require.Len(t, rows, 2)

	first := strings.Split(rows[0], ",")
	require.Len(t, first, 49)
	assert.Equal(t, []string{"1", "1"}, first[:2], "opens before and after")
	assert.Equal(t, "Few", first[16])
	assert.Equal(t, "True", first[32])
	assert.Equal(t, "Fork", first[48])

	second := strings.Split(rows[1], ",")
	assert.Equal(t, "1", second[0], "opens_before")
	assert.Equal(t, "1", second[4], "edits_before")
	assert.Equal(t, "1", second[6], "searching_before")
	assert.Equal(t, "1", second[14], "exists_search_before_open")
	assert.Equal(t, "NotFork", second[48])
}

func TestExtractRunStampedName(t *testing.T) {
	db := writeStore(t, studyFixture())

	_, _, err := runCLI(t, "extract", "--db", db, "--out-dir", "runs")
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join("runs", "ift_features-count-_-_*.arff"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestExtractToStdoutAsCSV(t *testing.T) {
	db := writeStore(t, studyFixture())

	stdout, _, err := runCLI(t, "extract", "--db", db, "--output", "-", "--format", "csv",
		"--category=false", "--binary=false")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	header := strings.Split(lines[0], ",")
	assert.Len(t, header, 17)
	assert.Equal(t, "opens_before", header[0])
	assert.Equal(t, "real_fork", header[16])
}

func TestSchemaMatchesExtractHeader(t *testing.T) {
	db := writeStore(t, studyFixture())

	for _, extra := range [][]string{nil, {"--pairwise"}, {"--variant", "binary", "--binary=false"}} {
		extractArgs := append([]string{"extract", "--db", db, "--output", "-"}, extra...)
		table, _, err := runCLI(t, extractArgs...)
		require.NoError(t, err)

		header, _, err := runCLI(t, append([]string{"schema"}, extra...)...)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(table, header), "flags %v", extra)
		assert.True(t, strings.HasSuffix(header, "@DATA\n"))
	}
}

func TestExtractWorkersKeepOrder(t *testing.T) {
	f := studyFixture()
	for i := 0; i < 9; i++ {
		f.codes = append(f.codes, storage.AnnotatedEvent{
			Participant:   "1",
			VideoTime:     "2013-05-15 10:0" + string(rune('0'+i)) + ":00",
			Retrospective: "y",
			Forks:         i % 2,
		})
	}
	db := writeStore(t, f)

	serial, _, err := runCLI(t, "extract", "--db", db, "--output", "-")
	require.NoError(t, err)
	parallel, _, err := runCLI(t, "extract", "--db", db, "--output", "-", "--workers", "4")
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
	assert.Len(t, dataRows(t, serial), 11)
}

func TestExtractAbortsOnCorruptRow(t *testing.T) {
	f := studyFixture()
	f.codes = append(f.codes, storage.AnnotatedEvent{Participant: "4", VideoTime: "2013-05-14 13:00:00", Retrospective: "maybe", Forks: 1})
	db := writeStore(t, f)

	_, _, err := runCLI(t, "extract", "--db", db, "--output", "features.arff")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fork conditions appear incorrect")

	_, statErr := os.Stat("features.arff")
	assert.True(t, os.IsNotExist(statErr), "no partial output")
}

func TestExtractMissingStore(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := runCLI(t, "extract", "--db", "missing.sqlite", "--output", "features.arff")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event store")
}

func TestExtractRejectsInvertedWindows(t *testing.T) {
	db := writeStore(t, studyFixture())

	_, _, err := runCLI(t, "extract", "--db", db, "--before", "45", "--output", "-")
	var invalid *config.InvalidConfigError
	require.True(t, errors.As(err, &invalid), "got %v", err)
	assert.Equal(t, []string{"windows"}, invalid.Keys())
	assert.Equal(t, "flags", invalid.Source)
}

func TestExtractLogsRunID(t *testing.T) {
	db := writeStore(t, studyFixture())

	_, stderr, err := runCLI(t, "extract", "--db", db, "--output", "-", "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"run_id"`)
	assert.Contains(t, stderr, "starting extraction")
}

func TestClassify(t *testing.T) {
	db := writeStore(t, studyFixture())

	stdout, _, err := runCLI(t, "classify", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "PARTICIPANT")
	assert.Contains(t, stdout, "2 events: 1 Fork, 1 NotFork")

	stdout, _, err = runCLI(t, "classify", "--db", db, "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"label": "NotFork"`)
}

func TestClassifyReportsInconsistentRows(t *testing.T) {
	f := studyFixture()
	f.codes = append(f.codes, storage.AnnotatedEvent{Participant: "4", VideoTime: "2013-05-14 13:00:00", Retrospective: "maybe", Forks: 1})
	db := writeStore(t, f)

	stdout, _, err := runCLI(t, "classify", "--db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 annotated events")
	assert.Contains(t, stdout, "✗")
}

func TestBin(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout, _, err := runCLI(t, "bin", "0", "1", "2", "6", "13")
	require.NoError(t, err)
	assert.Equal(t, "0\tNone\n1\tFew\n2\tSome\n6\tMany\n13\tLots\n", stdout)

	_, _, err = runCLI(t, "bin", "many")
	assert.Error(t, err)

	_, _, err = runCLI(t, "bin", "--", "-1")
	assert.Error(t, err)
}

func TestEventsList(t *testing.T) {
	db := writeStore(t, studyFixture())

	stdout, _, err := runCLI(t, "events", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "FileOpenCommand")
	assert.Contains(t, stdout, "org.eclipse.search.ui.openSearchDialog")

	stdout, _, err = runCLI(t, "events", "list", "--db", db, "--field", "eclipsecommand")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "FileOpenCommand")
}

func TestEventsListOrderedByFieldAndName(t *testing.T) {
	db := writeStore(t, studyFixture())

	stdout, _, err := runCLI(t, "events", "list", "--db", db)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "FIELD"))
	assert.Contains(t, lines[1], "EclipseCommand")
	assert.Contains(t, lines[2], "FileOpenCommand")
	assert.Contains(t, lines[3], "Insert")
	assert.Contains(t, lines[4], "openSearchDialog")
}

func TestEventsPersistentIndexRefreshes(t *testing.T) {
	index := filepath.Join(t.TempDir(), "events.bleve")
	db := writeStore(t, studyFixture())

	stdout, _, err := runCLI(t, "events", "search", "--db", db, "--index", index, "insert")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Insert")
	_, err = os.Stat(index)
	require.NoError(t, err)

	// A store without Insert events must not keep the stale name.
	smaller := studyFixture()
	smaller.commands = smaller.commands[:4]
	db = writeStore(t, smaller)

	stdout, _, err = runCLI(t, "events", "search", "--db", db, "--index", index, "insert")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No event names match")

	stdout, _, err = runCLI(t, "events", "list", "--db", db, "--index", index, "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"name": "FileOpenCommand"`)
	assert.Contains(t, stdout, `"count": 3`)
}

func TestEventsSearch(t *testing.T) {
	db := writeStore(t, studyFixture())

	stdout, _, err := runCLI(t, "events", "search", "--db", db, "search")
	require.NoError(t, err)
	assert.Contains(t, stdout, "org.eclipse.search.ui.openSearchDialog")
	assert.NotContains(t, stdout, "Insert")

	stdout, _, err = runCLI(t, "events", "search", "--db", db, "--field", "command", "open")
	require.NoError(t, err)
	assert.Contains(t, stdout, "FileOpenCommand")
	assert.NotContains(t, stdout, "openSearchDialog")

	stdout, _, err = runCLI(t, "events", "search", "--db", db, "refactor")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No event names match")
}

func TestDBInit(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout, _, err := runCLI(t, "db", "init", filepath.Join("data", "new.sqlite"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Event store ready")

	// The new store is readable and empty.
	stdout, _, err = runCLI(t, "classify", "--db", filepath.Join("data", "new.sqlite"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "0 events")
}

func TestConfigInitAndShow(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := runCLI(t, "config", "init")
	require.NoError(t, err)

	_, _, err = runCLI(t, "config", "init")
	assert.ErrorContains(t, err, "already exists")

	// The file in the working directory is picked up without --config.
	stdout, _, err := runCLI(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "fork_end: 30")
	assert.Contains(t, stdout, "org.eclipse.ui.edit.findNext")
}

func TestConfigPrecedence(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("study.yaml", []byte("windows:\n  fork_end: 20\n  after: 90\n"), 0644))

	stdout, _, err := runCLI(t, "config", "show", "--config", "study.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "fork_end: 20")

	t.Setenv("FORKFEAT_WINDOWS_FORK_END", "40")
	stdout, _, err = runCLI(t, "config", "show", "--config", "study.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "fork_end: 40")

	stdout, _, err = runCLI(t, "config", "show", "--config", "study.yaml", "--fork-end", "45")
	require.NoError(t, err)
	assert.Contains(t, stdout, "fork_end: 45")
	assert.Contains(t, stdout, "after: 90")
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Version:")
	assert.Contains(t, stdout, "Commit:")
}

func TestRootCmdRegistersCommands(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"extract", "schema", "classify", "bin", "events", "db", "config", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("db"))
}
