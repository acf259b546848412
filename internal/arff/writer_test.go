package arff

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanglvm/forkfeat/internal/features"
	"github.com/khanglvm/forkfeat/internal/storage"
)

func testSchema(t *testing.T, opts features.Options) *features.Schema {
	t.Helper()
	catalog, err := features.Catalog(features.DefaultGroups())
	require.NoError(t, err)
	s, err := features.BuildSchema(catalog, opts)
	require.NoError(t, err)
	return s
}

func testRecords(n int) []features.Record {
	records := make([]features.Record, n)
	for i := range records {
		counts := make([]int, 16)
		counts[0] = i
		records[i] = features.Record{
			Event:  storage.AnnotatedEvent{Participant: "1", VideoTime: "2013-05-14 10:00:00", Retrospective: "y", Forks: 1},
			Counts: counts,
			Label:  features.Fork,
		}
	}
	return records
}

func TestWriteARFFLayout(t *testing.T) {
	opts := features.DefaultOptions()
	opts.Category = false
	opts.Binary = false
	schema := testSchema(t, opts)

	table, err := NewTable(schema, testRecords(2))
	require.NoError(t, err)
	table.Comments = []string{"run 1234"}

	var buf bytes.Buffer
	require.NoError(t, WriteARFF(&buf, table))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "% run 1234\n\n@RELATION iftforks\n\n"))
	assert.Contains(t, out, "@ATTRIBUTE opens_before NUMERIC\n")
	assert.Contains(t, out, "@ATTRIBUTE real_fork {Fork,NotFork}\n\n@DATA\n")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	data := lines[len(lines)-2:]
	assert.Equal(t, "0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,Fork", data[0])
	assert.Equal(t, "1,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,Fork", data[1])

	assert.Equal(t, 17, strings.Count(out, "@ATTRIBUTE "))
}

// TestWriteARFFHeaderMatchesRows checks the declared attribute count equals
// the width of every data row for the full default expansion.
func TestWriteARFFHeaderMatchesRows(t *testing.T) {
	schema := testSchema(t, features.DefaultOptions())
	table, err := NewTable(schema, testRecords(3))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, table, FormatARFF))

	header, data, found := strings.Cut(buf.String(), "@DATA\n")
	require.True(t, found)

	declared := strings.Count(header, "@ATTRIBUTE ")
	assert.Equal(t, 49, declared)
	for _, row := range strings.Split(strings.TrimSpace(data), "\n") {
		assert.Len(t, strings.Split(row, ","), declared)
	}
	assert.Contains(t, header, "\n\n@ATTRIBUTE category__opens_before {None,Few,Some,Many,Lots}\n")
	assert.Contains(t, header, "\n\n@ATTRIBUTE binary__opens_before {True,False,None}\n")
}

func TestWriteARFFRejectsRaggedRows(t *testing.T) {
	schema := testSchema(t, features.DefaultOptions())
	table := &Table{Schema: schema, Rows: [][]string{{"1", "Fork"}}}

	err := WriteARFF(&bytes.Buffer{}, table)
	assert.ErrorContains(t, err, "row 0")
}

func TestWriteHeaderOnly(t *testing.T) {
	opts := features.DefaultOptions()
	opts.Category = false
	opts.Binary = false

	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, testSchema(t, opts)))
	assert.True(t, strings.HasSuffix(buf.String(), "@DATA\n"))
	assert.NotContains(t, buf.String(), "%")
}

func TestWriteCSV(t *testing.T) {
	opts := features.DefaultOptions()
	opts.Binary = false
	schema := testSchema(t, opts)
	table, err := NewTable(schema, testRecords(2))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, table, FormatCSV))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, schema.Names(), rows[0])
	assert.Equal(t, "Few", rows[2][16])
	assert.Equal(t, "Fork", rows[2][len(rows[2])-1])
}

func TestNewTableRejectsBadCounts(t *testing.T) {
	schema := testSchema(t, features.DefaultOptions())
	records := testRecords(1)
	records[0].Counts[2] = -4

	_, err := NewTable(schema, records)
	assert.ErrorIs(t, err, features.ErrNegativeCount)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatARFF, "ARFF": FormatARFF, "csv": FormatCSV, "txt": FormatCSV} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestNamingPath(t *testing.T) {
	now := time.Date(2013, 5, 14, 10, 7, 0, 0, time.UTC)

	n := Naming{Dir: "out", Prefix: "ift_features-count-"}
	assert.Equal(t, filepath.Join("out", "ift_features-count-_-_2013-05-14_1007.arff"), n.Path(now))

	n = Naming{Dir: "out", Prefix: "x", Layout: "20060102", Format: FormatCSV}
	assert.Equal(t, filepath.Join("out", "x20130514.csv"), n.Path(now))
}

func TestWriteFile(t *testing.T) {
	schema := testSchema(t, features.DefaultOptions())
	table, err := NewTable(schema, testRecords(1))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "features.arff")
	require.NoError(t, WriteFile(path, table, FormatARFF))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "@RELATION iftforks")

	_, err = os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(err), "lock file should be removed")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestWriteFileHonoursLock(t *testing.T) {
	schema := testSchema(t, features.DefaultOptions())
	table, err := NewTable(schema, testRecords(1))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "features.arff")
	held, err := acquireFileLock(path)
	require.NoError(t, err)
	defer releaseFileLock(held)

	err = WriteFile(path, table, FormatARFF)
	assert.ErrorIs(t, err, ErrLocked)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
