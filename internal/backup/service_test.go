package backup

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestService(t *testing.T, clock *fakeClock) (*Service, string) {
	t.Helper()

	root := t.TempDir()
	src := filepath.Join(root, "stationery.db")
	require.NoError(t, os.WriteFile(src, []byte("SQLite format 3\x00 fake payload"), 0o644))

	opts := Options{
		SourcePath: src,
		Dir:        filepath.Join(root, "backups"),
		Prefix:     "respaldo_papeleria_dohko",
		Ext:        "db",
	}
	if clock != nil {
		opts.Now = clock.Now
	}
	return NewService(opts), opts.Dir
}

func touch(t *testing.T, dir, name string, modTime time.Time) {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestRunBackupNow_CreatesOneNamedFile(t *testing.T) {
	svc, dir := newTestService(t, nil)

	rec, err := svc.RunBackupNow(context.Background())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^respaldo_papeleria_dohko_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.db$`), rec.Name)
	assert.Positive(t, rec.Size)
	assert.Len(t, rec.Checksum, 64)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, rec.Name, entries[0].Name())

	info, err := os.Stat(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, rec.Size, info.Size())
}

func TestRunBackupNow_MissingSource(t *testing.T) {
	root := t.TempDir()
	svc := NewService(Options{SourcePath: filepath.Join(root, "nope.db"), Dir: filepath.Join(root, "backups"), Prefix: "p"})

	_, err := svc.RunBackupNow(context.Background())
	require.ErrorIs(t, err, apperr.ErrSourceMissing)
}

func TestRunBackupNow_SameSecondDoesNotOverwrite(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 7, 29, 2, 56, 58, 0, time.Local)}
	svc, dir := newTestService(t, clock)

	first, err := svc.RunBackupNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "respaldo_papeleria_dohko_2025-07-29_02-56-58.db", first.Name)

	_, err = svc.RunBackupNow(context.Background())
	require.ErrorIs(t, err, apperr.ErrStorage)

	// the first backup survives the failed attempt
	_, err = os.Stat(filepath.Join(dir, first.Name))
	assert.NoError(t, err)
}

func TestRunBackupNow_RunsHookBeforeCopy(t *testing.T) {
	svc, _ := newTestService(t, nil)
	called := false
	svc.opts.BeforeCopy = func(context.Context) error {
		called = true
		return nil
	}

	_, err := svc.RunBackupNow(context.Background())
	require.NoError(t, err)
	assert.True(t, called)
}

func TestPruneOlderThan(t *testing.T) {
	now := time.Now()
	svc, dir := newTestService(t, &fakeClock{t: now})

	touch(t, dir, "old.db", now.Add(-181*24*time.Hour))
	touch(t, dir, "older.db", now.Add(-400*24*time.Hour))
	touch(t, dir, "recent.db", now.Add(-179*24*time.Hour))
	touch(t, dir, "ancient.txt", now.Add(-500*24*time.Hour))

	n, err := svc.PruneOlderThan(context.Background(), 180)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for name, kept := range map[string]bool{"old.db": false, "older.db": false, "recent.db": true, "ancient.txt": true} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.Equal(t, kept, err == nil, name)
	}

	n, err = svc.PruneOlderThan(context.Background(), 180)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPruneOlderThan_MissingDirectory(t *testing.T) {
	svc, _ := newTestService(t, nil)

	n, err := svc.PruneOlderThan(context.Background(), 180)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.PruneOlderThan(context.Background(), -1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListBackups_NewestFirstWithModTimeFallback(t *testing.T) {
	svc, dir := newTestService(t, nil)

	touch(t, dir, "respaldo_papeleria_dohko_2025-01-10_02-00-00.db", time.Now())
	touch(t, dir, "respaldo_papeleria_dohko_2025-03-10_02-00-00.db", time.Now())
	fallback := time.Date(2025, 2, 1, 12, 0, 0, 0, time.Local)
	touch(t, dir, "manual-copy.db", fallback)
	touch(t, dir, "notes.txt", time.Now())

	records, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "respaldo_papeleria_dohko_2025-03-10_02-00-00.db", records[0].Name)
	assert.Equal(t, "manual-copy.db", records[1].Name)
	assert.True(t, records[1].CreatedAt.Equal(fallback))
	assert.Equal(t, "respaldo_papeleria_dohko_2025-01-10_02-00-00.db", records[2].Name)
	assert.Equal(t, time.Date(2025, 1, 10, 2, 0, 0, 0, time.Local), records[2].CreatedAt)
}

func TestListBackups_MissingDirectory(t *testing.T) {
	svc, _ := newTestService(t, nil)

	records, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}
