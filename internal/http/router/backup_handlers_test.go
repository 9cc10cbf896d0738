package router_test

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/backup"
	"github.com/rogerio-castellano/stationery-tracker/internal/http/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBackupHandler(t *testing.T) {
	e := newTestEnv(t)
	e.createProduct(t, "Binder", "3.30", 7, 2)

	var rec backup.Record
	decode(t, e.do(t, http.MethodPost, "/backups", nil), http.StatusCreated, &rec)
	assert.True(t, strings.HasPrefix(rec.Name, "respaldo_test_"))
	assert.True(t, strings.HasSuffix(rec.Name, ".db"))
	assert.Positive(t, rec.Size)
	assert.Len(t, rec.Checksum, 64)

	info, err := os.Stat(filepath.Join(e.backupDir, rec.Name))
	require.NoError(t, err)
	assert.Equal(t, rec.Size, info.Size())

	var list []backup.Record
	decode(t, e.do(t, http.MethodGet, "/backups", nil), http.StatusOK, &list)
	require.Len(t, list, 1)
	assert.Equal(t, rec.Name, list[0].Name)

	var status handlers.BackupStatus
	decode(t, e.do(t, http.MethodGet, "/backups/status", nil), http.StatusOK, &status)
	assert.Equal(t, 1, status.Count)
	require.NotNil(t, status.Latest)
	assert.Equal(t, rec.Name, status.Latest.Name)
	assert.Equal(t, 180, status.RetentionDays)
}

func TestPruneBackupsHandler(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, os.MkdirAll(e.backupDir, 0o755))

	old := filepath.Join(e.backupDir, "respaldo_test_2020-01-01_02-00-00.db")
	recent := filepath.Join(e.backupDir, "respaldo_test_2099-01-01_02-00-00.db")
	other := filepath.Join(e.backupDir, "notes.txt")
	for _, p := range []string{old, recent, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	aged := time.Now().AddDate(0, 0, -200)
	require.NoError(t, os.Chtimes(old, aged, aged))
	require.NoError(t, os.Chtimes(other, aged, aged))

	var res handlers.PruneResult
	decode(t, e.do(t, http.MethodDelete, "/backups/prune", nil), http.StatusOK, &res)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 180, res.Days)

	assert.NoFileExists(t, old)
	assert.FileExists(t, recent)
	assert.FileExists(t, other)

	decode(t, e.do(t, http.MethodDelete, "/backups/prune?days=-1", nil), http.StatusBadRequest, nil)
	decode(t, e.do(t, http.MethodDelete, "/backups/prune?days=abc", nil), http.StatusBadRequest, nil)

	decode(t, e.do(t, http.MethodDelete, "/backups/prune?days=0", nil), http.StatusOK, &res)
	assert.Equal(t, 1, res.Deleted)
	assert.NoFileExists(t, recent)
}

func TestSchedulerHandlers(t *testing.T) {
	e := newTestEnv(t)

	var st backup.Status
	env := decode(t, e.do(t, http.MethodGet, "/backups/scheduler", nil), http.StatusOK, &st)
	assert.True(t, env.Success)
	assert.False(t, st.Running)

	env = decode(t, e.do(t, http.MethodPost, "/backups/scheduler/start", nil), http.StatusOK, &st)
	assert.Equal(t, "scheduler started", env.Message)
	assert.True(t, st.Running)
	require.Len(t, st.Jobs, 2)

	env = decode(t, e.do(t, http.MethodPost, "/backups/scheduler/start", nil), http.StatusOK, &st)
	assert.Equal(t, "scheduler already running", env.Message)

	env = decode(t, e.do(t, http.MethodPost, "/backups/scheduler/stop", nil), http.StatusOK, &st)
	assert.Equal(t, "scheduler stopped", env.Message)
	assert.False(t, st.Running)
	assert.Empty(t, st.Jobs)

	env = decode(t, e.do(t, http.MethodPost, "/backups/scheduler/stop", nil), http.StatusOK, nil)
	assert.Equal(t, "scheduler was not running", env.Message)
}
