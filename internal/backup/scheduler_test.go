package backup

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		BackupEveryDays:  30,
		BackupAt:         "02:00",
		CleanupEveryDays: 90,
		CleanupAt:        "03:00",
		RetentionDays:    180,
		Tick:             time.Hour,
	}
}

func TestNextRun(t *testing.T) {
	ref := time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 2, 14, 2, 0, 0, 0, time.UTC), nextRun(ref, 30, 2, 0))
	assert.Equal(t, time.Date(2025, 4, 15, 3, 0, 0, 0, time.UTC), nextRun(ref, 90, 3, 0))
}

func TestNewScheduler_RejectsBadClock(t *testing.T) {
	svc, _ := newTestService(t, nil)
	cfg := testSchedulerConfig()
	cfg.BackupAt = "25:99"

	_, err := NewScheduler(svc, cfg)
	assert.Error(t, err)
}

func TestScheduler_StartStopStatus(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 15, 14, 30, 0, 0, time.Local)}
	svc, _ := newTestService(t, clock)
	s, err := NewScheduler(svc, testSchedulerConfig())
	require.NoError(t, err)

	st := s.Status()
	assert.False(t, st.Running)
	assert.Empty(t, st.Jobs)

	require.True(t, s.Start(context.Background()))
	assert.False(t, s.Start(context.Background()), "second start is a no-op")
	assert.True(t, s.Running())

	st = s.Status()
	assert.True(t, st.Running)
	require.Len(t, st.Jobs, 2)
	assert.Equal(t, "backup", st.Jobs[0].Name)
	assert.Equal(t, time.Date(2025, 2, 14, 2, 0, 0, 0, time.Local), st.Jobs[0].NextRun)
	assert.Equal(t, "cleanup", st.Jobs[1].Name)
	assert.Equal(t, time.Date(2025, 4, 15, 3, 0, 0, 0, time.Local), st.Jobs[1].NextRun)
	assert.Equal(t, clock.t, st.Now)

	require.True(t, s.Stop())
	assert.False(t, s.Stop())

	st = s.Status()
	assert.False(t, st.Running)
	assert.Empty(t, st.Jobs, "stop clears the scheduled jobs")
}

func TestScheduler_StopsWithParentContext(t *testing.T) {
	svc, _ := newTestService(t, nil)
	cfg := testSchedulerConfig()
	cfg.Tick = 10 * time.Millisecond
	s, err := NewScheduler(svc, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.Running() }, time.Second, 10*time.Millisecond)
}

func TestScheduler_RunPending(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 15, 14, 30, 0, 0, time.Local)}
	svc, dir := newTestService(t, clock)
	s, err := NewScheduler(svc, testSchedulerConfig())
	require.NoError(t, err)
	require.True(t, s.Start(context.Background()))
	t.Cleanup(func() { s.Stop() })

	ctx := context.Background()
	assert.Zero(t, s.RunPending(ctx, time.Date(2025, 2, 14, 1, 59, 0, 0, time.Local)))

	// an old backup that the backup job prunes afterwards
	touch(t, dir, "respaldo_papeleria_dohko_2024-01-01_02-00-00.db", clock.t.AddDate(0, 0, -200))

	due := time.Date(2025, 2, 14, 2, 0, 30, 0, time.Local)
	clock.t = due
	assert.Equal(t, 1, s.RunPending(ctx, due))

	records, err := svc.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "respaldo_papeleria_dohko_2025-02-14_02-00-30.db", records[0].Name)

	st := s.Status()
	require.NotNil(t, st.Jobs[0].LastRun)
	assert.Empty(t, st.Jobs[0].LastError)
	assert.Equal(t, time.Date(2025, 3, 16, 2, 0, 0, 0, time.Local), st.Jobs[0].NextRun)
	assert.Nil(t, st.Jobs[1].LastRun)
}

func TestScheduler_FailedJobKeepsLoopAlive(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 15, 14, 30, 0, 0, time.Local)}
	svc, _ := newTestService(t, clock)
	require.NoError(t, os.Remove(svc.opts.SourcePath))

	s, err := NewScheduler(svc, testSchedulerConfig())
	require.NoError(t, err)
	require.True(t, s.Start(context.Background()))
	t.Cleanup(func() { s.Stop() })

	due := time.Date(2025, 2, 14, 2, 0, 0, 0, time.Local)
	assert.Equal(t, 1, s.RunPending(context.Background(), due))

	st := s.Status()
	assert.True(t, st.Running)
	assert.Contains(t, st.Jobs[0].LastError, "does not exist")
	assert.True(t, st.Jobs[0].NextRun.After(due))
}

func TestScheduler_ManualBackup(t *testing.T) {
	svc, _ := newTestService(t, nil)
	s, err := NewScheduler(svc, testSchedulerConfig())
	require.NoError(t, err)

	rec, err := s.RunBackupNow(context.Background())
	require.NoError(t, err)
	assert.Positive(t, rec.Size)
	assert.False(t, s.Running(), "manual backups do not need the loop")
}
