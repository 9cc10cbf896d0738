package backup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/config"
	"github.com/rs/zerolog/log"
)

type SchedulerConfig struct {
	BackupEveryDays  int
	BackupAt         string // HH:MM
	CleanupEveryDays int
	CleanupAt        string // HH:MM
	RetentionDays    int
	Tick             time.Duration
}

// JobStatus is the public view of a scheduled job.
type JobStatus struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	NextRun     time.Time  `json:"next_run"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

type Status struct {
	Running bool        `json:"running"`
	Jobs    []JobStatus `json:"jobs"`
	Now     time.Time   `json:"now"`
}

type job struct {
	name        string
	description string
	every       int
	hour        int
	minute      int
	next        time.Time
	last        *time.Time
	lastErr     string
	run         func(ctx context.Context) error
}

// Scheduler runs the periodic backup and cleanup jobs on one background loop.
// It is either stopped or running; Start and Stop move between the two.
type Scheduler struct {
	svc *Service
	cfg SchedulerConfig
	now func() time.Time

	mu      sync.Mutex
	running bool
	jobs    []*job
	cancel  context.CancelFunc
	gen     int
	done    chan struct{}

	// serializes job runs with manual backups
	runMu sync.Mutex
}

func NewScheduler(svc *Service, cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.BackupEveryDays <= 0 || cfg.CleanupEveryDays <= 0 {
		return nil, fmt.Errorf("job intervals must be positive")
	}
	if cfg.RetentionDays <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Minute
	}
	for _, at := range []string{cfg.BackupAt, cfg.CleanupAt} {
		if _, _, err := config.ParseClock(at); err != nil {
			return nil, err
		}
	}
	return &Scheduler{svc: svc, cfg: cfg, now: svc.now}, nil
}

// nextRun is the calendar day `every` days after ref, at hour:minute.
func nextRun(ref time.Time, every, hour, minute int) time.Time {
	d := ref.AddDate(0, 0, every)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, ref.Location())
}

func (s *Scheduler) buildJobs(now time.Time) []*job {
	bh, bm, _ := config.ParseClock(s.cfg.BackupAt)
	ch, cm, _ := config.ParseClock(s.cfg.CleanupAt)
	retention := s.cfg.RetentionDays

	jobs := []*job{
		{
			name:        "backup",
			description: fmt.Sprintf("backup every %d days at %s, then prune files older than %d days", s.cfg.BackupEveryDays, s.cfg.BackupAt, retention),
			every:       s.cfg.BackupEveryDays,
			hour:        bh,
			minute:      bm,
			run: func(ctx context.Context) error {
				if _, err := s.backup(ctx, "scheduled"); err != nil {
					return err
				}
				_, err := s.prune(ctx, retention)
				return err
			},
		},
		{
			name:        "cleanup",
			description: fmt.Sprintf("prune files older than %d days every %d days at %s", retention, s.cfg.CleanupEveryDays, s.cfg.CleanupAt),
			every:       s.cfg.CleanupEveryDays,
			hour:        ch,
			minute:      cm,
			run: func(ctx context.Context) error {
				_, err := s.prune(ctx, retention)
				return err
			},
		},
	}
	for _, j := range jobs {
		j.next = nextRun(now, j.every, j.hour, j.minute)
	}
	return jobs
}

// Start schedules the jobs and launches the loop. The loop ends when Stop is
// called or ctx is cancelled. Starting a running scheduler does nothing and
// returns false.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Warn().Msg("backup scheduler already running")
		return false
	}

	now := s.now()
	s.jobs = s.buildJobs(now)
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.gen++
	s.done = make(chan struct{})

	go s.loop(loopCtx, s.gen, s.done)

	for _, j := range s.jobs {
		log.Info().Str("job", j.name).Time("next_run", j.next).Msg("backup job scheduled")
	}
	log.Info().Dur("tick", s.cfg.Tick).Msg("backup scheduler started")
	return true
}

func (s *Scheduler) loop(ctx context.Context, gen int, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// the parent context may end the loop without Stop
			s.mu.Lock()
			if s.gen == gen && s.running {
				s.running = false
				s.jobs = nil
				s.cancel()
				s.cancel = nil
			}
			s.mu.Unlock()
			log.Info().Msg("backup scheduler loop exited")
			return
		case <-ticker.C:
			s.RunPending(ctx, s.now())
		}
	}
}

// Stop signals the loop, waits for an in-flight job to finish and clears the
// job list. It returns false when the scheduler was not running.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return false
	}
	s.running = false
	s.jobs = nil
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	<-done
	log.Info().Msg("backup scheduler stopped")
	return true
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunPending runs every job due at now, one after another, and reschedules
// it. It returns the number of jobs that ran. Job failures are logged and
// recorded in the job status.
func (s *Scheduler) RunPending(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	var due []*job
	for _, j := range s.jobs {
		if !now.Before(j.next) {
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	for _, j := range due {
		if ctx.Err() != nil {
			break
		}

		// in-flight jobs run to completion even if Stop is called meanwhile
		err := j.run(context.WithoutCancel(ctx))

		s.mu.Lock()
		ran := now
		j.last = &ran
		j.next = nextRun(now, j.every, j.hour, j.minute)
		j.lastErr = ""
		if err != nil {
			j.lastErr = err.Error()
		}
		s.mu.Unlock()

		if err != nil {
			log.Error().Err(err).Str("job", j.name).Msg("scheduled backup job failed")
		} else {
			log.Info().Str("job", j.name).Time("next_run", j.next).Msg("scheduled backup job finished")
		}
	}
	return len(due)
}

// Status reports whether the loop runs, the scheduled jobs and the current time.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, JobStatus{
			Name:        j.name,
			Description: j.description,
			NextRun:     j.next,
			LastRun:     j.last,
			LastError:   j.lastErr,
		})
	}
	return Status{Running: s.running, Jobs: jobs, Now: s.now()}
}

// RunBackupNow takes a backup outside the schedule.
func (s *Scheduler) RunBackupNow(ctx context.Context) (Record, error) {
	return s.backup(ctx, "manual")
}

// PruneOlderThan prunes outside the schedule.
func (s *Scheduler) PruneOlderThan(ctx context.Context, days int) (int, error) {
	return s.prune(ctx, days)
}

func (s *Scheduler) backup(ctx context.Context, trigger string) (Record, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	rec, err := s.svc.RunBackupNow(ctx)
	if err != nil {
		log.Error().Err(err).Str("trigger", trigger).Msg("backup failed")
		return Record{}, err
	}
	log.Info().
		Str("trigger", trigger).
		Str("file", rec.Name).
		Int64("size", rec.Size).
		Str("blake2b", rec.Checksum).
		Dur("took", time.Since(start)).
		Msg("backup written")
	return rec, nil
}

func (s *Scheduler) prune(ctx context.Context, days int) (int, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	n, err := s.svc.PruneOlderThan(ctx, days)
	if err != nil {
		log.Error().Err(err).Int("days", days).Msg("backup cleanup failed")
		return n, err
	}
	log.Info().Int("deleted", n).Int("days", days).Msg("backup cleanup finished")
	return n, nil
}
