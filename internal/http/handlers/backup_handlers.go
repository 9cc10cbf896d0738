package handlers

import (
	"net/http"

	"github.com/rogerio-castellano/stationery-tracker/internal/backup"
)

// GetBackupsHandler godoc
// @Summary List backup files
// @Tags backups
// @Produce json
// @Success 200 {object} Response{data=[]backup.Record}
// @Router /backups [get]
func (s *Server) GetBackupsHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.Backups.ListBackups(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if records == nil {
		records = []backup.Record{}
	}
	respond(w, http.StatusOK, "", records)
}

// GetBackupStatusHandler godoc
// @Summary Backup directory summary and scheduler state
// @Tags backups
// @Produce json
// @Success 200 {object} Response{data=BackupStatus}
// @Router /backups/status [get]
func (s *Server) GetBackupStatusHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.Backups.ListBackups(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	status := BackupStatus{
		Dir:           s.Backups.Dir(),
		Count:         len(records),
		RetentionDays: s.RetentionDays,
		Scheduler:     s.Scheduler.Status(),
	}
	if len(records) > 0 {
		status.Latest = &records[0]
	}
	respond(w, http.StatusOK, "", status)
}

// CreateBackupHandler godoc
// @Summary Take a backup now
// @Tags backups
// @Produce json
// @Success 201 {object} Response{data=backup.Record}
// @Failure 500 {object} Response
// @Router /backups [post]
func (s *Server) CreateBackupHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Scheduler.RunBackupNow(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "backup created", rec)
}

// PruneBackupsHandler godoc
// @Summary Delete old backups
// @Tags backups
// @Produce json
// @Param days query int false "Age in days (defaults to the retention window)"
// @Success 200 {object} Response{data=PruneResult}
// @Failure 400 {object} Response
// @Router /backups/prune [delete]
func (s *Server) PruneBackupsHandler(w http.ResponseWriter, r *http.Request) {
	days := s.RetentionDays
	if v := r.URL.Query().Get("days"); v != "" {
		d, err := parseStrictInt(v)
		if err != nil {
			badRequest(w, "invalid days")
			return
		}
		days = *d
	}

	n, err := s.Scheduler.PruneOlderThan(r.Context(), days)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "old backups deleted", PruneResult{Deleted: n, Days: days})
}

// GetSchedulerHandler godoc
// @Summary Scheduler state and jobs
// @Tags backups
// @Produce json
// @Success 200 {object} Response{data=backup.Status}
// @Router /backups/scheduler [get]
func (s *Server) GetSchedulerHandler(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "", s.Scheduler.Status())
}

// StartSchedulerHandler godoc
// @Summary Start the backup scheduler
// @Tags backups
// @Produce json
// @Success 200 {object} Response{data=backup.Status}
// @Router /backups/scheduler/start [post]
func (s *Server) StartSchedulerHandler(w http.ResponseWriter, r *http.Request) {
	msg := "scheduler already running"
	if s.Scheduler.Start(s.baseContext()) {
		msg = "scheduler started"
	}
	respond(w, http.StatusOK, msg, s.Scheduler.Status())
}

// StopSchedulerHandler godoc
// @Summary Stop the backup scheduler
// @Tags backups
// @Produce json
// @Success 200 {object} Response{data=backup.Status}
// @Router /backups/scheduler/stop [post]
func (s *Server) StopSchedulerHandler(w http.ResponseWriter, r *http.Request) {
	msg := "scheduler was not running"
	if s.Scheduler.Stop() {
		msg = "scheduler stopped"
	}
	respond(w, http.StatusOK, msg, s.Scheduler.Status())
}
