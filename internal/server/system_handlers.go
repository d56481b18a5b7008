package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/mstamatakis/drachma/internal/scheduler"
	"github.com/mstamatakis/drachma/internal/session"
	"github.com/mstamatakis/drachma/internal/store"
)

// SystemHandlers serves system status and manual job triggers.
type SystemHandlers struct {
	log       zerolog.Logger
	session   *session.Session
	scheduler *scheduler.Scheduler
	jobs      map[string]scheduler.Job
	startedAt time.Time
}

// NewSystemHandlers creates system handlers. jobs may be empty when no
// background jobs are configured.
func NewSystemHandlers(log zerolog.Logger, sess *session.Session, sched *scheduler.Scheduler, jobs []scheduler.Job) *SystemHandlers {
	byName := make(map[string]scheduler.Job, len(jobs))
	for _, job := range jobs {
		byName[job.Name()] = job
	}
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		session:   sess,
		scheduler: sched,
		jobs:      byName,
		startedAt: time.Now(),
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	counts := map[string]int{}
	h.session.View(func(st *store.Store) {
		for _, table := range st.Tables() {
			counts[table] = st.Count(table)
		}
	})

	h.writeJSON(w, map[string]any{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"cpu_percent":    cpuPercent,
		"memory_percent": memPercent,
		"tables":         counts,
	})
}

// HandleJobsStatus handles GET /api/system/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	h.writeJSON(w, map[string]any{"jobs": names})
}

// HandleTriggerJob handles POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		http.Error(w, "unknown job: "+name, http.StatusNotFound)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job trigger")
	if err := h.scheduler.RunNow(job); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Job failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]string{
		"status": "success",
		"job":    name,
	})
}

// getSystemStats calculates CPU and RAM usage percentages. A short CPU
// sampling interval keeps the status endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
