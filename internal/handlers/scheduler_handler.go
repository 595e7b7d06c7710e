package handlers

import (
	"net/http"

	"github.com/ternarybob/vipaii/internal/services/scheduler"
)

// JobScheduler exposes housekeeping job status and manual triggers
type JobScheduler interface {
	GetAllJobStatuses() []*scheduler.JobStatus
	TriggerJob(name string) error
}

// SchedulerHandler handles scheduler-related endpoints
type SchedulerHandler struct {
	scheduler JobScheduler
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(scheduler JobScheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler}
}

// ListJobsHandler handles GET /api/scheduler/jobs
func (h *SchedulerHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, h.scheduler.GetAllJobStatuses())
}

// TriggerJobHandler handles POST /api/scheduler/jobs/{name}/trigger
func (h *SchedulerHandler) TriggerJobHandler(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.scheduler.TriggerJob(name); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Job triggered",
	})
}
