package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/models"
	"github.com/HSousa1987/Lavandaria-sub001/internal/envelope"
	"github.com/HSousa1987/Lavandaria-sub001/internal/repository"
)

type jobView struct {
	ID           int64   `json:"id"`
	ClientID     string  `json:"clientId"`
	AssignedTo   *string `json:"assignedTo"`
	Kind         string  `json:"kind"`
	Status       string  `json:"status"`
	Address      string  `json:"address,omitempty"`
	ScheduledFor *string `json:"scheduledFor"`
	CreatedAt    string  `json:"createdAt"`
}

func newJobView(j *models.Job) jobView {
	v := jobView{
		ID:         j.ID,
		ClientID:   j.ClientID,
		AssignedTo: j.AssignedTo,
		Kind:       j.Kind,
		Status:     j.Status,
		Address:    j.Address,
		CreatedAt:  envelope.FormatTimestamp(j.CreatedAt),
	}
	v.ScheduledFor = formatOptionalTime(j.ScheduledFor)
	return v
}

func newJobViews(jobs []models.Job) []jobView {
	out := make([]jobView, 0, len(jobs))
	for i := range jobs {
		out = append(out, newJobView(&jobs[i]))
	}
	return out
}

// jobHandlers serves the client and staff job routes. Every single-job read
// answers JOB_NOT_FOUND both for missing jobs and for jobs the caller does
// not own or is not assigned to.
type jobHandlers struct {
	jobs repository.JobRepository
}

// loadJob fetches the job named by the {id} URL parameter, mapping malformed
// ids and missing rows to ErrJobNotFound.
func (h *jobHandlers) loadJob(r *http.Request) (*models.Job, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrJobNotFound
	}
	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (h *jobHandlers) HandleClientJobs(_ http.ResponseWriter, r *http.Request) (envelope.Fields, error) {
	p, err := principalFrom(r)
	if err != nil {
		return nil, err
	}
	jobs, err := h.jobs.ListByClient(r.Context(), p.ID)
	if err != nil {
		return nil, err
	}
	return envelope.Fields{"jobs": newJobViews(jobs)}, nil
}

func (h *jobHandlers) HandleClientJob(_ http.ResponseWriter, r *http.Request) (envelope.Fields, error) {
	p, err := principalFrom(r)
	if err != nil {
		return nil, err
	}
	job, err := h.loadJob(r)
	if err != nil {
		return nil, err
	}
	if job.ClientID != p.ID {
		return nil, ErrJobNotFound
	}
	return envelope.Fields{"job": newJobView(job)}, nil
}

// HandleStaffJobs lists every job for admins and masters and only assigned
// jobs for workers.
func (h *jobHandlers) HandleStaffJobs(_ http.ResponseWriter, r *http.Request) (envelope.Fields, error) {
	p, err := principalFrom(r)
	if err != nil {
		return nil, err
	}
	var jobs []models.Job
	if p.Type == auth.PrincipalTypeWorker {
		jobs, err = h.jobs.ListByAssignee(r.Context(), p.ID)
	} else {
		jobs, err = h.jobs.List(r.Context())
	}
	if err != nil {
		return nil, err
	}
	return envelope.Fields{"jobs": newJobViews(jobs)}, nil
}

func (h *jobHandlers) HandleStaffJob(_ http.ResponseWriter, r *http.Request) (envelope.Fields, error) {
	p, err := principalFrom(r)
	if err != nil {
		return nil, err
	}
	job, err := h.loadJob(r)
	if err != nil {
		return nil, err
	}
	if p.Type == auth.PrincipalTypeWorker && (job.AssignedTo == nil || *job.AssignedTo != p.ID) {
		return nil, ErrJobNotFound
	}
	return envelope.Fields{"job": newJobView(job)}, nil
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := envelope.FormatTimestamp(*t)
	return &s
}
