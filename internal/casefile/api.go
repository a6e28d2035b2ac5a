package casefile

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rtwworks/platform/internal/shared/auth"
	"github.com/rtwworks/platform/internal/shared/errors"
	"github.com/rtwworks/platform/internal/shared/events"
	"github.com/rtwworks/platform/internal/shared/metrics"
	"github.com/rtwworks/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the case module
type Handler struct {
	repo Repository
	bus  events.EventBus
}

// NewHandler creates a new case handler
func NewHandler(repo Repository, bus events.EventBus) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the case routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListCases)
	r.Post("/", h.CreateCase)

	r.Route("/{caseID}", func(r chi.Router) {
		r.Get("/", h.GetCase)
		r.Put("/", h.UpdateCase)
		r.Delete("/", h.DeleteCase)

		r.Post("/notes/{noteID}/read", h.MarkNoteRead)
	})

	return r
}

// --- Request types ---

type CreateCaseRequest struct {
	ClaimNumber     string   `json:"claim_number"`
	WorkerFirstName string   `json:"worker_first_name"`
	WorkerLastName  string   `json:"worker_last_name"`
	Employer        string   `json:"employer"`
	InjuryDate      string   `json:"injury_date"`
	ConsultantID    types.ID `json:"consultant_id"`
}

type UpdateCaseRequest struct {
	WorkerFirstName *string     `json:"worker_first_name,omitempty"`
	WorkerLastName  *string     `json:"worker_last_name,omitempty"`
	Employer        *string     `json:"employer,omitempty"`
	ConsultantID    *types.ID   `json:"consultant_id,omitempty"`
	CaseManager     *string     `json:"case_manager,omitempty"`
	InjuryDate      *string     `json:"injury_date,omitempty"`
	Status          *CaseStatus `json:"status,omitempty"`

	ReviewDates     *[]string         `json:"review_dates,omitempty"`
	RTWPlan         *RTWPlan          `json:"rtw_plan,omitempty"`
	Communications  *[]Communication  `json:"communications,omitempty"`
	Documents       *[]Document       `json:"documents,omitempty"`
	SupervisorNotes *[]SupervisorNote `json:"supervisor_notes,omitempty"`
}

// --- Handlers ---

func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var cases []Case
	var err error

	// Consultants see their own caseload; supervisors and support see all
	if user != nil && user.Role == auth.RoleConsultant {
		cases, err = h.repo.FindByConsultant(r.Context(), user.ID)
	} else {
		cases, err = h.repo.ListAll(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filtered := make([]Case, 0, len(cases))
		for _, c := range cases {
			if c.Status == CaseStatus(status) {
				filtered = append(filtered, c)
			}
		}
		cases = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  cases,
		"total": len(cases),
	})
}

func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid case ID"))
		return
	}

	c, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	c, err := NewCase(req.ClaimNumber, req.WorkerFirstName, req.WorkerLastName,
		req.Employer, req.InjuryDate, req.ConsultantID)
	if err != nil {
		writeError(w, errors.BadRequest(err.Error()))
		return
	}

	if err := h.repo.Save(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordCaseMutation("create")
	h.publish(r.Context(), events.EventCaseCreated, c)

	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid case ID"))
		return
	}

	var req UpdateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	c, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	applyUpdate(c, &req)
	c.UpdatedAt = time.Now()

	if err := h.repo.Update(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordCaseMutation("update")
	h.publish(r.Context(), events.EventCaseUpdated, c)

	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCase(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid case ID"))
		return
	}

	c, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordCaseMutation("delete")
	h.publish(r.Context(), events.EventCaseDeleted, c)

	w.WriteHeader(http.StatusNoContent)
}

// MarkNoteRead records the current user in a supervisor note's read set.
// This is the persistent counterpart of the session-local notification
// overlay: once read here, the note stops producing notifications on
// future derivation passes.
func (h *Handler) MarkNoteRead(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("not authenticated"))
		return
	}

	caseID, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid case ID"))
		return
	}
	noteID, err := types.ParseID(chi.URLParam(r, "noteID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid note ID"))
		return
	}

	c, err := h.repo.FindByID(r.Context(), caseID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := c.MarkNoteRead(noteID, user.ID); err != nil {
		writeError(w, errors.NotFound("supervisor note", noteID.String()))
		return
	}

	if err := h.repo.Update(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// --- Helpers ---

func applyUpdate(c *Case, req *UpdateCaseRequest) {
	if req.WorkerFirstName != nil {
		c.WorkerFirstName = *req.WorkerFirstName
	}
	if req.WorkerLastName != nil {
		c.WorkerLastName = *req.WorkerLastName
	}
	if req.Employer != nil {
		c.Employer = *req.Employer
	}
	if req.ConsultantID != nil {
		c.ConsultantID = *req.ConsultantID
	}
	if req.CaseManager != nil {
		c.CaseManager = *req.CaseManager
	}
	if req.InjuryDate != nil {
		c.InjuryDate = *req.InjuryDate
	}
	if req.Status != nil {
		c.Status = *req.Status
	}
	if req.ReviewDates != nil {
		c.ReviewDates = *req.ReviewDates
	}
	if req.RTWPlan != nil {
		c.RTWPlan = req.RTWPlan
	}
	if req.Communications != nil {
		c.Communications = *req.Communications
	}
	if req.Documents != nil {
		c.Documents = *req.Documents
	}
	if req.SupervisorNotes != nil {
		c.SupervisorNotes = *req.SupervisorNotes
	}
}

func (h *Handler) publish(ctx context.Context, eventType string, c *Case) {
	if h.bus == nil {
		return
	}

	event := events.NewEvent(eventType, "casefile", c.ID, map[string]any{
		"claim_number": c.ClaimNumber,
		"status":       c.Status,
	})
	if user := auth.UserFromContext(ctx); user != nil {
		event = event.WithActor(user.ID, user.Name)
	}

	h.bus.Publish(ctx, event)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
