package engine

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rtwworks/platform/internal/casefile"
	"github.com/rtwworks/platform/internal/directory"
	"github.com/rtwworks/platform/internal/shared/auth"
	"github.com/rtwworks/platform/internal/shared/errors"
	"github.com/rtwworks/platform/internal/shared/metrics"
	"github.com/rtwworks/platform/internal/shared/types"
)

// Handler serves the derived alert surfaces. Every GET runs a fresh
// derivation pass over the current case set; nothing derived is stored.
type Handler struct {
	cases    casefile.Repository
	users    directory.Repository
	overlays *OverlayStore
	now      func() time.Time
}

func NewHandler(cases casefile.Repository, users directory.Repository) *Handler {
	return &Handler{
		cases:    cases,
		users:    users,
		overlays: NewOverlayStore(),
		now:      time.Now,
	}
}

// Routes returns the alert endpoints. Flags and workloads are management
// surfaces and require the admin role.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/notifications", h.GetNotifications)
	r.Post("/notifications/{notificationID}/read", h.MarkNotificationRead)
	r.Post("/notifications/{notificationID}/dismiss", h.DismissNotification)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Get("/flags", h.GetCaseFlags)
		r.Get("/workloads", h.GetWorkloads)
	})

	return r
}

// GetNotifications derives the current user's notifications from their
// visible case set and applies their read/dismissed overlay.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	cases, err := h.visibleCases(r, user)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	notifications, diag := DeriveNotifications(cases, user, h.now())
	notifications = h.overlays.For(user.ID).Apply(notifications)
	metrics.RecordDerivationPass("notifications", time.Since(start))
	recordDiagnostics(diag)
	for _, n := range notifications {
		metrics.RecordSignal(string(n.Kind))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":     notifications,
		"total":    len(notifications),
		"unread":   UnreadCount(notifications),
		"critical": CriticalCount(notifications),
	})
}

// MarkNotificationRead records a read against the user's overlay. The ID is
// accepted without checking it against a derivation pass; a stale ID simply
// never matches again.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	h.updateOverlay(w, r, func(o *Overlay, id types.ID) { o.MarkRead(id) })
}

// DismissNotification hides the notification from the user's future passes.
func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	h.updateOverlay(w, r, func(o *Overlay, id types.ID) { o.Dismiss(id) })
}

func (h *Handler) updateOverlay(w http.ResponseWriter, r *http.Request, apply func(*Overlay, types.ID)) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "notificationID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid notification ID"))
		return
	}

	apply(h.overlays.For(user.ID), id)
	w.WriteHeader(http.StatusNoContent)
}

// GetCaseFlags derives the impersonal flag list over the whole case set.
// A directory outage degrades consultant names to "Unknown" instead of
// failing the request.
func (h *Handler) GetCaseFlags(w http.ResponseWriter, r *http.Request) {
	cases, err := h.cases.ListAll(r.Context())
	if err != nil {
		writeError(w, errors.Internal(err))
		return
	}

	index := directory.NameIndex{}
	if users, err := h.users.ListAll(r.Context()); err == nil {
		index = directory.BuildNameIndex(users)
	}

	start := time.Now()
	flags, diag := DeriveCaseFlags(cases, index, h.now())
	metrics.RecordDerivationPass("flags", time.Since(start))
	recordDiagnostics(diag)

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  flags,
		"total": len(flags),
	})
}

// GetWorkloads derives per-consultant caseload metrics.
func (h *Handler) GetWorkloads(w http.ResponseWriter, r *http.Request) {
	cases, err := h.cases.ListAll(r.Context())
	if err != nil {
		writeError(w, errors.Internal(err))
		return
	}

	start := time.Now()
	workloads, diag := DeriveWorkloads(cases, h.now())
	metrics.RecordDerivationPass("workloads", time.Since(start))
	recordDiagnostics(diag)

	items := make([]workloadResponse, len(workloads))
	for i, wl := range workloads {
		items[i] = workloadResponse{ConsultantWorkload: wl, Overloaded: wl.Overloaded()}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"total": len(items),
	})
}

type workloadResponse struct {
	ConsultantWorkload
	Overloaded bool `json:"overloaded"`
}

// visibleCases scopes derivation input by role: consultants see their own
// caseload, admin and support staff see everything.
func (h *Handler) visibleCases(r *http.Request, user *auth.User) ([]casefile.Case, error) {
	if user.Role == auth.RoleConsultant {
		cases, err := h.cases.FindByConsultant(r.Context(), user.ID)
		if err != nil {
			return nil, errors.Internal(err)
		}
		return cases, nil
	}

	cases, err := h.cases.ListAll(r.Context())
	if err != nil {
		return nil, errors.Internal(err)
	}
	return cases, nil
}

func recordDiagnostics(diag *Diagnostics) {
	for range diag.Items() {
		metrics.RecordMalformedDateField()
	}
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
