package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/scheduler/internal/authz"
	"github.com/geocoder89/scheduler/internal/domain/event"
	"github.com/geocoder89/scheduler/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EventsStore interface {
	Create(ctx context.Context, e event.Event) (event.Event, error)
	List(ctx context.Context, filter event.ListEventsFilter) ([]event.Event, error)
	GetByID(ctx context.Context, id string) (event.Event, error)
	Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error)
	Delete(ctx context.Context, id string) error
}

type EventsHandler struct {
	store         EventsStore
	policy        authz.Policy
	emptyNotFound bool
}

func NewEventsHandler(store EventsStore, policy authz.Policy, emptyNotFound bool) *EventsHandler {
	return &EventsHandler{store: store, policy: policy, emptyNotFound: emptyNotFound}
}

// ListEvents supports ?date=YYYY-MM-DD for one calendar day, [00:00, 24:00) UTC, and ?userId= for one owner.
func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	var filter event.ListEventsFilter

	if raw := ctx.Query("date"); raw != "" {
		day, err := time.ParseInLocation(event.DayLayout, raw, time.UTC)
		if err != nil {
			RespondBadRequest(ctx, "date must be formatted as YYYY-MM-DD", nil)
			return
		}
		next := day.AddDate(0, 0, 1)
		filter.From = &day
		filter.To = &next
	}

	if raw := ctx.Query("userId"); raw != "" {
		if _, err := uuid.Parse(raw); err != nil {
			RespondBadRequest(ctx, "userId must be a valid UUID", nil)
			return
		}
		filter.UserID = &raw
	}

	events, err := h.store.List(ctx.Request.Context(), filter)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	if len(events) == 0 && h.emptyNotFound {
		RespondNotFound(ctx, "No events found")
		return
	}

	RespondOK(ctx, http.StatusOK, "Events retrieved", events)
}

func (h *EventsHandler) GetEventById(ctx *gin.Context) {
	id, ok := resolveID(ctx, "")
	if !ok {
		return
	}

	e, err := h.store.GetByID(ctx.Request.Context(), id)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, "Event retrieved", e)
}

// CreateEvent books an event for the caller, or for userId when the caller may manage that user's events.
func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var req event.CreateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	claim, _ := middlewares.IdentityFromContext(ctx)

	ownerID := claim.ID
	if req.UserID != "" {
		ownerID = req.UserID
	}

	if !authz.Authorize(claim, h.policy.ModifyEvent(ownerID)) {
		RespondForbidden(ctx)
		return
	}

	e, err := h.store.Create(ctx.Request.Context(), event.NewFromCreateRequest(req, ownerID))
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusCreated, "Event created", e)
}

// UpdateEvent is partial: fields left out keep their stored value.
func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	var req event.UpdateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	id, ok := resolveID(ctx, req.ID)
	if !ok {
		return
	}

	if req.Title == nil && req.Description == nil && req.Date == nil {
		RespondBadRequest(ctx, "No fields to update", nil)
		return
	}

	if !h.authorizeOwner(ctx, id) {
		return
	}

	e, err := h.store.Update(ctx.Request.Context(), id, req.Normalized())
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Event updated", e)
}

func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
	id, ok := resolveDeleteID(ctx)
	if !ok {
		return
	}

	if !h.authorizeOwner(ctx, id) {
		return
	}

	if err := h.store.Delete(ctx.Request.Context(), id); err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Event deleted", nil)
}

// authorizeOwner loads the event and checks the caller may modify it.
// It writes the response and returns false on 404 or 403.
func (h *EventsHandler) authorizeOwner(ctx *gin.Context, id string) bool {
	existing, err := h.store.GetByID(ctx.Request.Context(), id)
	if err != nil {
		RespondErr(ctx, err)
		return false
	}

	claim, _ := middlewares.IdentityFromContext(ctx)
	if !authz.Authorize(claim, h.policy.ModifyEvent(existing.UserID)) {
		RespondForbidden(ctx)
		return false
	}
	return true
}
