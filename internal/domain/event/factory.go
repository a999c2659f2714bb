package event

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewFromCreateRequest builds the event to store. The title is trimmed and the date kept in UTC.
func NewFromCreateRequest(req CreateEventRequest, ownerID string) Event {
	now := time.Now().UTC()

	var date time.Time
	if req.Date != nil {
		date = req.Date.UTC()
	}

	return Event{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
