package event

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/geocoder89/scheduler/internal/apperr"
)

// Event is an appointment owned by one user on a calendar date.
type Event struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	User        *Owner    `json:"user,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Owner is the user summary embedded in listed events.
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// with pointers if optional, it will be nil
type ListEventsFilter struct {
	UserID *string
	From   *time.Time
	To     *time.Time
}

// Matches applies the filter the same way the SQL store does: From inclusive, To exclusive.
func (f ListEventsFilter) Matches(e Event) bool {
	if f.UserID != nil && e.UserID != *f.UserID {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && !e.Date.Before(*f.To) {
		return false
	}
	return true
}

var (
	ErrNotFound      = apperr.New(apperr.ErrNotFound, "event not found")
	ErrOwnerNotFound = apperr.New(apperr.ErrNotFound, "user not found")
)

// DayLayout addresses a calendar day. A bare day means midnight UTC.
const DayLayout = "2006-01-02"

// DateError reports a date that is neither RFC3339 nor a calendar day.
type DateError struct {
	Value string
}

func (e *DateError) Error() string {
	return "date must be an RFC3339 timestamp or YYYY-MM-DD"
}

// JSONField names the payload field the error belongs to.
func (e *DateError) JSONField() string { return "date" }

// DateInput is a request date: an RFC3339 timestamp or a picked calendar day.
type DateInput struct {
	time.Time
}

func DateAt(t time.Time) *DateInput {
	return &DateInput{Time: t}
}

func (d *DateInput) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return &DateError{Value: string(b)}
	}

	raw = strings.TrimSpace(raw)

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		d.Time = t.UTC()
		return nil
	}

	if t, err := time.ParseInLocation(DayLayout, raw, time.UTC); err == nil {
		d.Time = t
		return nil
	}

	return &DateError{Value: raw}
}

type CreateEventRequest struct {
	UserID      string     `json:"userId" binding:"omitempty,uuid"`
	Title       string     `json:"title" binding:"required,notblank,max=120"`
	Description string     `json:"description" binding:"omitempty,max=1000"`
	Date        *DateInput `json:"date" binding:"required"`
}

// UpdateEventRequest is a partial update: fields left out of the payload keep their stored value.
type UpdateEventRequest struct {
	ID          string     `json:"id" binding:"omitempty,uuid"`
	Title       *string    `json:"title" binding:"omitempty,notblank,max=120"`
	Description *string    `json:"description" binding:"omitempty,max=1000"`
	Date        *DateInput `json:"date"`
}

// Normalized trims the title so stores persist what Apply would produce.
func (r UpdateEventRequest) Normalized() UpdateEventRequest {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		r.Title = &title
	}
	return r
}

// DateValue is the new date in UTC, or nil when the date is left unchanged.
func (r UpdateEventRequest) DateValue() *time.Time {
	if r.Date == nil {
		return nil
	}
	t := r.Date.UTC()
	return &t
}

func (r UpdateEventRequest) Apply(e Event) Event {
	if r.Title != nil {
		e.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Date != nil {
		e.Date = r.Date.UTC()
	}
	return e
}
