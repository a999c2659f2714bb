package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/scheduler/internal/domain/event"
	"github.com/geocoder89/scheduler/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// constructor function

func NewEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{
		pool: pool,
		prom: prom,
	}
}

const eventColumns = `e.id, e.user_id, e.title, e.description, e.date, e.created_at, e.updated_at, u.id, u.name, u.email`

func scanEvent(row pgx.Row) (event.Event, error) {
	var e event.Event
	var owner event.Owner

	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Title,
		&e.Description,
		&e.Date,
		&e.CreatedAt,
		&e.UpdatedAt,
		&owner.ID,
		&owner.Name,
		&owner.Email,
	)
	if err != nil {
		return event.Event{}, err
	}

	e.Date = e.Date.UTC()
	e.User = &owner
	return e, nil
}

func (r *EventsRepo) Create(ctx context.Context, e event.Event) (event.Event, error) {
	var out event.Event

	err := r.prom.ObserveDB("events.create", func() error {
		var err error
		out, err = scanEvent(r.pool.QueryRow(ctx, `
			WITH e AS (
				INSERT INTO events (id, user_id, title, description, date, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING *
			)
			SELECT `+eventColumns+`
			FROM e
			JOIN users u ON u.id = e.user_id`,
			e.ID, e.UserID, e.Title, e.Description, e.Date, e.CreatedAt, e.UpdatedAt,
		))
		return err
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return event.Event{}, event.ErrOwnerNotFound
		}
		return event.Event{}, err
	}

	return out, nil
}

func (r *EventsRepo) List(ctx context.Context, filter event.ListEventsFilter) ([]event.Event, error) {
	baseQuery := `
		SELECT ` + eventColumns + `
		FROM events e
		JOIN users u ON u.id = e.user_id`

	var conds []string
	var args []any

	argsPosition := 1

	if filter.UserID != nil {
		conds = append(conds, fmt.Sprintf("e.user_id = $%d", argsPosition))
		args = append(args, *filter.UserID)
		argsPosition++
	}

	// From is inclusive, To exclusive: a calendar day is [midnight, next midnight)
	if filter.From != nil {
		conds = append(conds, fmt.Sprintf("e.date >= $%d", argsPosition))
		args = append(args, *filter.From)
		argsPosition++
	}

	if filter.To != nil {
		conds = append(conds, fmt.Sprintf("e.date < $%d", argsPosition))
		args = append(args, *filter.To)
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY e.date ASC, e.id ASC"

	out := make([]event.Event, 0)

	err := r.prom.ObserveDB("events.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEvent(rows)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	var e event.Event

	err := r.prom.ObserveDB("events.get_by_id", func() error {
		var err error
		e, err = scanEvent(r.pool.QueryRow(ctx, `
			SELECT `+eventColumns+`
			FROM events e
			JOIN users u ON u.id = e.user_id
			WHERE e.id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}

	return e, nil
}

// Update writes only the fields present in req; the others keep their stored value.
func (r *EventsRepo) Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error) {
	var e event.Event

	err := r.prom.ObserveDB("events.update", func() error {
		var err error
		e, err = scanEvent(r.pool.QueryRow(ctx, `
			WITH e AS (
				UPDATE events
				SET title = COALESCE($2, title),
					description = COALESCE($3, description),
					date = COALESCE($4, date),
					updated_at = NOW()
				WHERE id = $1
				RETURNING *
			)
			SELECT `+eventColumns+`
			FROM e
			JOIN users u ON u.id = e.user_id`,
			id, req.Title, req.Description, req.DateValue(),
		))
		return err
	})
	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}

	return e, nil
}

func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	return r.prom.ObserveDB("events.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		if err != nil {
			return err
		}

		// if no rows were deleted as a result return a not found error
		if tag.RowsAffected() == 0 {
			return event.ErrNotFound
		}
		return nil
	})
}
