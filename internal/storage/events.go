package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// offsetFrom is the signed distance in seconds between commands.videotime
// and the bound timestamp parameter, computed by SQLite.
const offsetFrom = "(CAST(strftime('%s', commands.videotime) AS INTEGER) - CAST(strftime('%s', ?) AS INTEGER))"

// AnnotatedEvents returns every codes row with a non-empty retrospective,
// in table order. A row whose videotime SQLite cannot read aborts the read,
// since every window around it would count zero.
func (s *SQLiteStorage) AnnotatedEvents(ctx context.Context) ([]AnnotatedEvent, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT CAST(participant AS TEXT), videotime,
			CAST(strftime('%s', videotime) AS INTEGER), retrospective, forks
		FROM codes
		WHERE retrospective <> ''
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query codes: %w", err)
	}
	defer rows.Close()

	var events []AnnotatedEvent
	for rows.Next() {
		var event AnnotatedEvent
		var epoch sql.NullInt64
		var forks int64

		if err := rows.Scan(
			&event.Participant,
			&event.VideoTime,
			&epoch,
			&event.Retrospective,
			&forks,
		); err != nil {
			return nil, fmt.Errorf("failed to scan codes row: %w", err)
		}
		if !epoch.Valid {
			return nil, fmt.Errorf("codes row (participant %s): unreadable videotime %q",
				event.Participant, event.VideoTime)
		}
		event.Timestamp = time.Unix(epoch.Int64, 0).UTC()
		event.Forks = int(forks)

		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read codes: %w", err)
	}

	return events, nil
}

// CountInWindow counts interaction events matching q, boundaries included.
func (s *SQLiteStorage) CountInWindow(ctx context.Context, q WindowQuery) (int, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM commands
		WHERE %s = ?
		AND CAST(participant AS TEXT) = ?
		AND %s BETWEEN ? AND ?
	`, q.Field.Column(), offsetFrom)

	var count int
	err = db.QueryRowContext(ctx, query,
		q.Name, q.Participant, q.Anchor, q.Start, q.End,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s %q: %w", q.Field, q.Name, err)
	}

	return count, nil
}

// EventsInWindow returns the interaction events matching q, oldest first.
func (s *SQLiteStorage) EventsInWindow(ctx context.Context, q WindowQuery) ([]InteractionEvent, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT CAST(participant AS TEXT), videotime,
			CAST(strftime('%%s', videotime) AS INTEGER), command, COALESCE(eclipsecommand, '')
		FROM commands
		WHERE %s = ?
		AND CAST(participant AS TEXT) = ?
		AND %s BETWEEN ? AND ?
		ORDER BY CAST(strftime('%%s', videotime) AS INTEGER)
	`, q.Field.Column(), offsetFrom)

	rows, err := db.QueryContext(ctx, query,
		q.Name, q.Participant, q.Anchor, q.Start, q.End,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s %q: %w", q.Field, q.Name, err)
	}
	defer rows.Close()

	var events []InteractionEvent
	for rows.Next() {
		var event InteractionEvent
		var epoch int64
		if err := rows.Scan(
			&event.Participant,
			&event.VideoTime,
			&epoch,
			&event.Command,
			&event.EclipseCommand,
		); err != nil {
			return nil, fmt.Errorf("failed to scan commands row: %w", err)
		}

		// Matching a numeric window means the epoch is never NULL here.
		event.Timestamp = time.Unix(epoch, 0).UTC()
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read commands: %w", err)
	}

	return events, nil
}

// CountFollowUps counts q.Target command events of the participant strictly
// after q.Trigger and strictly less than q.Bound seconds after q.Anchor.
func (s *SQLiteStorage) CountFollowUps(ctx context.Context, q FollowUpQuery) (int, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM commands
		WHERE command = ?
		AND CAST(participant AS TEXT) = ?
		AND %s > 0
		AND %s < ?
	`, offsetFrom, offsetFrom)

	var count int
	err = db.QueryRowContext(ctx, query,
		q.Target, q.Participant, q.Trigger, q.Anchor, q.Bound,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %q after %s: %w", q.Target, q.Trigger, err)
	}

	return count, nil
}

// EventNames lists distinct command and eclipse command names with their
// occurrence counts, commands first, each group sorted by name.
func (s *SQLiteStorage) EventNames(ctx context.Context) ([]EventName, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var names []EventName
	for _, field := range []Field{FieldCommand, FieldEclipseCommand} {
		query := fmt.Sprintf(`
			SELECT %[1]s, COUNT(*) FROM commands
			WHERE %[1]s IS NOT NULL AND %[1]s <> ''
			GROUP BY %[1]s
			ORDER BY %[1]s
		`, field.Column())

		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s names: %w", field, err)
		}

		for rows.Next() {
			name := EventName{Field: field}
			if err := rows.Scan(&name.Name, &name.Count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan %s name: %w", field, err)
			}
			names = append(names, name)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s names: %w", field, err)
		}
	}

	return names, nil
}
