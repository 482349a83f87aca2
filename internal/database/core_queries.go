package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// FeedbackValueCount is the number of distinct feedback values, 0 through 3.
const FeedbackValueCount = 4

func (db *PgCoreRepository) GetRoom(ctx context.Context, id string) (Room, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, rev, owner_id, feedback_locked, created_at, updated_at FROM rooms WHERE id = $1 LIMIT 1",
		id,
	)

	var room Room
	err := row.Scan(
		&room.Id,
		&room.Rev,
		&room.OwnerId,
		&room.FeedbackLocked,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Room{}, ErrNotFound
	}
	if err != nil {
		return Room{}, err
	}

	rows, err := db.conn.QueryContext(ctx,
		"SELECT user_id FROM room_moderators WHERE room_id = $1 ORDER BY created_at, user_id",
		id,
	)
	if err != nil {
		return Room{}, fmt.Errorf("fetch moderators: %w", err)
	}
	defer rows.Close()

	room.Moderators = []string{}
	for rows.Next() {
		var userId string
		if err := rows.Scan(&userId); err != nil {
			return Room{}, fmt.Errorf("scan row: %w", err)
		}
		room.Moderators = append(room.Moderators, userId)
	}

	if err := rows.Err(); err != nil {
		return Room{}, fmt.Errorf("rows error: %w", err)
	}

	return room, nil
}

// CreateRoom inserts r with a fresh rev. Moderators of r are ignored.
func (db *PgCoreRepository) CreateRoom(ctx context.Context, r Room) (Room, error) {
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO rooms (id, rev, owner_id, feedback_locked, created_at, updated_at) "+
			"VALUES ($1, md5(random()::text), $2, $3, $4, $4)",
		r.Id,
		r.OwnerId,
		r.FeedbackLocked,
		now,
	)
	if err != nil {
		return Room{}, constraintError(err)
	}

	return db.GetRoom(ctx, r.Id)
}

// DeleteRoom removes the room with its moderators and feedback.
func (db *PgCoreRepository) DeleteRoom(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM feedback WHERE room_id = $1", id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// AddModerator makes userId a moderator of the room. Adding an existing
// moderator still bumps the rev.
func (db *PgCoreRepository) AddModerator(ctx context.Context, roomId, userId string) (Room, error) {
	return db.changeModerators(ctx, roomId,
		"INSERT INTO room_moderators (room_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userId,
	)
}

func (db *PgCoreRepository) RemoveModerator(ctx context.Context, roomId, userId string) (Room, error) {
	return db.changeModerators(ctx, roomId,
		"DELETE FROM room_moderators WHERE room_id = $1 AND user_id = $2",
		userId,
	)
}

// changeModerators runs query with (roomId, userId) and bumps the room's rev
// in the same transaction. The room row is locked first so concurrent
// changes of one room are serialized.
func (db *PgCoreRepository) changeModerators(ctx context.Context, roomId, query, userId string) (Room, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return Room{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE rooms SET rev = md5(random()::text), updated_at = $2 WHERE id = $1",
		roomId,
		time.Now().UTC(),
	)
	if err != nil {
		return Room{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Room{}, err
	}
	if n == 0 {
		return Room{}, ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, query, roomId, userId); err != nil {
		return Room{}, err
	}

	if err := tx.Commit(); err != nil {
		return Room{}, err
	}

	return db.GetRoom(ctx, roomId)
}

func (db *PgCoreRepository) SetFeedbackLocked(ctx context.Context, roomId string, locked bool) (Room, error) {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE rooms SET feedback_locked = $2, rev = md5(random()::text), updated_at = $3 WHERE id = $1",
		roomId,
		locked,
		time.Now().UTC(),
	)
	if err != nil {
		return Room{}, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return Room{}, err
	}
	if n == 0 {
		return Room{}, ErrNotFound
	}

	return db.GetRoom(ctx, roomId)
}

// UpsertFeedback records value as the user's current feedback, replacing any
// earlier value.
func (db *PgCoreRepository) UpsertFeedback(ctx context.Context, roomId, userId string, value int) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO feedback (room_id, user_id, value, updated_at) VALUES ($1, $2, $3, $4) "+
			"ON CONFLICT (room_id, user_id) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at",
		roomId,
		userId,
		value,
		time.Now().UTC(),
	)

	return err
}

// GetFeedbackValues returns the number of users per feedback value.
func (db *PgCoreRepository) GetFeedbackValues(ctx context.Context, roomId string) ([]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT value, count(*) FROM feedback WHERE room_id = $1 GROUP BY value",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]int, FeedbackValueCount)
	for rows.Next() {
		var value, count int
		if err := rows.Scan(&value, &count); err != nil {
			return nil, err
		}
		if value >= 0 && value < FeedbackValueCount {
			values[value] = count
		}
	}

	return values, rows.Err()
}

func (db *PgCoreRepository) DeleteFeedback(ctx context.Context, roomId string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM feedback WHERE room_id = $1", roomId)
	return err
}
