package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Postgres error codes of the constraints the schema relies on.
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

const commentColumns = "id, room_id, creator_id, body, tag, answer, read, favorite, ack, correct, created_at, updated_at"

// constraintError maps a violated foreign key to ErrNotFound and a violated
// unique key to ErrConflict.
func constraintError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case foreignKeyViolation:
		return ErrNotFound
	case uniqueViolation:
		return ErrConflict
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (Comment, error) {
	var c Comment
	err := row.Scan(
		&c.Id,
		&c.RoomId,
		&c.CreatorId,
		&c.Body,
		&c.Tag,
		&c.Answer,
		&c.Read,
		&c.Favorite,
		&c.Ack,
		&c.Correct,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Comment{}, ErrNotFound
	}

	return c, err
}

func scanSettings(row rowScanner) (Settings, error) {
	var s Settings
	err := row.Scan(
		&s.RoomId,
		&s.DirectSend,
		&s.FileUploadEnabled,
		&s.Readonly,
		&s.Disabled,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, ErrNotFound
	}

	return s, err
}

func (db *PgRepository) GetSettings(ctx context.Context, roomId string) (Settings, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT room_id, direct_send, file_upload_enabled, readonly, disabled, created_at, updated_at "+
			"FROM settings WHERE room_id = $1 LIMIT 1",
		roomId,
	)

	return scanSettings(row)
}

func (db *PgRepository) CreateSettings(ctx context.Context, s Settings) (Settings, error) {
	now := time.Now().UTC()
	row := db.conn.QueryRowContext(ctx,
		"INSERT INTO settings (room_id, direct_send, file_upload_enabled, readonly, disabled, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) "+
			"RETURNING room_id, direct_send, file_upload_enabled, readonly, disabled, created_at, updated_at",
		s.RoomId,
		s.DirectSend,
		s.FileUploadEnabled,
		s.Readonly,
		s.Disabled,
		now,
		now,
	)

	created, err := scanSettings(row)
	if err != nil {
		return Settings{}, constraintError(err)
	}

	return created, nil
}

func (db *PgRepository) UpdateSettings(ctx context.Context, s Settings) (Settings, error) {
	row := db.conn.QueryRowContext(ctx,
		"UPDATE settings SET direct_send = $2, file_upload_enabled = $3, readonly = $4, disabled = $5, updated_at = $6 "+
			"WHERE room_id = $1 "+
			"RETURNING room_id, direct_send, file_upload_enabled, readonly, disabled, created_at, updated_at",
		s.RoomId,
		s.DirectSend,
		s.FileUploadEnabled,
		s.Readonly,
		s.Disabled,
		time.Now().UTC(),
	)

	return scanSettings(row)
}

func (db *PgRepository) GetComment(ctx context.Context, id string) (Comment, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE id = $1 LIMIT 1",
		id,
	)

	return scanComment(row)
}

func (db *PgRepository) CreateComment(ctx context.Context, c Comment) (Comment, error) {
	row := db.conn.QueryRowContext(ctx,
		"INSERT INTO comments ("+commentColumns+") "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11) "+
			"RETURNING "+commentColumns,
		c.Id,
		c.RoomId,
		c.CreatorId,
		c.Body,
		c.Tag,
		c.Answer,
		c.Read,
		c.Favorite,
		c.Ack,
		c.Correct,
		c.CreatedAt,
	)

	return scanComment(row)
}

func (db *PgRepository) UpdateComment(ctx context.Context, c Comment) (Comment, error) {
	row := db.conn.QueryRowContext(ctx,
		"UPDATE comments SET body = $2, tag = $3, answer = $4, read = $5, favorite = $6, ack = $7, correct = $8, updated_at = $9 "+
			"WHERE id = $1 RETURNING "+commentColumns,
		c.Id,
		c.Body,
		c.Tag,
		c.Answer,
		c.Read,
		c.Favorite,
		c.Ack,
		c.Correct,
		time.Now().UTC(),
	)

	return scanComment(row)
}

func (db *PgRepository) DeleteComment(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
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

	return nil
}

// DeleteCommentsByRoom removes all comments of a room and returns them in
// creation order.
func (db *PgRepository) DeleteCommentsByRoom(ctx context.Context, roomId string) ([]Comment, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE room_id = $1 ORDER BY created_at, id FOR UPDATE",
		roomId,
	)
	if err != nil {
		return nil, fmt.Errorf("select comments: %w", err)
	}

	var comments []Comment
	for rows.Next() {
		var c Comment
		c, err = scanComment(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan row: %w", err)
		}
		comments = append(comments, c)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM comments WHERE room_id = $1", roomId)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return comments, nil
}

func (db *PgRepository) CountAckedComments(ctx context.Context, roomIds []string) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT room_id, count(*) FROM comments WHERE ack AND room_id = ANY($1) GROUP BY room_id",
		pq.Array(roomIds),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int, len(roomIds))
	for rows.Next() {
		var (
			roomId string
			count  int
		)
		if err := rows.Scan(&roomId, &count); err != nil {
			return nil, err
		}
		counts[roomId] = count
	}

	return counts, rows.Err()
}

func (db *PgRepository) UpsertVote(ctx context.Context, v Vote) (Vote, error) {
	now := time.Now().UTC()
	row := db.conn.QueryRowContext(ctx,
		"INSERT INTO votes (id, user_id, comment_id, vote, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) "+
			"ON CONFLICT (user_id, comment_id) DO UPDATE SET vote = EXCLUDED.vote, updated_at = EXCLUDED.updated_at "+
			"RETURNING id, user_id, comment_id, vote, created_at, updated_at",
		v.Id,
		v.UserId,
		v.CommentId,
		v.Vote,
		now,
	)

	var out Vote
	err := row.Scan(
		&out.Id,
		&out.UserId,
		&out.CommentId,
		&out.Vote,
		&out.CreatedAt,
		&out.UpdatedAt,
	)

	if err != nil {
		return Vote{}, constraintError(err)
	}

	return out, nil
}

// DeleteVote reports whether a vote existed for the pair.
func (db *PgRepository) DeleteVote(ctx context.Context, userId, commentId string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		"DELETE FROM votes WHERE user_id = $1 AND comment_id = $2",
		userId,
		commentId,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (db *PgRepository) SumVotes(ctx context.Context, commentId string) (int, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(vote), 0) FROM votes WHERE comment_id = $1",
		commentId,
	)

	var score int
	err := row.Scan(&score)
	return score, err
}

func (db *PgRepository) CreateBonusToken(ctx context.Context, t BonusToken) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO bonus_tokens (room_id, comment_id, user_id, token, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) ON CONFLICT (room_id, comment_id, user_id) DO NOTHING",
		t.RoomId,
		t.CommentId,
		t.UserId,
		t.Token,
		t.CreatedAt,
	)

	return err
}

func (db *PgRepository) DeleteBonusToken(ctx context.Context, roomId, commentId, userId string) error {
	_, err := db.conn.ExecContext(ctx,
		"DELETE FROM bonus_tokens WHERE room_id = $1 AND comment_id = $2 AND user_id = $3",
		roomId,
		commentId,
		userId,
	)

	return err
}

func (db *PgRepository) GetRoomAccess(ctx context.Context, roomId string) ([]RoomAccess, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT room_id, user_id, role FROM room_access WHERE room_id = $1",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []RoomAccess
	for rows.Next() {
		var ra RoomAccess
		if err := rows.Scan(&ra.RoomId, &ra.UserId, &ra.Role); err != nil {
			return nil, err
		}
		entries = append(entries, ra)
	}

	return entries, rows.Err()
}

// ReplaceRoomAccess swaps the cached access list of a room for entries built
// from revision rev. It reports false when rev is already cached.
func (db *PgRepository) ReplaceRoomAccess(ctx context.Context, roomId, rev string, entries []RoomAccess) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var current string
	err = tx.QueryRowContext(ctx,
		"SELECT rev FROM room_access_revisions WHERE room_id = $1 FOR UPDATE",
		roomId,
	).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		return false, err
	case current == rev:
		tx.Rollback()
		return false, nil
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM room_access WHERE room_id = $1", roomId)
	if err != nil {
		return false, err
	}

	for _, e := range entries {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO room_access (room_id, user_id, role) VALUES ($1, $2, $3) "+
				"ON CONFLICT (room_id, user_id) DO UPDATE SET role = EXCLUDED.role",
			roomId,
			e.UserId,
			e.Role,
		)
		if err != nil {
			return false, err
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO room_access_revisions (room_id, rev, updated_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (room_id) DO UPDATE SET rev = EXCLUDED.rev, updated_at = EXCLUDED.updated_at",
		roomId,
		rev,
		time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}

	return true, nil
}

// DeleteRoomAccess drops the cached access list of a room together with its
// revision, so the next sync response is applied whatever its rev.
func (db *PgRepository) DeleteRoomAccess(ctx context.Context, roomId string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM room_access WHERE room_id = $1", roomId); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM room_access_revisions WHERE room_id = $1", roomId); err != nil {
		return err
	}

	return tx.Commit()
}
