package store

import (
	"context"
	"database/sql"
	"errors"

	"examhall/internal/exam"
)

// CreateRoom inserts a room and its ordered question snapshot in one
// transaction. Name uniqueness is checked against active rooms only, so
// a finished room's name can be reused.
func (s *Store) CreateRoom(ctx context.Context, name string, ownerID int64, durationSeconds int, questionIDs []int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(
		ctx,
		`SELECT id FROM rooms WHERE name = ? AND finished = 0 LIMIT 1`,
		name,
	).Scan(&existing)
	if err == nil {
		return 0, exam.ErrRoomExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO rooms (name, owner_id, duration_seconds, started, finished) VALUES (?, ?, ?, 0, 0)`,
		name,
		ownerID,
		durationSeconds,
	)
	if err != nil {
		return 0, err
	}

	roomID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for position, questionID := range questionIDs {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO room_questions (room_id, question_id, position) VALUES (?, ?, ?)`,
			roomID,
			questionID,
			position,
		); err != nil {
			return 0, err
		}
	}

	return roomID, tx.Commit()
}

// AddQuestionToRoom appends one entry to a room's snapshot.
func (s *Store) AddQuestionToRoom(ctx context.Context, roomID, questionID int64, position int) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO room_questions (room_id, question_id, position) VALUES (?, ?, ?)`,
		roomID,
		questionID,
		position,
	)
	return err
}

// RoomIDByName resolves an active room's name to its id.
func (s *Store) RoomIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id FROM rooms WHERE name = ? AND finished = 0 LIMIT 1`,
		name,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, exam.ErrRoomNotFound
		}
		return 0, err
	}
	return id, nil
}

// DeleteRoom removes the snapshot rows and the room itself in one
// transaction; participants, their answers, and results go with it via
// the declared cascades.
func (s *Store) DeleteRoom(ctx context.Context, roomID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM room_questions WHERE room_id = ?`,
		roomID,
	); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID)
	if err != nil {
		return err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return exam.ErrRoomNotFound
	}

	return tx.Commit()
}

// MarkRoomStarted flips the started flag once the first participant is in.
func (s *Store) MarkRoomStarted(ctx context.Context, roomID int64) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE rooms SET started = 1 WHERE id = ?`,
		roomID,
	)
	return err
}

// LoadActiveRooms returns every room with finished=0, including the
// owner's username; question snapshots and participants are loaded
// separately during rehydration.
func (s *Store) LoadActiveRooms(ctx context.Context) ([]exam.Room, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT r.id, r.name, r.owner_id, u.name, r.duration_seconds, r.started
		 FROM rooms r
		 JOIN users u ON u.id = r.owner_id
		 WHERE r.finished = 0
		 ORDER BY r.id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]exam.Room, 0)
	for rows.Next() {
		var (
			room    exam.Room
			started int
		)
		if err := rows.Scan(&room.ID, &room.Name, &room.OwnerID, &room.OwnerName, &room.Duration, &started); err != nil {
			return nil, err
		}
		room.Started = started != 0
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// RoomQuestions returns a room's snapshot in position order.
func (s *Store) RoomQuestions(ctx context.Context, roomID int64) ([]exam.Question, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+questionColumns+`
		 FROM room_questions rq
		 JOIN questions q ON q.id = rq.question_id
		 JOIN topics t ON t.id = q.topic_id
		 JOIN difficulties d ON d.id = q.difficulty_id
		 WHERE rq.room_id = ?
		 ORDER BY rq.position ASC`,
		roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}
