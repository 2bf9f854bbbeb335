package store

import (
	"context"
	"time"

	"examhall/internal/exam"
)

// SaveParticipant upserts the (room, user) participant row. A fresh join
// inserts; a re-join keeps the existing row id and refreshes the join
// timestamp to the new attempt's start, which is what the timer works
// from after a restart.
func (s *Store) SaveParticipant(ctx context.Context, roomID, userID int64, joinedAt time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO participants (room_id, user_id, joined_at_unix) VALUES (?, ?, ?)`,
		roomID,
		userID,
		joinedAt.UTC().UnixNano(),
	)
	if err != nil {
		return 0, err
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	var participantID int64
	if inserted == 1 {
		participantID, err = res.LastInsertId()
		if err != nil {
			return 0, err
		}
	} else {
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE participants SET joined_at_unix = ? WHERE room_id = ? AND user_id = ?`,
			joinedAt.UTC().UnixNano(),
			roomID,
			userID,
		); err != nil {
			return 0, err
		}
		if err := tx.QueryRowContext(
			ctx,
			`SELECT id FROM participants WHERE room_id = ? AND user_id = ?`,
			roomID,
			userID,
		).Scan(&participantID); err != nil {
			return 0, err
		}
	}

	return participantID, tx.Commit()
}

// SaveAnswer upserts one recorded slot.
func (s *Store) SaveAnswer(ctx context.Context, participantID, questionID int64, selected string, isCorrect bool) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO answers (participant_id, question_id, selected, is_correct) VALUES (?, ?, ?, ?)`,
		participantID,
		questionID,
		selected,
		isCorrect,
	)
	return err
}

// SaveResult upserts the one result row an attempt may have.
func (s *Store) SaveResult(ctx context.Context, participantID, roomID int64, score, total, correct int, submittedAt time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO results (participant_id, room_id, score, total, correct_count, submitted_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		participantID,
		roomID,
		score,
		total,
		correct,
		submittedAt.UTC().UnixNano(),
	)
	return err
}

// SaveSubmission persists a completed attempt in one transaction: every
// answered slot plus the result row. Rows left over from a previous
// attempt of the same participant are cleared first, so slots the new
// attempt left unanswered reload as '.' instead of the old letter.
//
// Invariants:
//   - (participant_id, question_id) is unique in answers; re-submission
//     of the same attempt overwrites rather than duplicates.
//   - (participant_id, room_id) is unique in results, so an attempt has
//     exactly one result row no matter how it ended.
//
// Running the writes in one transaction means a crash mid-submit leaves
// either the previous attempt state or the full new one, never a scored
// result with missing answer rows.
func (s *Store) SaveSubmission(ctx context.Context, participantID, roomID int64, answers []exam.AnswerRecord, score, total, correct int, submittedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM answers WHERE participant_id = ?`,
		participantID,
	); err != nil {
		return err
	}

	for _, a := range answers {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT OR REPLACE INTO answers (participant_id, question_id, selected, is_correct) VALUES (?, ?, ?, ?)`,
			participantID,
			a.QuestionID,
			a.Selected,
			a.Correct,
		); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO results (participant_id, room_id, score, total, correct_count, submitted_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		participantID,
		roomID,
		score,
		total,
		correct,
		submittedAt.UTC().UnixNano(),
	); err != nil {
		return err
	}

	return tx.Commit()
}

// Leaderboard returns a room's top ten submitted attempts, best score
// first, earlier submission breaking ties.
func (s *Store) Leaderboard(ctx context.Context, roomID int64) ([]exam.LeaderboardRow, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT u.name, res.score, res.total, res.submitted_at_unix
		 FROM results res
		 JOIN participants p ON p.id = res.participant_id
		 JOIN users u ON u.id = p.user_id
		 WHERE res.room_id = ?
		 ORDER BY res.score DESC, res.submitted_at_unix ASC
		 LIMIT 10`,
		roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	board := make([]exam.LeaderboardRow, 0, 10)
	for rows.Next() {
		var (
			row           exam.LeaderboardRow
			submittedUnix int64
		)
		if err := rows.Scan(&row.Username, &row.Score, &row.Total, &submittedUnix); err != nil {
			return nil, err
		}
		row.SubmittedAt = time.Unix(0, submittedUnix).UTC()
		board = append(board, row)
	}

	return board, rows.Err()
}

// ParticipantAnswers rebuilds the answer vector from persisted rows;
// slots with no row stay unanswered.
func (s *Store) ParticipantAnswers(ctx context.Context, participantID int64, totalQuestions int) ([]byte, error) {
	answers := make([]byte, totalQuestions)
	for i := range answers {
		answers[i] = exam.Unanswered
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT rq.position, a.selected
		 FROM answers a
		 JOIN participants p ON p.id = a.participant_id
		 JOIN room_questions rq ON rq.room_id = p.room_id AND rq.question_id = a.question_id
		 WHERE a.participant_id = ?`,
		participantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			position int
			selected string
		)
		if err := rows.Scan(&position, &selected); err != nil {
			return nil, err
		}
		if position >= 0 && position < totalQuestions && selected != "" {
			answers[position] = selected[0]
		}
	}

	return answers, rows.Err()
}

// RoomParticipants returns the durable participant records of one room;
// in-progress participants surface with the pending score sentinel via
// the LEFT JOIN.
func (s *Store) RoomParticipants(ctx context.Context, roomID int64) ([]exam.ParticipantRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT p.id, p.user_id, u.name, COALESCE(res.score, -1), p.joined_at_unix
		 FROM participants p
		 JOIN users u ON u.id = p.user_id
		 LEFT JOIN results res ON res.participant_id = p.id AND res.room_id = p.room_id
		 WHERE p.room_id = ?
		 ORDER BY p.id ASC`,
		roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]exam.ParticipantRecord, 0)
	for rows.Next() {
		var (
			rec        exam.ParticipantRecord
			joinedUnix int64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Username, &rec.Score, &joinedUnix); err != nil {
			return nil, err
		}
		rec.JoinedAt = time.Unix(0, joinedUnix).UTC()
		records = append(records, rec)
	}

	return records, rows.Err()
}
