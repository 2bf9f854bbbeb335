package store

import (
	"context"
	"os"

	"examhall/internal/exam"
)

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('admin', 'student'))
		);`,
		`CREATE TABLE IF NOT EXISTS topics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS difficulties (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			option_a TEXT NOT NULL,
			option_b TEXT NOT NULL,
			option_c TEXT NOT NULL,
			option_d TEXT NOT NULL,
			correct TEXT NOT NULL CHECK (correct IN ('A', 'B', 'C', 'D')),
			topic_id INTEGER NOT NULL REFERENCES topics(id),
			difficulty_id INTEGER NOT NULL REFERENCES difficulties(id),
			created_by INTEGER REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			owner_id INTEGER NOT NULL REFERENCES users(id),
			duration_seconds INTEGER NOT NULL,
			started INTEGER NOT NULL DEFAULT 0,
			finished INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS room_questions (
			room_id INTEGER NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			question_id INTEGER NOT NULL REFERENCES questions(id),
			position INTEGER NOT NULL,
			PRIMARY KEY (room_id, position),
			UNIQUE (room_id, question_id)
		);`,
		`CREATE TABLE IF NOT EXISTS participants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id INTEGER NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id),
			joined_at_unix INTEGER NOT NULL,
			UNIQUE (room_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS answers (
			participant_id INTEGER NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
			question_id INTEGER NOT NULL REFERENCES questions(id),
			selected TEXT NOT NULL,
			is_correct INTEGER NOT NULL,
			PRIMARY KEY (participant_id, question_id)
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			participant_id INTEGER NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
			room_id INTEGER NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			score INTEGER NOT NULL,
			total INTEGER NOT NULL,
			correct_count INTEGER NOT NULL,
			submitted_at_unix INTEGER NOT NULL,
			PRIMARY KEY (participant_id, room_id)
		);`,
		`CREATE TABLE IF NOT EXISTS logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp_unix INTEGER NOT NULL,
			event TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_topic ON questions(topic_id);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_difficulty ON questions(difficulty_id);`,
		`CREATE INDEX IF NOT EXISTS idx_participants_room ON participants(room_id);`,
		`CREATE INDEX IF NOT EXISTS idx_participants_user ON participants(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs(timestamp_unix);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return s.seedDifficulties(ctx)
}

// seedDifficulties pins the fixed {easy,medium,hard} rows to ids 1..3.
func (s *Store) seedDifficulties(ctx context.Context) error {
	for i, name := range exam.DifficultyNames {
		if _, err := s.db.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO difficulties (id, name) VALUES (?, ?)`,
			i+1,
			name,
		); err != nil {
			return err
		}
	}
	return nil
}

// CountQuestions reports the size of the question bank.
func (s *Store) CountQuestions(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

// ExecSeedFile runs an external SQL script, used at bootstrap to fill an
// empty question bank. The driver executes the statements in one batch.
func (s *Store) ExecSeedFile(ctx context.Context, path string) error {
	script, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(script))
	return err
}
