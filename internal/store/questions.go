package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"examhall/internal/exam"
)

// validTopicIDs admits digits separated by single commas, nothing else.
// Matching lists are spliced into IN clauses verbatim, so any other shape
// (spaces, letters, doubled or dangling commas) must be rejected here and
// yields an empty result instead of reaching SQL.
var validTopicIDs = regexp.MustCompile(`^[0-9]+(,[0-9]+)*$`)

const questionColumns = `q.id, q.text, q.option_a, q.option_b, q.option_c, q.option_d,
	 q.correct, q.topic_id, q.difficulty_id, t.name, d.name`

// AddQuestion inserts a bank question, creating its topic on first use.
// The topic name is lowercased; the difficulty must be one of the seeded
// three or exam.ErrUnknownDifficulty is returned.
func (s *Store) AddQuestion(ctx context.Context, draft exam.QuestionDraft) (int64, error) {
	difficultyID, ok := exam.DifficultyID(draft.Difficulty)
	if !ok {
		return 0, exam.ErrUnknownDifficulty
	}

	correct := exam.NormalizeLetter(draft.Correct)
	if correct == "" {
		return 0, fmt.Errorf("correct letter %q is not one of A-D", draft.Correct)
	}

	topic := strings.ToLower(strings.TrimSpace(draft.Topic))
	if topic == "" {
		return 0, fmt.Errorf("topic name is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO topics (name) VALUES (?)`,
		topic,
	); err != nil {
		return 0, err
	}

	var topicID int64
	if err := tx.QueryRowContext(
		ctx,
		`SELECT id FROM topics WHERE name = ?`,
		topic,
	).Scan(&topicID); err != nil {
		return 0, err
	}

	var createdBy sql.NullInt64
	if draft.CreatedBy > 0 {
		createdBy = sql.NullInt64{Int64: draft.CreatedBy, Valid: true}
	}

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO questions (text, option_a, option_b, option_c, option_d, correct, topic_id, difficulty_id, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		draft.Text,
		draft.OptionA,
		draft.OptionB,
		draft.OptionC,
		draft.OptionD,
		correct,
		topicID,
		difficultyID,
		createdBy,
	)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	return id, tx.Commit()
}

// DeleteQuestion removes a bank question. Questions referenced by a room
// snapshot or by recorded answers are protected by foreign keys and the
// delete surfaces that constraint error.
func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return exam.ErrQuestionNotFound
	}
	return nil
}

// TopicIDByName resolves a topic name case-insensitively.
func (s *Store) TopicIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id FROM topics WHERE name = ?`,
		strings.ToLower(strings.TrimSpace(name)),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, exam.ErrTopicNotFound
		}
		return 0, err
	}
	return id, nil
}

// TopicsWithCounts lists every topic with its bank question count;
// zero-count topics appear because of the LEFT JOIN.
func (s *Store) TopicsWithCounts(ctx context.Context) ([]exam.TopicCount, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT t.id, t.name, COUNT(q.id)
		 FROM topics t
		 LEFT JOIN questions q ON q.topic_id = t.id
		 GROUP BY t.id, t.name
		 ORDER BY t.name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	topics := make([]exam.TopicCount, 0)
	for rows.Next() {
		var tc exam.TopicCount
		if err := rows.Scan(&tc.ID, &tc.Name, &tc.Count); err != nil {
			return nil, err
		}
		topics = append(topics, tc)
	}

	return topics, rows.Err()
}

// DifficultiesWithCounts lists the three difficulties with their bank
// question counts, in id order.
func (s *Store) DifficultiesWithCounts(ctx context.Context) ([]exam.DifficultyCount, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT d.name, COUNT(q.id)
		 FROM difficulties d
		 LEFT JOIN questions q ON q.difficulty_id = d.id
		 GROUP BY d.id, d.name
		 ORDER BY d.id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]exam.DifficultyCount, 0, 3)
	for rows.Next() {
		var dc exam.DifficultyCount
		if err := rows.Scan(&dc.Name, &dc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, dc)
	}

	return counts, rows.Err()
}

// DifficultyCountsForTopics returns [easy, medium, hard] question counts
// restricted to the given topic-id list. A malformed list yields zero
// counts, never an SQL error.
func (s *Store) DifficultyCountsForTopics(ctx context.Context, topicIDs string) ([3]int, error) {
	var counts [3]int
	if !validTopicIDs.MatchString(topicIDs) {
		return counts, nil
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT d.id, COUNT(q.id)
		 FROM difficulties d
		 LEFT JOIN questions q ON q.difficulty_id = d.id AND q.topic_id IN (`+topicIDs+`)
		 GROUP BY d.id
		 ORDER BY d.id ASC`,
	)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    int64
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return counts, err
		}
		if id >= 1 && id <= 3 {
			counts[id-1] = count
		}
	}

	return counts, rows.Err()
}

// RandomFilteredQuestions samples up to limit questions in random order,
// optionally restricted to a topic-id list and/or one difficulty. A
// malformed topic-id list yields an empty result, never an SQL error.
func (s *Store) RandomFilteredQuestions(ctx context.Context, topicIDs string, difficultyID int64, limit int) ([]exam.Question, error) {
	if limit <= 0 {
		return []exam.Question{}, nil
	}

	where := make([]string, 0, 2)
	args := make([]any, 0, 2)

	if topicIDs != "" {
		if !validTopicIDs.MatchString(topicIDs) {
			return []exam.Question{}, nil
		}
		where = append(where, `q.topic_id IN (`+topicIDs+`)`)
	}
	if difficultyID > 0 {
		where = append(where, `q.difficulty_id = ?`)
		args = append(args, difficultyID)
	}

	query := `SELECT ` + questionColumns + `
		 FROM questions q
		 JOIN topics t ON t.id = q.topic_id
		 JOIN difficulties d ON d.id = q.difficulty_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY RANDOM() LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// SearchQuestions looks questions up by id, topic name, or difficulty
// name. An unparseable id yields an empty result.
func (s *Store) SearchQuestions(ctx context.Context, field, value string) ([]exam.Question, error) {
	query := `SELECT ` + questionColumns + `
		 FROM questions q
		 JOIN topics t ON t.id = q.topic_id
		 JOIN difficulties d ON d.id = q.difficulty_id`

	var arg any
	switch field {
	case "id":
		id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return []exam.Question{}, nil
		}
		query += ` WHERE q.id = ?`
		arg = id
	case "topic":
		query += ` WHERE t.name = ?`
		arg = strings.ToLower(strings.TrimSpace(value))
	case "difficulty":
		query += ` WHERE d.name = ?`
		arg = strings.ToLower(strings.TrimSpace(value))
	default:
		return nil, fmt.Errorf("unknown search field %q", field)
	}
	query += ` ORDER BY q.id ASC`

	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func scanQuestions(rows *sql.Rows) ([]exam.Question, error) {
	questions := make([]exam.Question, 0)
	for rows.Next() {
		var q exam.Question
		if err := rows.Scan(
			&q.ID,
			&q.Text,
			&q.OptionA,
			&q.OptionB,
			&q.OptionC,
			&q.OptionD,
			&q.Correct,
			&q.TopicID,
			&q.DifficultyID,
			&q.Topic,
			&q.Difficulty,
		); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
