// Package store is the Postgres gateway for students, subjects and scores.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/egebot/core/database"
	"github.com/m3rciful/egebot/core/logger"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrUniqueViolation is returned when an insert breaks a unique constraint.
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// Repository lists the operations available inside one unit of work.
type Repository interface {
	FindStudentByChatID(ctx context.Context, chatID int64) (Student, error)
	FindSubjectByName(ctx context.Context, name string) (Subject, error)
	ListSubjects(ctx context.Context) ([]Subject, error)
	InsertStudent(ctx context.Context, firstName, lastName string, chatID int64) (Student, error)
	InsertScore(ctx context.Context, studentID, subjectID int64, score int) (Score, error)
	ListScoresForChatID(ctx context.Context, chatID int64) ([]ScoreLine, error)
}

// Store opens units of work against the database.
type Store struct {
	db *sqlx.DB
}

// New wraps an open connection pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Do runs fn in a single transaction: committed when fn returns nil, rolled back otherwise.
func (s *Store) Do(ctx context.Context, fn func(Repository) error) error {
	return database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(&repo{q: tx})
	})
}

// EnsureSubjects inserts missing subject names and reports how many were added.
func (s *Store) EnsureSubjects(ctx context.Context, names []string) (int, error) {
	start := time.Now()
	added := 0
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, name := range names {
			res, err := tx.ExecContext(ctx, `INSERT INTO subject (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
			if err != nil {
				return fmt.Errorf("insert subject %q: %w", name, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				added += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.SEED.Info("subjects ensured",
		slog.String("event", "seed.subjects"),
		slog.Int("subjects", len(names)),
		slog.Int("added", added),
		slog.Duration("duration", logger.Took(start)),
	)
	return added, nil
}

type repo struct {
	q sqlx.ExtContext
}

const studentColumns = `id, first_name, last_name, telegram_id, created_at`

func (r *repo) FindStudentByChatID(ctx context.Context, chatID int64) (Student, error) {
	var st Student
	err := sqlx.GetContext(ctx, r.q, &st, `SELECT `+studentColumns+` FROM student WHERE telegram_id = $1`, chatID)
	if err != nil {
		return Student{}, classify("find student", err)
	}
	return st, nil
}

func (r *repo) FindSubjectByName(ctx context.Context, name string) (Subject, error) {
	var sb Subject
	err := sqlx.GetContext(ctx, r.q, &sb, `SELECT id, name FROM subject WHERE name = $1`, name)
	if err != nil {
		return Subject{}, classify("find subject", err)
	}
	return sb, nil
}

func (r *repo) ListSubjects(ctx context.Context) ([]Subject, error) {
	var out []Subject
	if err := sqlx.SelectContext(ctx, r.q, &out, `SELECT id, name FROM subject ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return out, nil
}

func (r *repo) InsertStudent(ctx context.Context, firstName, lastName string, chatID int64) (Student, error) {
	var st Student
	err := sqlx.GetContext(ctx, r.q, &st,
		`INSERT INTO student (first_name, last_name, telegram_id) VALUES ($1, $2, $3) RETURNING `+studentColumns,
		firstName, lastName, chatID)
	if err != nil {
		return Student{}, classify("insert student", err)
	}
	return st, nil
}

func (r *repo) InsertScore(ctx context.Context, studentID, subjectID int64, score int) (Score, error) {
	var sc Score
	err := sqlx.GetContext(ctx, r.q, &sc,
		`INSERT INTO student_score (score, student_id, subject_id) VALUES ($1, $2, $3) RETURNING id, score, student_id, subject_id`,
		score, studentID, subjectID)
	if err != nil {
		return Score{}, classify("insert score", err)
	}
	return sc, nil
}

func (r *repo) ListScoresForChatID(ctx context.Context, chatID int64) ([]ScoreLine, error) {
	var out []ScoreLine
	err := sqlx.SelectContext(ctx, r.q, &out, `
		SELECT sb.name AS subject, sc.score
		FROM student_score sc
		JOIN student st ON st.id = sc.student_id
		JOIN subject sb ON sb.id = sc.subject_id
		WHERE st.telegram_id = $1
		ORDER BY sc.id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return out, nil
}

// classify maps driver errors onto the package sentinels.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case database.IsUniqueViolation(err):
		logger.Store.Warn("unique constraint hit",
			slog.String("event", "store.unique_violation"),
			slog.String("op", op),
			slog.String("constraint", database.Constraint(err)),
		)
		return fmt.Errorf("%s: %w (%s)", op, ErrUniqueViolation, database.Constraint(err))
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
