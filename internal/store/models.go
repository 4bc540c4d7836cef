package store

import "time"

// Student is a registered user, keyed by their Telegram chat id.
type Student struct {
	ID         int64     `db:"id"`
	FirstName  string    `db:"first_name"`
	LastName   string    `db:"last_name"`
	TelegramID int64     `db:"telegram_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// Subject is an exam subject from the seeded catalog.
type Subject struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Score is a student's result for one subject.
type Score struct {
	ID        int64 `db:"id"`
	Score     int   `db:"score"`
	StudentID int64 `db:"student_id"`
	SubjectID int64 `db:"subject_id"`
}

// ScoreLine is a saved score joined with its subject name.
type ScoreLine struct {
	Subject string `db:"subject"`
	Score   int    `db:"score"`
}
