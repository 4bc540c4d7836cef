package fsm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m3rciful/egebot/internal/store"
)

// fakeDB is an in-memory Repository with transactional snapshots and the
// same unique constraints as the schema.
type fakeDB struct {
	students  []store.Student
	subjects  []store.Subject
	scores    []store.Score
	failWith  error
	commits   int
	rollbacks int
}

func newFakeDB(subjects ...string) *fakeDB {
	db := &fakeDB{}
	for i, name := range subjects {
		db.subjects = append(db.subjects, store.Subject{ID: int64(i + 1), Name: name})
	}
	return db
}

func (f *fakeDB) Do(ctx context.Context, fn func(store.Repository) error) error {
	students := append([]store.Student(nil), f.students...)
	scores := append([]store.Score(nil), f.scores...)
	if err := fn(fakeRepo{f}); err != nil {
		f.students, f.scores = students, scores
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

type fakeRepo struct{ db *fakeDB }

func (r fakeRepo) FindStudentByChatID(_ context.Context, chatID int64) (store.Student, error) {
	if r.db.failWith != nil {
		return store.Student{}, r.db.failWith
	}
	for _, s := range r.db.students {
		if s.TelegramID == chatID {
			return s, nil
		}
	}
	return store.Student{}, fmt.Errorf("find student: %w", store.ErrNotFound)
}

func (r fakeRepo) FindSubjectByName(_ context.Context, name string) (store.Subject, error) {
	for _, s := range r.db.subjects {
		if s.Name == name {
			return s, nil
		}
	}
	return store.Subject{}, fmt.Errorf("find subject: %w", store.ErrNotFound)
}

func (r fakeRepo) ListSubjects(context.Context) ([]store.Subject, error) {
	return append([]store.Subject(nil), r.db.subjects...), nil
}

func (r fakeRepo) InsertStudent(_ context.Context, first, last string, chatID int64) (store.Student, error) {
	for _, s := range r.db.students {
		if s.TelegramID == chatID {
			return store.Student{}, fmt.Errorf("insert student: %w", store.ErrUniqueViolation)
		}
	}
	st := store.Student{
		ID:         int64(len(r.db.students) + 1),
		FirstName:  first,
		LastName:   last,
		TelegramID: chatID,
		CreatedAt:  time.Now(),
	}
	r.db.students = append(r.db.students, st)
	return st, nil
}

func (r fakeRepo) InsertScore(_ context.Context, studentID, subjectID int64, score int) (store.Score, error) {
	for _, s := range r.db.scores {
		if s.StudentID == studentID && s.SubjectID == subjectID {
			return store.Score{}, fmt.Errorf("insert score: %w", store.ErrUniqueViolation)
		}
	}
	sc := store.Score{ID: int64(len(r.db.scores) + 1), Score: score, StudentID: studentID, SubjectID: subjectID}
	r.db.scores = append(r.db.scores, sc)
	return sc, nil
}

func (r fakeRepo) ListScoresForChatID(ctx context.Context, chatID int64) ([]store.ScoreLine, error) {
	st, err := r.FindStudentByChatID(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []store.ScoreLine
	for _, sc := range r.db.scores {
		if sc.StudentID != st.ID {
			continue
		}
		for _, sb := range r.db.subjects {
			if sb.ID == sc.SubjectID {
				out = append(out, store.ScoreLine{Subject: sb.Name, Score: sc.Score})
			}
		}
	}
	return out, nil
}
