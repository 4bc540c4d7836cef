package fsm

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/m3rciful/egebot/core/logger"
	"github.com/m3rciful/egebot/core/telegram/state"
	"github.com/m3rciful/egebot/internal/store"
)

// StateFilter reports whether a rule applies in the given session state.
type StateFilter func(state.State) bool

// InState matches exactly st.
func InState(st state.State) StateFilter {
	return func(cur state.State) bool { return cur == st }
}

// NotInDefault matches every state except StateDefault.
func NotInDefault(cur state.State) bool { return cur != StateDefault }

// Rule is one row of the routing table. A nil State or Match accepts anything.
type Rule struct {
	Name  string
	State StateFilter
	Match func(text string) bool
	// Store runs Handle inside a unit of work with Turn.Repo set.
	Store  bool
	Handle func(ctx context.Context, t *Turn) (Outcome, error)
}

func (r Rule) accepts(st state.State, text string) bool {
	if r.State != nil && !r.State(st) {
		return false
	}
	return r.Match == nil || r.Match(text)
}

// Resolve returns the first rule accepting (st, text).
func Resolve(rules []Rule, st state.State, text string) (Rule, bool) {
	for _, r := range rules {
		if r.accepts(st, text) {
			return r, true
		}
	}
	return Rule{}, false
}

func equals(cmd string) func(string) bool {
	return func(text string) bool { return text == cmd }
}

func isStart(text string) bool {
	return text == CmdStart || strings.HasPrefix(text, CmdStart+" ")
}

// isAlpha reports whether text is non-empty and made of letters only.
func isAlpha(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// parseScore accepts ASCII digits whose value lies in 1..99.
func parseScore(text string) (int, bool) {
	if text == "" {
		return 0, false
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > 99 {
		return 0, false
	}
	return n, true
}

func isScore(text string) bool {
	_, ok := parseScore(text)
	return ok
}

func reply(text string) Outcome {
	return Outcome{Reply: Reply{Text: text}}
}

func warn(text string) Outcome {
	return Outcome{Reply: Reply{Text: text}, Rejected: true}
}

func loginData() state.Data {
	return state.Data{KeyLogin: loggedIn}
}

// Rules builds the routing table in priority order. subjects are the names accepted
// while choosing a subject.
func Rules(subjects []string) []Rule {
	allowed := make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		allowed[s] = struct{}{}
	}
	isSubject := func(text string) bool {
		_, ok := allowed[text]
		return ok
	}

	return []Rule{
		{Name: "start", State: InState(StateDefault), Match: isStart, Handle: handleStart},
		{Name: "login", Match: equals(CmdLogin), Store: true, Handle: handleLogin},
		{Name: "register", State: InState(StateDefault), Match: equals(CmdRegister), Handle: handleRegister},
		{Name: "cancel_register", State: NotInDefault, Match: equals(CmdCancelRegister), Handle: handleCancelRegister},
		{Name: "cancel", State: NotInDefault, Match: equals(CmdCancel), Handle: handleCancel},
		{Name: "first_name", State: InState(StateAwaitFirstName), Match: isAlpha, Handle: handleFirstName},
		{Name: "first_name_invalid", State: InState(StateAwaitFirstName), Handle: constant(warn(textBadFirstName))},
		{Name: "last_name", State: InState(StateAwaitLastName), Match: isAlpha, Store: true, Handle: handleLastName},
		{Name: "last_name_invalid", State: InState(StateAwaitLastName), Handle: constant(warn(textBadLastName))},
		{Name: "enter_scores", Match: equals(CmdEnterScores), Store: true, Handle: handleEnterScores},
		{Name: "subject", State: InState(StateAwaitSubject), Match: isSubject, Handle: handleSubject},
		{Name: "subject_invalid", State: InState(StateAwaitSubject), Handle: constant(warn(textBadSubject))},
		{Name: "score", State: InState(StateAwaitScore), Match: isScore, Store: true, Handle: handleScore},
		{Name: "score_invalid", State: InState(StateAwaitScore), Handle: constant(warn(textBadScore))},
		{Name: "view_scores", Match: equals(CmdViewScores), Store: true, Handle: handleViewScores},
	}
}

func constant(out Outcome) func(context.Context, *Turn) (Outcome, error) {
	return func(context.Context, *Turn) (Outcome, error) { return out, nil }
}

func handleStart(context.Context, *Turn) (Outcome, error) {
	out := reply(textGreeting)
	out.Reset = true
	return out, nil
}

func handleLogin(ctx context.Context, t *Turn) (Outcome, error) {
	_, err := t.Repo.FindStudentByChatID(ctx, t.Msg.ChatID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		out := warn(textLoginNotFound)
		out.Set = state.Data{KeyTelegramID: strconv.FormatInt(t.Msg.ChatID, 10)}
		return out, nil
	case err != nil:
		return Outcome{}, err
	}
	out := reply(textLoginOK)
	out.Set = loginData()
	return out, nil
}

func handleRegister(context.Context, *Turn) (Outcome, error) {
	out := reply(textAskFirstName)
	out.Move, out.Next = true, StateAwaitFirstName
	return out, nil
}

func handleCancelRegister(context.Context, *Turn) (Outcome, error) {
	out := reply(textCancelRegister)
	out.Reset = true
	return out, nil
}

func handleCancel(context.Context, *Turn) (Outcome, error) {
	out := reply(textCancel)
	out.Reset = true
	out.Set = loginData()
	return out, nil
}

func handleFirstName(_ context.Context, t *Turn) (Outcome, error) {
	out := reply(textAskLastName)
	out.Move, out.Next = true, StateAwaitLastName
	out.Set = state.Data{KeyFirstName: t.Msg.Text}
	return out, nil
}

func handleLastName(ctx context.Context, t *Turn) (Outcome, error) {
	st, err := t.Repo.InsertStudent(ctx, t.Data.String(KeyFirstName), t.Msg.Text, t.Msg.ChatID)
	if errors.Is(err, store.ErrUniqueViolation) {
		out := reply(textAlreadyRegistered)
		out.Reset = true
		return Outcome{}, reject(out, err)
	}
	if err != nil {
		return Outcome{}, err
	}
	logger.LogEvent(ctx, logger.FSM, slog.LevelInfo, "student.registered",
		slog.String("status", "ok"),
		slog.Int64("student_id", st.ID),
	)
	out := reply(textRegistered)
	out.Reset = true
	out.Set = loginData()
	return out, nil
}

func handleEnterScores(ctx context.Context, t *Turn) (Outcome, error) {
	if !t.Data.Bool(KeyLogin) {
		return warn(textLoginToEnter), nil
	}
	subjects, err := t.Repo.ListSubjects(ctx)
	if err != nil {
		return Outcome{}, err
	}
	out := reply(textChooseSubject)
	if len(subjects) > 0 {
		kb := &Keyboard{Resize: true, OneTime: true}
		for _, s := range subjects {
			kb.Rows = append(kb.Rows, []string{s.Name})
		}
		out.Reply.Keyboard = kb
	}
	out.Move, out.Next = true, StateAwaitSubject
	return out, nil
}

func handleSubject(_ context.Context, t *Turn) (Outcome, error) {
	out := reply(textAskScore)
	out.Move, out.Next = true, StateAwaitScore
	out.Set = state.Data{KeySubject: t.Msg.Text}
	return out, nil
}

func handleScore(ctx context.Context, t *Turn) (Outcome, error) {
	score, _ := parseScore(t.Msg.Text)
	name := t.Data.String(KeySubject)

	student, err := t.Repo.FindStudentByChatID(ctx, t.Msg.ChatID)
	if errors.Is(err, store.ErrNotFound) {
		out := reply(textRegisterFirst)
		out.Reset = true
		return Outcome{}, reject(out, err)
	}
	if err != nil {
		return Outcome{}, err
	}

	subject, err := t.Repo.FindSubjectByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		out := reply(textSubjectGone)
		out.Reset = true
		out.Set = loginData()
		return Outcome{}, reject(out, err)
	}
	if err != nil {
		return Outcome{}, err
	}

	if _, err := t.Repo.InsertScore(ctx, student.ID, subject.ID, score); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			out := reply(textScoreExists)
			out.Reset = true
			out.Set = loginData()
			return Outcome{}, reject(out, err)
		}
		return Outcome{}, err
	}
	logger.LogEvent(ctx, logger.FSM, slog.LevelInfo, "score.saved",
		slog.String("status", "ok"),
		slog.Int64("student_id", student.ID),
		slog.String("subject", name),
		slog.Int("score", score),
	)
	out := reply(textScoreSaved)
	out.Reset = true
	out.Set = loginData()
	return out, nil
}

func handleViewScores(ctx context.Context, t *Turn) (Outcome, error) {
	if !t.Data.Bool(KeyLogin) {
		return warn(textLoginToView), nil
	}
	lines, err := t.Repo.ListScoresForChatID(ctx, t.Msg.ChatID)
	if err != nil {
		return Outcome{}, err
	}
	if len(lines) == 0 {
		return reply(textNothingSaved), nil
	}
	rows := make([]string, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, l.Subject+": "+strconv.Itoa(l.Score))
	}
	return reply(strings.Join(rows, "\n")), nil
}
