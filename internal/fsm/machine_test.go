package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/egebot/core/telegram/state"
	"github.com/m3rciful/egebot/internal/store"
)

const chat int64 = 555

var subjects = []string{"Математика", "Физика", "Русский язык"}

type harness struct {
	t        *testing.T
	m        *Machine
	db       *fakeDB
	sessions *state.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newFakeDB(subjects...)
	sessions := state.NewMemoryStore(0)
	return &harness{t: t, m: New(sessions, db, subjects), db: db, sessions: sessions}
}

func (h *harness) send(text string) Result {
	h.t.Helper()
	res, err := h.m.Handle(context.Background(), Message{ChatID: chat, Text: text})
	require.NoError(h.t, err)
	return res
}

func (h *harness) state() state.State {
	h.t.Helper()
	st, err := h.sessions.GetState(context.Background(), chat)
	require.NoError(h.t, err)
	return st
}

func (h *harness) data() state.Data {
	h.t.Helper()
	d, err := h.sessions.GetData(context.Background(), chat)
	require.NoError(h.t, err)
	return d
}

func (h *harness) register(first, last string) {
	h.t.Helper()
	h.send(CmdRegister)
	h.send(first)
	h.send(last)
}

func TestLoginUnknownChat(t *testing.T) {
	h := newHarness(t)
	res := h.send(CmdLogin)

	assert.Equal(t, "login", res.Rule)
	assert.Equal(t, textLoginNotFound, res.Reply.Text)
	assert.Empty(t, h.db.students)
	assert.Equal(t, StateDefault, h.state())
	assert.Equal(t, state.Data{KeyTelegramID: "555"}, h.data())
}

func TestLoginKnownChat(t *testing.T) {
	h := newHarness(t)
	h.register("Анна", "Иванова")
	require.NoError(t, h.sessions.Clear(context.Background(), chat))

	res := h.send(CmdLogin)
	assert.Equal(t, textLoginOK, res.Reply.Text)
	assert.True(t, h.data().Bool(KeyLogin))
}

func TestRegistrationFlow(t *testing.T) {
	h := newHarness(t)

	res := h.send(CmdRegister)
	assert.Equal(t, textAskFirstName, res.Reply.Text)
	assert.Equal(t, StateAwaitFirstName, h.state())

	res = h.send("Anna")
	assert.Equal(t, "first_name", res.Rule)
	assert.Equal(t, StateAwaitLastName, h.state())
	assert.Equal(t, "Anna", h.data().String(KeyFirstName))

	res = h.send("Ivanova")
	assert.Equal(t, "last_name", res.Rule)
	assert.Equal(t, textRegistered, res.Reply.Text)
	assert.Equal(t, StateDefault, res.To)
	assert.Equal(t, StateDefault, h.state())
	assert.Equal(t, state.Data{KeyLogin: "true"}, h.data())

	require.Len(t, h.db.students, 1)
	assert.Equal(t, "Anna", h.db.students[0].FirstName)
	assert.Equal(t, "Ivanova", h.db.students[0].LastName)
	assert.Equal(t, chat, h.db.students[0].TelegramID)
}

func TestInvalidNamesRePrompt(t *testing.T) {
	h := newHarness(t)
	h.send(CmdRegister)
	for _, text := range []string{"Анна-Мария", "Anna Maria", "R2D2", ""} {
		res := h.send(text)
		assert.Equal(t, "first_name_invalid", res.Rule, text)
		assert.Equal(t, textBadFirstName, res.Reply.Text)
		assert.True(t, res.Rejected)
		assert.Equal(t, StateAwaitFirstName, h.state())
	}

	h.send("Анна")
	res := h.send("Иванова 2")
	assert.Equal(t, "last_name_invalid", res.Rule)
	assert.Equal(t, textBadLastName, res.Reply.Text)
	assert.Equal(t, StateAwaitLastName, h.state())
	assert.Empty(t, h.db.students)
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	h := newHarness(t)
	h.register("Анна", "Иванова")
	h.send(CmdStart)

	h.send(CmdRegister)
	h.send("Мария")
	res := h.send("Петрова")

	assert.Equal(t, textAlreadyRegistered, res.Reply.Text)
	assert.True(t, res.Rejected)
	assert.Equal(t, StateDefault, h.state())
	assert.False(t, h.data().Bool(KeyLogin))
	require.Len(t, h.db.students, 1)
	assert.Equal(t, "Анна", h.db.students[0].FirstName)
	assert.Equal(t, 1, h.db.rollbacks)
}

func TestEnterScoresRequiresLogin(t *testing.T) {
	h := newHarness(t)
	res := h.send(CmdEnterScores)
	assert.Equal(t, textLoginToEnter, res.Reply.Text)
	assert.Nil(t, res.Reply.Keyboard)
	assert.Equal(t, StateDefault, h.state())
}

func TestScoreEntry(t *testing.T) {
	h := newHarness(t)
	h.register("Анна", "Иванова")

	res := h.send(CmdEnterScores)
	assert.Equal(t, textChooseSubject, res.Reply.Text)
	require.NotNil(t, res.Reply.Keyboard)
	assert.Equal(t, [][]string{{"Математика"}, {"Физика"}, {"Русский язык"}}, res.Reply.Keyboard.Rows)
	assert.True(t, res.Reply.Keyboard.Resize)
	assert.True(t, res.Reply.Keyboard.OneTime)
	assert.Equal(t, StateAwaitSubject, h.state())

	res = h.send("Химия")
	assert.Equal(t, "subject_invalid", res.Rule)
	assert.Equal(t, StateAwaitSubject, h.state())

	res = h.send("Математика")
	assert.Equal(t, textAskScore, res.Reply.Text)
	assert.Equal(t, StateAwaitScore, h.state())

	for _, text := range []string{"0", "100", "abc", "-5", "8 7", ""} {
		res = h.send(text)
		assert.Equal(t, "score_invalid", res.Rule, text)
		assert.Equal(t, textBadScore, res.Reply.Text)
		assert.Equal(t, StateAwaitScore, h.state())
	}
	assert.Empty(t, h.db.scores)

	res = h.send("87")
	assert.Equal(t, textScoreSaved, res.Reply.Text)
	assert.Equal(t, StateDefault, h.state())
	assert.Equal(t, state.Data{KeyLogin: "true"}, h.data())
	require.Len(t, h.db.scores, 1)
	assert.Equal(t, store.Score{ID: 1, Score: 87, StudentID: 1, SubjectID: 1}, h.db.scores[0])
}

func TestDuplicateScoreRejected(t *testing.T) {
	h := newHarness(t)
	h.register("Анна", "Иванова")
	for _, score := range []string{"87", "95"} {
		h.send(CmdEnterScores)
		h.send("Физика")
		h.send(score)
	}

	require.Len(t, h.db.scores, 1)
	assert.Equal(t, 87, h.db.scores[0].Score)
	assert.Equal(t, StateDefault, h.state())
	assert.True(t, h.data().Bool(KeyLogin))
}

func TestDuplicateScoreReply(t *testing.T) {
	h := newHarness(t)
	h.register("Анна", "Иванова")
	h.send(CmdEnterScores)
	h.send("Физика")
	h.send("70")
	h.send(CmdEnterScores)
	h.send("Физика")

	res := h.send("71")
	assert.Equal(t, textScoreExists, res.Reply.Text)
	assert.True(t, res.Rejected)
}

func TestScoreWithoutStudent(t *testing.T) {
	h := newHarness(t)
	h.send(CmdRegister)
	h.send(CmdCancel)
	require.True(t, h.data().Bool(KeyLogin))

	h.send(CmdEnterScores)
	h.send("Математика")
	res := h.send("50")

	assert.Equal(t, textRegisterFirst, res.Reply.Text)
	assert.Equal(t, StateDefault, h.state())
	assert.Empty(t, h.data())
	assert.Empty(t, h.db.scores)
}

func TestScoreForSubjectMissingInStore(t *testing.T) {
	h := newHarness(t)
	h.db.subjects = h.db.subjects[:1]
	h.register("Анна", "Иванова")
	h.send(CmdEnterScores)
	h.send("Физика")

	res := h.send("60")
	assert.Equal(t, textSubjectGone, res.Reply.Text)
	assert.Equal(t, StateDefault, h.state())
	assert.True(t, h.data().Bool(KeyLogin))
}

func TestViewScores(t *testing.T) {
	h := newHarness(t)
	res := h.send(CmdViewScores)
	assert.Equal(t, textLoginToView, res.Reply.Text)

	h.register("Анна", "Иванова")
	res = h.send(CmdViewScores)
	assert.Equal(t, textNothingSaved, res.Reply.Text)

	for _, entry := range [][2]string{{"Физика", "70"}, {"Математика", "87"}} {
		h.send(CmdEnterScores)
		h.send(entry[0])
		h.send(entry[1])
	}
	res = h.send(CmdViewScores)
	assert.Equal(t, "Физика: 70\nМатематика: 87", res.Reply.Text)
	assert.Equal(t, StateDefault, h.state())
}

func TestCancelResetsFromEveryState(t *testing.T) {
	states := []state.State{StateAwaitFirstName, StateAwaitLastName, StateAwaitSubject, StateAwaitScore}
	for _, st := range states {
		t.Run(st.String()+"/cancel", func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.sessions.SetState(context.Background(), chat, st))
			require.NoError(t, h.sessions.UpdateData(context.Background(), chat, state.Data{KeySubject: "Физика"}))

			res := h.send(CmdCancel)
			assert.Equal(t, textCancel, res.Reply.Text)
			assert.Equal(t, StateDefault, h.state())
			assert.Equal(t, state.Data{KeyLogin: "true"}, h.data())
		})
		t.Run(st.String()+"/cancel_register", func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.sessions.SetState(context.Background(), chat, st))

			res := h.send(CmdCancelRegister)
			assert.Equal(t, textCancelRegister, res.Reply.Text)
			assert.Equal(t, StateDefault, h.state())
			assert.False(t, h.data().Bool(KeyLogin))
		})
	}
}

func TestUnmatchedInput(t *testing.T) {
	h := newHarness(t)
	for _, text := range []string{CmdCancel, CmdCancelRegister, "привет", ""} {
		res := h.send(text)
		assert.Equal(t, RuleUnknown, res.Rule, text)
		assert.Equal(t, textUnknown, res.Reply.Text)
	}
}

func TestStartClearsSession(t *testing.T) {
	h := newHarness(t)
	h.send(CmdLogin)
	require.NotEmpty(t, h.data())

	res := h.send("/start promo")
	assert.Equal(t, "start", res.Rule)
	assert.Equal(t, textGreeting, res.Reply.Text)
	assert.Empty(t, h.data())
}

func TestStoreFailurePropagates(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("connection refused")
	h.db.failWith = boom

	res, err := h.m.Handle(context.Background(), Message{ChatID: chat, Text: CmdLogin})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "login", res.Rule)
	assert.Empty(t, h.data())
	assert.Equal(t, 1, h.db.rollbacks)
}

func TestResolvePrefersSpecificRule(t *testing.T) {
	rules := Rules(subjects)
	cases := []struct {
		state state.State
		text  string
		want  string
	}{
		{StateAwaitFirstName, "Анна", "first_name"},
		{StateAwaitFirstName, "Анна1", "first_name_invalid"},
		{StateAwaitLastName, "Ivanova", "last_name"},
		{StateAwaitSubject, "Физика", "subject"},
		{StateAwaitSubject, "физика", "subject_invalid"},
		{StateAwaitScore, "99", "score"},
		{StateAwaitScore, "087", "score"},
		{StateAwaitScore, "99.5", "score_invalid"},
		{StateAwaitFirstName, CmdLogin, "login"},
		{StateAwaitFirstName, CmdRegister, "first_name_invalid"},
		{StateAwaitScore, CmdEnterScores, "enter_scores"},
		{StateAwaitScore, CmdViewScores, "score_invalid"},
		{StateDefault, CmdViewScores, "view_scores"},
		{StateAwaitSubject, CmdStart, "subject_invalid"},
	}
	for _, tc := range cases {
		r, ok := Resolve(rules, tc.state, tc.text)
		require.True(t, ok, tc.text)
		assert.Equal(t, tc.want, r.Name, "%s in %s", tc.text, tc.state)
	}

	_, ok := Resolve(rules, StateDefault, "hello")
	assert.False(t, ok)
}

func TestParseScore(t *testing.T) {
	valid := map[string]int{"1": 1, "99": 99, "087": 87, "50": 50}
	for text, want := range valid {
		got, ok := parseScore(text)
		assert.True(t, ok, text)
		assert.Equal(t, want, got)
	}
	for _, text := range []string{"", "0", "00", "100", "+5", "١٢", "99999999999999999999"} {
		_, ok := parseScore(text)
		assert.False(t, ok, text)
	}
}
