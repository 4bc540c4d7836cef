package app

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/egebot/core/telegram/state"
	"github.com/m3rciful/egebot/internal/fsm"
	"github.com/m3rciful/egebot/internal/store"
)

func newConversation(t *testing.T) (conversation, state.Store, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	sessions := state.NewMemoryStore(0)
	machine := fsm.New(sessions, store.New(sqlx.NewDb(raw, "postgres")), []string{"Математика", "Физика"})
	return conversation{machine: machine}, sessions, mock
}

func TestConverseStartHasNoKeyboard(t *testing.T) {
	conv, _, mock := newConversation(t)

	ans, err := conv.Converse(context.Background(), 7, fsm.CmdStart)
	require.NoError(t, err)
	assert.Equal(t, "start", ans.Handler)
	assert.Contains(t, ans.Text, "/login")
	assert.Nil(t, ans.Markup)
	assert.False(t, ans.Rejected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConverseSubjectKeyboard(t *testing.T) {
	conv, sessions, mock := newConversation(t)
	ctx := context.Background()
	require.NoError(t, sessions.UpdateData(ctx, 7, state.Data{fsm.KeyLogin: "true"}))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name FROM subject ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Математика").AddRow(2, "Физика"))
	mock.ExpectCommit()

	ans, err := conv.Converse(ctx, 7, fsm.CmdEnterScores)
	require.NoError(t, err)
	assert.Equal(t, "enter_scores", ans.Handler)
	require.NotNil(t, ans.Markup)
	assert.True(t, ans.Markup.ResizeKeyboard)
	assert.True(t, ans.Markup.OneTimeKeyboard)
	require.Len(t, ans.Markup.ReplyKeyboard, 2)
	assert.Equal(t, "Математика", ans.Markup.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "Физика", ans.Markup.ReplyKeyboard[1][0].Text)

	st, err := sessions.GetState(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, fsm.StateAwaitSubject, st)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConverseUnknownIsRejected(t *testing.T) {
	conv, _, _ := newConversation(t)

	ans, err := conv.Converse(context.Background(), 7, "привет")
	require.NoError(t, err)
	assert.Equal(t, fsm.RuleUnknown, ans.Handler)
	assert.True(t, ans.Rejected)
	assert.NotEmpty(t, ans.Text)
}

func TestMenuOrder(t *testing.T) {
	app := &App{cfg: &Config{}}
	app.cfg.Telegram.Token = "t"
	opts, err := app.TelegramRunOptions()
	require.NoError(t, err)

	cmds := opts.Registry.ListCommands(true)
	require.Len(t, cmds, len(menu))
	assert.Equal(t, "start", cmds[0].Text)
	assert.Equal(t, "cancel_register", cmds[len(cmds)-1].Text)
	assert.Len(t, opts.Routes, 2)
}
