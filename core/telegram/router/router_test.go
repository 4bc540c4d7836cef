package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/egebot/core/telegram"
)

type fakeContext struct {
	tele.Context
	msg   *tele.Message
	store map[string]any
	sent  []string
	opts  [][]any
}

func newFakeContext(text string) *fakeContext {
	return &fakeContext{
		msg: &tele.Message{
			ID:     1,
			Text:   text,
			Chat:   &tele.Chat{ID: 77},
			Sender: &tele.User{ID: 77},
		},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update    { return tele.Update{ID: 9, Message: f.msg} }
func (f *fakeContext) Message() *tele.Message { return f.msg }
func (f *fakeContext) Chat() *tele.Chat       { return f.msg.Chat }
func (f *fakeContext) Sender() *tele.User     { return f.msg.Sender }
func (f *fakeContext) Get(key string) any     { return f.store[key] }
func (f *fakeContext) Set(key string, v any)  { f.store[key] = v }

func (f *fakeContext) Send(what any, opts ...any) error {
	f.sent = append(f.sent, what.(string))
	f.opts = append(f.opts, opts)
	return nil
}

type fakeConversation struct {
	gotChat int64
	gotText string
	answer  Answer
	err     error
}

func (f *fakeConversation) Converse(_ context.Context, chatID int64, text string) (Answer, error) {
	f.gotChat, f.gotText = chatID, text
	return f.answer, f.err
}

func routeFor(t *testing.T, routes []tg.Route, endpoint string) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	t.Fatalf("no route for %q", endpoint)
	return nil
}

func TestTextRouteSendsAnswer(t *testing.T) {
	conv := &fakeConversation{answer: Answer{
		Handler: "enter_scores",
		Text:    "Выбери предмет",
		Markup:  &tele.ReplyMarkup{ResizeKeyboard: true},
	}}
	c := newFakeContext("/enter_scores")

	require.NoError(t, routeFor(t, TextRoutes(conv), tele.OnText)(c))
	assert.Equal(t, int64(77), conv.gotChat)
	assert.Equal(t, "/enter_scores", conv.gotText)
	assert.Equal(t, []string{"Выбери предмет"}, c.sent)
	require.Len(t, c.opts[0], 1)
	assert.Equal(t, conv.answer.Markup, c.opts[0][0])
}

func TestMediaRouteUsesEmptyText(t *testing.T) {
	conv := &fakeConversation{answer: Answer{Handler: "score_invalid", Text: "Введи корректные данные", Rejected: true}}
	c := newFakeContext("")
	c.msg.Caption = "87"

	require.NoError(t, routeFor(t, TextRoutes(conv), tele.OnMedia)(c))
	assert.Empty(t, conv.gotText)
	assert.Equal(t, []string{"Введи корректные данные"}, c.sent)
	assert.Empty(t, c.opts[0])
}

func TestTextRoutePropagatesError(t *testing.T) {
	boom := errors.New("db down")
	conv := &fakeConversation{answer: Answer{Handler: "login"}, err: boom}
	c := newFakeContext("/login")

	err := routeFor(t, TextRoutes(conv), tele.OnText)(c)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, c.sent)
}

func TestNormalizeHandlerName(t *testing.T) {
	assert.Equal(t, "unknown", normalizeHandlerName(" "))
	assert.Equal(t, "view_scores", normalizeHandlerName("/View Scores"))
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "store unavailable" }

func TestDeriveErrorCode(t *testing.T) {
	assert.Equal(t, "STORE_UNAVAILABLE", deriveErrorCode(codedErr{}))
	assert.Equal(t, "HTTP_4XX", deriveErrorCode(errors.New("telegram: Forbidden: bot was blocked by the user (403)")))
	assert.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("plain")))
	assert.Empty(t, deriveErrorCode(nil))
}
