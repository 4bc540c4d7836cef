package middleware

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/egebot/core/config"
)

// fakeContext implements the parts of tele.Context the middlewares touch.
type fakeContext struct {
	tele.Context
	update tele.Update

	mu    sync.Mutex
	store map[string]any
	sent  []any
}

func newMessageContext(updateID int, chatID, userID int64, text string) *fakeContext {
	return &fakeContext{
		update: tele.Update{
			ID: updateID,
			Message: &tele.Message{
				Text:   text,
				Chat:   &tele.Chat{ID: chatID, Type: tele.ChatPrivate},
				Sender: &tele.User{ID: userID},
			},
		},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update { return f.update }

func (f *fakeContext) Chat() *tele.Chat {
	if f.update.Message == nil {
		return nil
	}
	return f.update.Message.Chat
}

func (f *fakeContext) Sender() *tele.User {
	if f.update.Message == nil {
		return nil
	}
	return f.update.Message.Sender
}

func (f *fakeContext) Get(key string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[key]
}

func (f *fakeContext) Set(key string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[key] = v
}

func (f *fakeContext) Send(what any, opts ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func TestSerializeChatRunsOneHandlerPerChat(t *testing.T) {
	locks := &chatLocks{locks: make(map[int64]*chatLock)}
	var active, peak int32
	h := serializeWith(locks)(func(tele.Context) error {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = h(newMessageContext(i, 1, 1, "x"))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
	assert.Zero(t, locks.size())
}

func TestSerializeChatAllowsDifferentChats(t *testing.T) {
	locks := &chatLocks{locks: make(map[int64]*chatLock)}
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	h := serializeWith(locks)(func(tele.Context) error {
		started <- struct{}{}
		<-release
		return nil
	})

	done := make(chan struct{})
	go func() { _ = h(newMessageContext(1, 10, 1, "a")); done <- struct{}{} }()
	go func() { _ = h(newMessageContext(2, 20, 2, "b")); done <- struct{}{} }()

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("handlers for different chats did not run concurrently")
		}
	}
	close(release)
	<-done
	<-done
	assert.Zero(t, locks.size())
}

func TestRateLimitDropsBurst(t *testing.T) {
	var handled, limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Minute,
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	h := mw(func(tele.Context) error { handled++; return nil })

	require.NoError(t, h(newMessageContext(1, 5, 5, "/start")))
	require.NoError(t, h(newMessageContext(2, 5, 5, "/login")))
	require.NoError(t, h(newMessageContext(3, 6, 6, "/login")))

	assert.Equal(t, 2, handled)
	assert.Equal(t, 1, limited)
}

func TestRateLimitExcludedKind(t *testing.T) {
	var handled int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Minute,
		Exclude:  map[string]struct{}{coreconfig.UpdateMessage: {}},
	})
	h := mw(func(tele.Context) error { handled++; return nil })
	for i := 0; i < 3; i++ {
		require.NoError(t, h(newMessageContext(i, 5, 5, "x")))
	}
	assert.Equal(t, 3, handled)
}

func TestRecoverMiddlewareReturnsError(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(newMessageContext(1, 1, 1, "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	want := errors.New("plain")
	assert.Equal(t, want, RecoverMiddleware(func(tele.Context) error { return want })(newMessageContext(2, 1, 1, "x")))
}

func TestMessageMetricsCountsSends(t *testing.T) {
	c := newMessageContext(1, 1, 1, "x")
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		if err := c.Send("first"); err != nil {
			return err
		}
		return c.Send("second", &tele.ReplyMarkup{ResizeKeyboard: true})
	})
	require.NoError(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
	assert.Len(t, c.sent, 2)
}

func TestLoggerMiddlewareStoresRID(t *testing.T) {
	c := newMessageContext(123, 456, 789, "/start")
	var rid any
	h := LoggerMiddleware(func(c tele.Context) error {
		rid = c.Get("rid")
		return nil
	})
	require.NoError(t, h(c))
	assert.Equal(t, "123:456:789", rid)
}
