package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// chatLocks hands out one mutex per chat and forgets it once nobody waits on it.
type chatLocks struct {
	mu    sync.Mutex
	locks map[int64]*chatLock
}

func (l *chatLocks) lock(chatID int64) *chatLock {
	l.mu.Lock()
	cl, ok := l.locks[chatID]
	if !ok {
		cl = &chatLock{}
		l.locks[chatID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()
	return cl
}

func (l *chatLocks) unlock(chatID int64, cl *chatLock) {
	cl.mu.Unlock()

	l.mu.Lock()
	cl.refs--
	if cl.refs == 0 {
		delete(l.locks, chatID)
	}
	l.mu.Unlock()
}

func (l *chatLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// SerializeChat runs at most one downstream handler per chat at a time. Updates
// without a chat pass through unguarded.
func SerializeChat() tele.MiddlewareFunc {
	return serializeWith(&chatLocks{locks: make(map[int64]*chatLock)})
}

func serializeWith(locks *chatLocks) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil {
				return next(c)
			}
			cl := locks.lock(chat.ID)
			defer locks.unlock(chat.ID, cl)
			return next(c)
		}
	}
}
