package fsm

import (
	"context"

	"github.com/m3rciful/egebot/core/telegram/state"
	"github.com/m3rciful/egebot/internal/store"
)

// Message is an inbound chat message reduced to what the rules inspect.
// Non-text messages carry an empty Text.
type Message struct {
	ChatID int64
	Text   string
}

// Keyboard is a reply keyboard: ordered rows of single-label buttons.
type Keyboard struct {
	Rows    [][]string
	Resize  bool
	OneTime bool
}

// Reply is what the bot answers to a message.
type Reply struct {
	Text     string
	Keyboard *Keyboard
}

// Outcome is the effect of a rule. The machine applies it after the unit of work
// finishes: Reset clears the session, Move switches to Next, Set merges into the data bag.
type Outcome struct {
	Reply    Reply
	Reset    bool
	Move     bool
	Next     state.State
	Set      state.Data
	Rejected bool
}

// NextState returns the state the session ends in when o is applied to current.
func (o Outcome) NextState(current state.State) state.State {
	next := current
	if o.Reset {
		next = StateDefault
	}
	if o.Move {
		next = o.Next
	}
	return next
}

// Rejection aborts the unit of work and still answers the user with Outcome.
type Rejection struct {
	Outcome Outcome
	Cause   error
}

func (r *Rejection) Error() string {
	if r.Cause == nil {
		return "rejected"
	}
	return "rejected: " + r.Cause.Error()
}

func (r *Rejection) Unwrap() error { return r.Cause }

func reject(out Outcome, cause error) error {
	return &Rejection{Outcome: out, Cause: cause}
}

// Turn is the input a rule handler works with.
type Turn struct {
	Msg   Message
	State state.State
	Data  state.Data
	// Repo is set only for rules that declare Store.
	Repo store.Repository
}

// UnitOfWork runs fn inside one database transaction.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(store.Repository) error) error
}
