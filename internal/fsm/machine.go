package fsm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/egebot/core/logger"
	"github.com/m3rciful/egebot/core/telegram/state"
	"github.com/m3rciful/egebot/internal/store"
)

// RuleUnknown names the fallback used when no rule accepts a message.
const RuleUnknown = "unknown"

// Result describes how one message was handled.
type Result struct {
	Rule     string
	From     state.State
	To       state.State
	Reply    Reply
	Rejected bool
}

// Machine drives conversations: it reads the session, picks a rule, runs it and
// writes the outcome back to the session.
type Machine struct {
	sessions state.Store
	uow      UnitOfWork
	rules    []Rule
}

// New builds a Machine with the standard rule table.
func New(sessions state.Store, uow UnitOfWork, subjects []string) *Machine {
	return &Machine{sessions: sessions, uow: uow, rules: Rules(subjects)}
}

// Handle processes one inbound message. Callers must not run Handle concurrently
// for the same chat.
func (m *Machine) Handle(ctx context.Context, msg Message) (Result, error) {
	cur, err := m.sessions.GetState(ctx, msg.ChatID)
	if err != nil {
		return Result{Rule: RuleUnknown}, fmt.Errorf("load state: %w", err)
	}
	data, err := m.sessions.GetData(ctx, msg.ChatID)
	if err != nil {
		return Result{Rule: RuleUnknown, From: cur}, fmt.Errorf("load data: %w", err)
	}

	rule, ok := Resolve(m.rules, cur, msg.Text)
	if !ok {
		return Result{Rule: RuleUnknown, From: cur, To: cur, Reply: Reply{Text: textUnknown}, Rejected: true}, nil
	}
	res := Result{Rule: rule.Name, From: cur, To: cur}

	out, err := m.run(ctx, rule, &Turn{Msg: msg, State: cur, Data: data})
	var rej *Rejection
	if errors.As(err, &rej) {
		out = rej.Outcome
		out.Rejected = true
		logger.LogEvent(ctx, logger.FSM, slog.LevelWarn, "fsm.rejected",
			slog.String("status", "rejected"),
			slog.String("rule", rule.Name),
			slog.String("state", cur.String()),
			slog.String("cause", errString(rej.Cause)),
		)
	} else if err != nil {
		return res, fmt.Errorf("rule %s: %w", rule.Name, err)
	}

	if err := m.apply(ctx, msg.ChatID, out); err != nil {
		return res, err
	}
	res.To = out.NextState(cur)
	res.Reply = out.Reply
	res.Rejected = out.Rejected

	if logger.ShouldSampleDebug() {
		logger.LogEvent(ctx, logger.FSM, slog.LevelDebug, "fsm.transition",
			slog.String("rule", rule.Name),
			slog.String("state", res.From.String()),
			slog.String("next_state", res.To.String()),
		)
	}
	return res, nil
}

func (m *Machine) run(ctx context.Context, rule Rule, t *Turn) (Outcome, error) {
	if !rule.Store {
		return rule.Handle(ctx, t)
	}
	var out Outcome
	err := m.uow.Do(ctx, func(repo store.Repository) error {
		t.Repo = repo
		var err error
		out, err = rule.Handle(ctx, t)
		return err
	})
	return out, err
}

// apply writes out to the session: clear, then state, then data.
func (m *Machine) apply(ctx context.Context, chatID int64, out Outcome) error {
	if out.Reset {
		if err := m.sessions.Clear(ctx, chatID); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}
	if out.Move {
		if err := m.sessions.SetState(ctx, chatID, out.Next); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}
	if len(out.Set) > 0 {
		if err := m.sessions.UpdateData(ctx, chatID, out.Set); err != nil {
			return fmt.Errorf("save data: %w", err)
		}
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
