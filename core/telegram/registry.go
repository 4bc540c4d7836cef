package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m3rciful/egebot/core/logger"
	"github.com/m3rciful/egebot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds the commands published in the bot menu, in registration order.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	commands map[string]commands.Command
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]commands.Command)}
}

// RegisterCommand adds a command; invalid or duplicate names are skipped with a warning.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	if r == nil || name == "" || cmd.Description == "" {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "invalid"),
		)
		return
	}
	if name[0] != '/' {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "no_slash_prefix"),
		)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.duplicate",
			slog.String("name", name),
		)
		return
	}
	r.commands[name] = cmd
	r.order = append(r.order, name)
}

// ListCommands returns the menu entries, optionally without hidden commands.
// Telegram expects command names without the leading slash.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.order))
	for _, name := range r.order {
		meta := r.commands[name]
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: name[1:], Description: meta.Description})
	}
	return list
}

// InitBotCommands publishes the visible commands to the Telegram menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) error {
	list := reg.ListCommands(true)
	if len(list) == 0 {
		return nil
	}
	if err := bot.SetCommands(list); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("set commands: %w", err)
	}
	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "register.commands.set",
		slog.Int("count", len(list)),
	)
	return nil
}
