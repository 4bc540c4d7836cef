// Package app wires configuration, infrastructure and the conversation into a runnable bot.
package app

import (
	"context"
	"fmt"
	"log/slog"

	corebootstrap "github.com/m3rciful/egebot/core/bootstrap"
	corecmd "github.com/m3rciful/egebot/core/cmd"
	"github.com/m3rciful/egebot/core/logger"
	"github.com/m3rciful/egebot/core/telegram"
	"github.com/m3rciful/egebot/core/telegram/commands"
	"github.com/m3rciful/egebot/core/telegram/router"
	"github.com/m3rciful/egebot/internal/fsm"
	"github.com/m3rciful/egebot/internal/store"
	"github.com/m3rciful/egebot/migrations"
)

// menu is the command list published to Telegram, in display order.
var menu = []struct {
	name string
	cmd  commands.Command
}{
	{fsm.CmdStart, commands.Command{Description: "Начать работу"}},
	{fsm.CmdLogin, commands.Command{Description: "Войти в аккаунт"}},
	{fsm.CmdRegister, commands.Command{Description: "Зарегистрироваться"}},
	{fsm.CmdEnterScores, commands.Command{Description: "Сохранить баллы"}},
	{fsm.CmdViewScores, commands.Command{Description: "Посмотреть сохраненные баллы"}},
	{fsm.CmdCancel, commands.Command{Description: "Отменить действие"}},
	{fsm.CmdCancelRegister, commands.Command{Description: "Отменить регистрацию"}},
}

// App is a bootstrapped bot ready to run.
type App struct {
	cfg     *Config
	infra   *corebootstrap.Result
	machine *fsm.Machine
}

// Load is the corecmd.Options.LoadConfig hook.
func Load(path string) (corecmd.ConfigCarrier, error) {
	return LoadConfig(path)
}

// Bootstrap is the corecmd.Options.Bootstrap hook.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return New(ctx, cfg)
}

// New brings up the infrastructure for cfg and builds the conversation.
func New(ctx context.Context, cfg *Config) (*App, error) {
	infra, err := corebootstrap.Run(ctx, corebootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: migrations.FS,
		Sessions:   corebootstrap.SessionOptions{URL: cfg.Session.URL, TTL: cfg.Session.TTL},
		Modules: corebootstrap.Modules{
			Seeders: []corebootstrap.Seeder{SubjectSeeder(cfg.Subjects)},
		},
	})
	if err != nil {
		return nil, err
	}
	logger.TWire.Info("conversation ready",
		slog.String("event", "app.wire"),
		slog.Int("count", len(cfg.Subjects)),
	)
	return &App{
		cfg:     cfg,
		infra:   infra,
		machine: fsm.New(infra.Sessions, store.New(infra.DB), cfg.Subjects),
	}, nil
}

// TelegramRunOptions describes the bot runtime: menu, middlewares and routes.
func (a *App) TelegramRunOptions() (telegram.RunOptions, error) {
	reg := telegram.NewRegistry()
	for _, m := range menu {
		reg.RegisterCommand(m.name, m.cmd)
	}
	core := a.cfg.CoreConfig()
	return telegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: telegram.DefaultMiddlewares(core, nil),
		Routes:      router.TextRoutes(conversation{machine: a.machine}),
	}, nil
}

// Close releases the session store and the database pool.
func (a *App) Close() error {
	return a.infra.Close()
}
