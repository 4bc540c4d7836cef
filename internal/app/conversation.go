package app

import (
	"context"

	"github.com/m3rciful/egebot/core/telegram/keyboard"
	"github.com/m3rciful/egebot/core/telegram/router"
	"github.com/m3rciful/egebot/internal/fsm"

	tele "gopkg.in/telebot.v4"
)

// conversation adapts the state machine to the Telegram text router.
type conversation struct {
	machine *fsm.Machine
}

func (c conversation) Converse(ctx context.Context, chatID int64, text string) (router.Answer, error) {
	res, err := c.machine.Handle(ctx, fsm.Message{ChatID: chatID, Text: text})
	if err != nil {
		return router.Answer{Handler: res.Rule}, err
	}
	return router.Answer{
		Handler:  res.Rule,
		Text:     res.Reply.Text,
		Markup:   markup(res.Reply.Keyboard),
		Rejected: res.Rejected,
	}, nil
}

func markup(kb *fsm.Keyboard) *tele.ReplyMarkup {
	if kb == nil {
		return nil
	}
	return keyboard.ReplyButtons(keyboard.ReplyOptions{Resize: kb.Resize, OneTime: kb.OneTime}, kb.Rows...)
}
