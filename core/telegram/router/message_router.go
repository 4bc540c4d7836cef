package router

import (
	"context"
	"time"

	tg "github.com/m3rciful/egebot/core/telegram"
	tghelpers "github.com/m3rciful/egebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Answer is a conversation's reply to one message.
type Answer struct {
	// Handler names the rule that produced the answer, for logs.
	Handler  string
	Text     string
	Markup   *tele.ReplyMarkup
	Rejected bool
}

// Conversation answers chat messages. Non-text messages arrive with empty text.
type Conversation interface {
	Converse(ctx context.Context, chatID int64, text string) (Answer, error)
}

// TextRoutes routes text and media messages into conv and sends its answer.
// Commands reach OnText because no command endpoints are registered.
func TextRoutes(conv Conversation) []tg.Route {
	converse := func(c tele.Context, text string) error {
		start := time.Now()
		chat := c.Chat()
		if conv == nil || chat == nil {
			logHandlerSummary(c, "unknown", start, "skip", "ok", nil)
			return nil
		}

		ans, err := conv.Converse(tghelpers.BuildContext(c), chat.ID, text)
		outcome := ""
		if ans.Rejected {
			outcome = "rejected"
		}
		return handleWithSummary(c, normalizeHandlerName(ans.Handler), start, "", outcome, func() error {
			if err != nil {
				return err
			}
			if ans.Text == "" {
				return nil
			}
			return tghelpers.SendText(c, ans.Text, ans.Markup)
		})
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler: func(c tele.Context) error {
				var text string
				if m := c.Message(); m != nil {
					text = m.Text
				}
				return converse(c, text)
			},
		},
		{
			Endpoint: tele.OnMedia,
			Handler:  func(c tele.Context) error { return converse(c, "") },
		},
	}
}
