package helpers

import (
	tele "gopkg.in/telebot.v4"
)

// SendText sends raw text (no parse mode) to the current chat, attaching
// markup when one is given. The call is synchronous so replies keep their order.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	if len(markup) > 0 && markup[0] != nil {
		return c.Send(text, markup[0])
	}
	return c.Send(text)
}
