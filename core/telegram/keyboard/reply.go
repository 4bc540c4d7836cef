package keyboard

import tele "gopkg.in/telebot.v4"

// ReplyOptions are the display hints of a reply keyboard.
type ReplyOptions struct {
	Resize  bool
	OneTime bool
}

// ReplyButtons builds a reply keyboard from rows of button labels.
// It returns nil when there are no buttons.
func ReplyButtons(opts ReplyOptions, rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: opts.Resize, OneTimeKeyboard: opts.OneTime}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	if len(keyboard) == 0 {
		return nil
	}
	markup.Reply(keyboard...)
	return markup
}
