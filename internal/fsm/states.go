// Package fsm is the conversation state machine: registration and score entry
// driven by an ordered rule table over the session state and message text.
package fsm

import "github.com/m3rciful/egebot/core/telegram/state"

// Conversation states. StateDefault is both the initial and the resting state.
const (
	StateDefault        = state.StateIdle
	StateAwaitFirstName = state.State("registration:first_name")
	StateAwaitLastName  = state.State("registration:last_name")
	StateAwaitSubject   = state.State("score:subject")
	StateAwaitScore     = state.State("score:score")
)

// Session data bag keys.
const (
	KeyTelegramID = "telegram_id"
	KeyLogin      = "login"
	KeyFirstName  = "first_name"
	KeyLastName   = "last_name"
	KeySubject    = "subject"
	KeyScore      = "score"
)

// User-facing commands.
const (
	CmdStart          = "/start"
	CmdLogin          = "/login"
	CmdRegister       = "/register"
	CmdCancelRegister = "/cancel_register"
	CmdCancel         = "/cancel"
	CmdEnterScores    = "/enter_scores"
	CmdViewScores     = "/view_scores"
)

const loggedIn = "true"
