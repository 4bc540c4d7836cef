// Package state stores per-chat conversation state: a named FSM step plus a
// string data bag, both expiring after a TTL measured from the last write.
// It is domain-agnostic; bots define their own State values and data keys.
package state
