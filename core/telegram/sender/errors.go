// Package sender classifies and redacts errors returned by outbound Telegram calls.
package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Error kinds reported by Classify.
const (
	KindTimeout = "timeout"
	KindDNS     = "dns"
	KindDial    = "dial"
	KindTLS     = "tls"
	Kind4xx     = "http_4xx"
	Kind5xx     = "http_5xx"
	KindUnknown = "unknown"
)

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// Classify maps a Bot API or network error to a coarse kind for logs.
// It returns "" for a nil error.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if kind := networkKind(err); kind != "" {
		return kind
	}
	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return KindTLS
	}
	switch status := HTTPStatus(err); {
	case status >= 500:
		return Kind5xx
	case status >= 400:
		return Kind4xx
	}
	return KindUnknown
}

func networkKind(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return KindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case opErr.Timeout():
			return KindTimeout
		case opErr.Op == "dial":
			return KindDial
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return ""
}

// HTTPStatus extracts the status code carried by a Bot API error, or 0.
func HTTPStatus(err error) int {
	if err == nil {
		return 0
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var floodErr tele.FloodError
	if errors.As(err, &floodErr) {
		return http.StatusTooManyRequests
	}

	// telebot renders unknown API errors as "telegram: <description> (<code>)".
	msg := err.Error()
	open, closing := strings.LastIndex(msg, "("), strings.LastIndex(msg, ")")
	if open < 0 || closing <= open+1 {
		return 0
	}
	code, convErr := strconv.Atoi(strings.TrimSpace(msg[open+1 : closing]))
	if convErr != nil {
		return 0
	}
	return code
}

// Redact returns the error text with bot tokens masked.
func Redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
