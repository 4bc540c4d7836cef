package telegram

import (
	"net"
	"net/http"
	"time"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	// Long polling holds getUpdates open for the poll timeout, so the header
	// and client timeouts must exceed it.
	defaultResponseTimeout = 15 * time.Second
	defaultClientTimeout   = 30 * time.Second
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	responseTimeout := defaultResponseTimeout
	if pollTimeout+5*time.Second > responseTimeout {
		responseTimeout = pollTimeout + 5*time.Second
	}
	clientTimeout := defaultClientTimeout
	if responseTimeout+10*time.Second > clientTimeout {
		clientTimeout = responseTimeout + 10*time.Second
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ResponseHeaderTimeout: responseTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Timeout: clientTimeout, Transport: transport}
}
