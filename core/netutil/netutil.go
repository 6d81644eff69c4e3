// Package netutil sorts outbound HTTP failures into the connectivity class
// and labels them for logs and metrics.
package netutil

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// CheckStatus returns a *StatusError unless code is 2xx.
func CheckStatus(method, rawURL string, code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	return &StatusError{Method: method, URL: rawURL, Code: code}
}

// IsNetworkError reports whether err means the remote side could not be
// reached or answered with a non-2xx status.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	// net/http wraps every transport failure in *url.Error.
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// IsTimeout reports whether err is a deadline or I/O timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Classify returns a short label for err.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if IsTimeout(err) {
		return "timeout"
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code >= 500:
			return "http_5xx"
		case statusErr.Code >= 400:
			return "http_4xx"
		default:
			return "http_other"
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return "dial"
	}

	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "tls"
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return "tls"
	}

	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return "unknown"
}
