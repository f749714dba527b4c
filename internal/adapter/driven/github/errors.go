package github

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	gh "github.com/google/go-github/v82/github"
)

// maxErrorBody bounds how much of a failed response body is kept in an APIError.
const maxErrorBody = 200

// Sentinel errors returned by Client.
var (
	// ErrRateLimited indicates GitHub refused the request because the
	// unauthenticated rate limit was exhausted.
	ErrRateLimited = errors.New("github api rate limit exceeded (unauthenticated)")

	// ErrTLSVerification indicates the server certificate could not be
	// verified against the trusted roots.
	ErrTLSVerification = errors.New("tls certificate verification failed; " +
		"install or update the system CA certificates (e.g. ca-certificates) or set SSL_CERT_FILE")
)

// APIError is returned for any HTTP status >= 400 that is not a rate limit.
type APIError struct {
	Request    string
	StatusCode int
	Body       string // Truncated to maxErrorBody bytes.
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s -> %d: %s", e.Request, e.StatusCode, e.Body)
}

// mapError translates go-github and transport errors into the errors this
// package exposes. Unrecognised errors are wrapped unchanged.
func mapError(request string, err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%s: %w", request, ErrRateLimited)
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%s: %w", request, ErrRateLimited)
	}

	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		body := responseBody(errResp)
		if errResp.Response.StatusCode == http.StatusForbidden &&
			strings.Contains(strings.ToLower(body+" "+errResp.Message), "rate limit") {
			return fmt.Errorf("%s: %w", request, ErrRateLimited)
		}
		return &APIError{
			Request:    request,
			StatusCode: errResp.Response.StatusCode,
			Body:       truncate(body, maxErrorBody),
		}
	}

	if isCertificateError(err) {
		return fmt.Errorf("%s: %w: %v", request, ErrTLSVerification, err)
	}

	return fmt.Errorf("%s: %w", request, err)
}

// responseBody returns the raw body of a failed response. go-github re-populates
// the body after decoding it, so it can still be read here. Falls back to the
// decoded message when the body is unavailable.
func responseBody(errResp *gh.ErrorResponse) string {
	if errResp.Response.Body != nil {
		data, err := io.ReadAll(errResp.Response.Body)
		if err == nil && len(data) > 0 {
			return string(data)
		}
	}
	return errResp.Message
}

func isCertificateError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return true
	}

	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}

	var invalidCert x509.CertificateInvalidError
	if errors.As(err, &invalidCert) {
		return true
	}

	var hostnameErr x509.HostnameError
	return errors.As(err, &hostnameErr)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
