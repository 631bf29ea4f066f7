package perpetua

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/mrz1836/goalsync/internal/errors"
)

// Class is the retry/halt classification of a remote failure.
type Class string

// Failure classes.
const (
	// ClassTransient failures (429, 5xx, network, timeout) may be retried.
	ClassTransient Class = "transient"
	// ClassRejected failures are permanent for the request but not for the run.
	ClassRejected Class = "rejected"
	// ClassAuth means the credential was refused; the run must halt.
	ClassAuth Class = "auth"
	// ClassLimit means the account hit a resource limit; the run must halt.
	ClassLimit Class = "limit"
)

// Fatal reports whether the class halts a run.
func (c Class) Fatal() bool {
	return c == ClassAuth || c == ClassLimit
}

// Error is a failed Perpetua call. StatusCode is 0 for transport failures.
// Body holds the response text exactly as received; display code shortens it.
type Error struct {
	Op         string
	StatusCode int
	Body       string
	Class      Class
	Err        error
}

// Error renders "HTTP {code}: {body}" for HTTP failures, the form recorded in the ledger.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": " + e.Body
}

// Unwrap exposes the transport cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is maps the class onto the shared sentinels so callers can use errors.Is
// without importing this package.
func (e *Error) Is(target error) bool {
	switch target {
	case errors.ErrRemoteRequest:
		return true
	case errors.ErrAuthRejected:
		return e.Class == ClassAuth
	case errors.ErrAccountLimit:
		return e.Class == ClassLimit
	}
	return false
}

// ClassOf returns the class of err, or "" when err is not an *Error.
func ClassOf(err error) Class {
	var remote *Error
	if stderrors.As(err, &remote) {
		return remote.Class
	}
	return ""
}

var (
	//nolint:gochecknoglobals // compiled once
	rateLimitMarker = regexp.MustCompile(`(?i)rate[ _-]?limit|throttl|too many requests`)
	//nolint:gochecknoglobals // compiled once
	resourceLimitMarker = regexp.MustCompile(`(?i)(goal|resource|campaign|account|plan)[ _-]?(limit|quota)|limit[ _-]?(reached|exceeded)|quota[ _-]?exceeded|maximum number of (goals|campaigns)`)
)

// hasLimitMarker reports whether text signals an account resource limit.
// Rate limiting is transient and never counts as an account limit.
func hasLimitMarker(text string) bool {
	if rateLimitMarker.MatchString(text) {
		return false
	}
	return resourceLimitMarker.MatchString(text)
}

// classifyStatus maps a non-2xx HTTP status and body onto a Class.
func classifyStatus(status int, body string) Class {
	switch {
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return ClassTransient
	case status == http.StatusPaymentRequired:
		return ClassLimit
	case status == http.StatusUnauthorized:
		return ClassAuth
	case hasLimitMarker(body):
		return ClassLimit
	case status == http.StatusForbidden:
		return ClassAuth
	case status == http.StatusRequestTimeout:
		return ClassTransient
	default:
		return ClassRejected
	}
}

// classifyGraphQLCode maps a GraphQL errors[].extensions.code onto a Class.
func classifyGraphQLCode(code, message string) Class {
	upper := strings.ToUpper(code)
	switch {
	case rateLimitMarker.MatchString(upper) || upper == "INTERNAL_SERVER_ERROR" || upper == "SERVICE_UNAVAILABLE" || upper == "TIMEOUT":
		return ClassTransient
	case strings.Contains(upper, "LIMIT") || strings.Contains(upper, "QUOTA") || hasLimitMarker(message):
		return ClassLimit
	case upper == "UNAUTHENTICATED" || upper == "UNAUTHORIZED" || upper == "FORBIDDEN":
		return ClassAuth
	default:
		return ClassRejected
	}
}
