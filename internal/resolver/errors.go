package resolver

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies why a query or URL could not be resolved.
type Kind int

const (
	KindToolMissing     Kind = iota + 1 // extraction tool not installed
	KindToolFailed                      // non-zero exit without a known cause
	KindMalformedOutput                 // output did not match the expected shape
	KindInvalidRequest                  // empty query, negative limit
	KindBadURL                          // not an absolute http(s) URL
	KindUnsupported                     // tool has no extractor for the site
	KindUnavailable                     // removed, private, or otherwise gone
	KindAmbiguous                       // URL designates more than one item
)

// String returns a short label for the kind.
func (k Kind) String() string {
	switch k {
	case KindToolMissing:
		return "tool missing"
	case KindToolFailed:
		return "tool failed"
	case KindMalformedOutput:
		return "malformed output"
	case KindInvalidRequest:
		return "invalid request"
	case KindBadURL:
		return "invalid URL"
	case KindUnsupported:
		return "unsupported source"
	case KindUnavailable:
		return "unavailable"
	case KindAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Operation names carried by Error.
const (
	OpSearch  = "search"
	OpResolve = "resolve"
)

// Error is returned when a query or URL cannot be turned into playable
// metadata. Timeouts are reported separately as *proc.TimeoutError.
type Error struct {
	Op     string // OpSearch or OpResolve
	Input  string // query or URL
	Kind   Kind
	Reason string // diagnostic from the tool, if any
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %q: %s", e.Op, e.Input, e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a resolver error of the given kind.
func IsKind(err error, kind Kind) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Kind == kind
}

// unavailableMarkers are fragments of yt-dlp diagnostics for content that
// exists as a URL but cannot be fetched.
var unavailableMarkers = []string{
	"video unavailable",
	"is unavailable",
	"not available",
	"private video",
	"has been removed",
	"been terminated",
	"deleted",
	"members-only",
	"sign in to confirm your age",
	"http error 404",
}

// classify maps tool stderr to a failure kind.
func classify(stderr string) Kind {
	s := strings.ToLower(stderr)
	if strings.Contains(s, "unsupported url") {
		return KindUnsupported
	}
	for _, marker := range unavailableMarkers {
		if strings.Contains(s, marker) {
			return KindUnavailable
		}
	}
	return KindToolFailed
}

// errorLine picks the most relevant diagnostic: the last "ERROR:" line if
// present, otherwise the last non-empty line.
func errorLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if rest, ok := strings.CutPrefix(line, "ERROR:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
