package gateway

import "fmt"

// Outcome is the terminal category of one login attempt. Every attempt
// ends in exactly one outcome; there are no partial or ambiguous states.
type Outcome int

const (
	// Unattempted is the zero value: no attempt ran. A zero [Result] never
	// reads as a success, so a skipped login cannot masquerade as one.
	Unattempted Outcome = iota
	// Succeeded means both protocol steps returned application code 200.
	Succeeded
	// IPResolutionFailed means the gateway's IP lookup endpoint did not
	// produce a usable client address.
	IPResolutionFailed
	// GatewayRejected means the login endpoint refused the credentials.
	GatewayRejected
	// TimedOut means a request exceeded the configured HTTP timeout.
	// Distinguished from other transport failures so the daemon can apply
	// a different policy if desired.
	TimedOut
	// InternalError wraps any other transport or parse fault.
	InternalError
)

// String returns the identifier-style name of the outcome.
func (o Outcome) String() string {
	switch o {
	case Unattempted:
		return "unattempted"
	case Succeeded:
		return "succeeded"
	case IPResolutionFailed:
		return "ip_resolution_failed"
	case GatewayRejected:
		return "gateway_rejected"
	case TimedOut:
		return "timed_out"
	case InternalError:
		return "internal_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Message returns the human-readable category surfaced in notifications.
func (o Outcome) Message() string {
	switch o {
	case Unattempted:
		return "No account was available to log in"
	case Succeeded:
		return "Logged in successfully"
	case IPResolutionFailed:
		return "Could not determine the client IP address"
	case GatewayRejected:
		return "The gateway rejected the login request"
	case TimedOut:
		return "The request timed out"
	default:
		return "Internal error"
	}
}

// Result is the value returned by [Client.Login]. Err carries the
// underlying fault for [InternalError]; it is nil for protocol-level
// outcomes. Protocol failures are values, never raised errors — the
// daemon decides what a failed attempt means.
type Result struct {
	Outcome Outcome
	Err     error
}

// Succeeded reports whether the attempt completed both steps with
// application code 200.
func (r Result) Succeeded() bool {
	return r.Outcome == Succeeded
}
