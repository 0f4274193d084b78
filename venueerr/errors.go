// Package venueerr defines the error taxonomy returned by the session,
// quote and trade clients. Zero-argument conditions are sentinel values
// usable with errors.Is; conditions that carry context are struct types
// implementing error, usable with errors.As.
package venueerr

import "fmt"

var (
	// ErrNotConnected is returned by Logon when the session is not in the
	// Connected state (not dialed yet, already logged on, or torn down),
	// and to a pending Logon when the connection closes.
	ErrNotConnected = sentinel("not connected")

	// ErrLoggedOut is returned by Send and Logout when the session is not
	// in the LoggedOn state, and by Logon when the peer answers the logon
	// with a Logout.
	ErrLoggedOut = sentinel("session logged out")

	// ErrMissingArgument is returned by CancelOrder and ReplaceOrder when
	// neither OrigClOrdID nor OrderID is set.
	ErrMissingArgument = sentinel("missing required argument")

	// ErrTimeout is returned when a correlated request receives no
	// response within its deadline.
	ErrTimeout = sentinel("request timed out")

	// ErrFieldNotFound is returned by wire.Message.MustField when the
	// requested tag is absent from the message.
	ErrFieldNotFound = sentinel("field not found")

	// ErrOrderFailed is returned when a new, cancel or replace order
	// request is answered with a BusinessMessageReject (35=j).
	ErrOrderFailed = sentinel("order rejected")

	// ErrOrderCancelRejected is returned when an OrderCancelRequest or
	// OrderCancelReplaceRequest comes back as an OrderCancelReject.
	ErrOrderCancelRejected = sentinel("order cancel rejected")
)

type sentinel string

func (s sentinel) Error() string { return string(s) }

// SubscriptionError reports that a market data request was rejected by
// the venue.
type SubscriptionError struct {
	ReqID  string
	Symbol string
	Reason string
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription %s for %s rejected: %s", e.ReqID, e.Symbol, e.Reason)
}

// AlreadySubscribedError reports a duplicate subscribe call for a
// symbol that already has an active or pending subscription.
type AlreadySubscribedError struct {
	Symbol string
}

func (e *AlreadySubscribedError) Error() string {
	return fmt.Sprintf("already subscribed to %s", e.Symbol)
}

// SubscriptionPendingError reports an unsubscribe attempted while the
// original subscribe request has not yet been acknowledged.
type SubscriptionPendingError struct {
	Symbol string
}

func (e *SubscriptionPendingError) Error() string {
	return fmt.Sprintf("subscription for %s still pending acknowledgement", e.Symbol)
}

// NotSubscribedError reports an unsubscribe attempted for a symbol with
// no subscription, or one whose subscription the venue rejected.
type NotSubscribedError struct {
	Symbol string
}

func (e *NotSubscribedError) Error() string {
	return fmt.Sprintf("not subscribed to %s", e.Symbol)
}

// RequestRejectedError wraps a session- or business-level Reject message
// correlated to an outbound request.
type RequestRejectedError struct {
	RefSeqNum int
	MsgType   string
	Reason    string
}

func (e *RequestRejectedError) Error() string {
	return fmt.Sprintf("request (seq %d, type %s) rejected: %s", e.RefSeqNum, e.MsgType, e.Reason)
}

// NoResponseError reports that a correlated request's deadline elapsed
// with no matching response ever observed, distinct from ErrTimeout in
// that it carries the request identifier for logging.
type NoResponseError struct {
	ReqID string
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("no response received for request %s", e.ReqID)
}
