package services

import "errors"

// Error taxonomy for the messaging engine. Routes map these onto HTTP
// statuses; anything else coming out of a service is a store failure and
// surfaces as a 500.
var (
	// ErrUnauthenticated means no actor identity was available.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotOwner means the actor is neither sender nor receiver of the
	// message (or, for read state, not the receiver).
	ErrNotOwner = errors.New("not a participant of this message")

	// ErrNotFound means the message or listing does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the requested lifecycle transition is illegal
	// from the message's current state.
	ErrInvalidState = errors.New("invalid message state for this operation")

	// ErrEmptyContent rejects blank message bodies.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrListingNotFound rejects sends against a missing listing or an
	// unknown support category.
	ErrListingNotFound = errors.New("listing not found")

	// ErrInvalidTarget rejects sends that set neither or both of
	// listingID / supportCategory, or that address the actor itself.
	ErrInvalidTarget = errors.New("invalid message target")

	// ErrSendLimit means the actor hit their daily send quota.
	ErrSendLimit = errors.New("message send limit reached")
)
