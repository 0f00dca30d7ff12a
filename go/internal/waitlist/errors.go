package waitlist

import "errors"

var (
	// ErrEntryNotFound is returned when no queued entry exists for the
	// (game, user) pair.
	ErrEntryNotFound = errors.New("waitlist entry not found")

	// ErrNothingQueued is returned by promotion when the pool's queue is
	// empty.
	ErrNothingQueued = errors.New("no waiting entries for position")

	// ErrPromotionInFlight is returned when a NOTIFIED entry already holds
	// the pool's open offer. Only one offer may be outstanding per pool.
	ErrPromotionInFlight = errors.New("promotion already in flight for position")

	// ErrNotNotified is returned when a player responds to an offer they
	// do not hold.
	ErrNotNotified = errors.New("entry has no outstanding offer")

	// ErrOfferExpired is returned when a player responds after their
	// response window closed.
	ErrOfferExpired = errors.New("offer response window expired")
)
