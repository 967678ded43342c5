package model

import "time"

// Challenge is a short-lived, single-use email verification code that
// must be redeemed before a booking is created.  Only the SHA-256 hash
// of the code is stored.  Verified challenges are kept as a record of
// the redemption; stale unverified ones are removed by the cleanup job.
type Challenge struct {
	ID        string    // email_challenges.id (uuid)
	Email     string    // email_challenges.email (lower-cased)
	CodeHash  string    // email_challenges.code_hash
	SessionID uint64    // email_challenges.session_id
	CardID    uint64    // email_challenges.card_id
	Name      string    // email_challenges.name
	Phone     string    // email_challenges.phone
	Verified  bool      // email_challenges.verified
	ExpiresAt time.Time // email_challenges.expires_at
	CreatedAt time.Time // email_challenges.created_at
}
