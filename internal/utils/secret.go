package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
)

// TicketAlphabet excludes characters that are easy to misread at the door
// (0/O, 1/I/L).
const TicketAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// HashCode returns the SHA-256 hex digest of a secret.  Verification codes
// and card codes are stored only in this form.
func HashCode(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// HashEqual compares two hex digests in constant time.
func HashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// RandomHex returns a hex string generated from n bytes of secure random
// data.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// RandomDigits returns n uniformly distributed decimal digits, keeping
// leading zeros.
func RandomDigits(n int) (string, error) {
	return RandomString(n, "0123456789")
}

// RandomString returns n characters drawn uniformly from alphabet.
func RandomString(n int, alphabet string) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[v.Int64()]
	}
	return string(out), nil
}
