// Package auth implements the access PIN handed to a reporter on
// submission. The PIN plus report identifier is the only credential for
// tracking an anonymous report, so only its hash is ever persisted.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/rotisserie/eris"
)

// PINLength is the number of digits in a reporter access PIN.
const PINLength = 6

// NewPIN generates a random numeric PIN with leading zeros preserved.
func NewPIN() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < PINLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", eris.Wrap(err, "auth: generate pin")
	}
	return fmt.Sprintf("%0*d", PINLength, n), nil
}

// HashPIN returns the hex-encoded SHA-256 digest of a PIN.
func HashPIN(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// VerifyPIN compares a candidate PIN against a stored hash in constant
// time.
func VerifyPIN(pin, hash string) bool {
	candidate := HashPIN(pin)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hash)) == 1
}
