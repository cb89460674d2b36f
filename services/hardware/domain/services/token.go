package services

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/gorilla/securecookie"
)

const tokenBytes = 32

// tokenEncoding is unpadded lowercase-safe base32; 32 random bytes encode
// to 52 characters.
var tokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// TokenLength is the length of every token NewReservationToken returns.
var TokenLength = tokenEncoding.EncodedLen(tokenBytes)

// NewReservationToken returns an unguessable bearer token for a reservation.
func NewReservationToken() (string, error) {
	key := securecookie.GenerateRandomKey(tokenBytes)
	if key == nil {
		return "", fmt.Errorf("generate reservation token: random source failed")
	}
	return tokenEncoding.EncodeToString(key), nil
}

// NormalizeToken trims and upper-cases a client-supplied token and reports
// whether it is well formed. Malformed tokens can never match a reservation.
func NormalizeToken(raw string) (string, bool) {
	tok := strings.ToUpper(strings.TrimSpace(raw))
	if len(tok) != TokenLength {
		return "", false
	}
	if _, err := tokenEncoding.DecodeString(tok); err != nil {
		return "", false
	}
	return tok, true
}
