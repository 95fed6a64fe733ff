package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Session tokens are self-verifying: an 8-hex-char random header joined
// by a dot to the first 16 hex chars of sha256(header+secret). No
// server-side session table is needed to reject forged room names.

// NewSessionID mints a session token under the given secret.
func NewSessionID(secret string) string {
	header := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return header + "." + signSessionHeader(header, secret)
}

// VerifySessionID reports whether the token was minted under the secret.
func VerifySessionID(sessionID, secret string) bool {
	header, sig, ok := strings.Cut(sessionID, ".")
	if !ok {
		return false
	}
	return sig == signSessionHeader(header, secret)
}

func signSessionHeader(header, secret string) string {
	sum := sha256.Sum256([]byte(header + secret))
	return hex.EncodeToString(sum[:])[:16]
}
