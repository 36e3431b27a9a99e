package room

import (
	"crypto/rand"
	"encoding/base64"
)

const tokenLen = 16

// Token is the opaque credential bound to one username within the room that
// issued it. It never crosses room boundaries and is immutable once minted.
type Token [tokenLen]byte

func generateToken() (Token, error) {
	var t Token
	_, err := rand.Read(t[:])
	return t, err
}

// EncodeToken renders a token in its text-safe boundary form.
func EncodeToken(t Token) string {
	return base64.StdEncoding.EncodeToString(t[:])
}

// DecodeToken parses the boundary form produced by EncodeToken. Anything
// that does not decode to exactly tokenLen bytes is unauthenticated.
func DecodeToken(s string) (Token, error) {
	var t Token
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(raw) != tokenLen {
		return t, ErrUnauthenticated
	}
	copy(t[:], raw)
	return t, nil
}
