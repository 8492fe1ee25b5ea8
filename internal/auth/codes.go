package auth

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// CodeDigits is the length of OTPs and password reset codes.
const CodeDigits = 6

// GenerateNumericCode produces a random numeric code of the given length,
// zero-padded. Codes are hashed before storage; the plaintext exists only in
// the delivery path.
func GenerateNumericCode(digits int) (string, error) {
	buf := make([]byte, digits)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}

// GenerateInviteToken produces an unguessable invite token.
func GenerateInviteToken() string {
	return uuid.NewString()
}
