package service

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// passwords encodes new passwords and checks login attempts. Stored values
// starting with "$2" are bcrypt hashes; anything else is legacy plaintext.
type passwords struct {
	hash bool
}

func (p passwords) encode(plain string) (string, error) {
	if !p.hash {
		return plain, nil
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (passwords) match(stored, given string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
