package platform

import (
	"crypto/rand"

	"github.com/google/uuid"
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const tokenLength = 32

func NewID() string {
	return uuid.New().String()
}

// NewVerificationToken generates the random value published as a TXT record
// to prove control of a domain. Generated once when the domain record is
// created and never regenerated afterwards.
func NewVerificationToken() string {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	for i := range b {
		b[i] = tokenAlphabet[b[i]%byte(len(tokenAlphabet))]
	}
	return "quimera-verify=" + string(b)
}
