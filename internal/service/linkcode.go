package service

import (
	"crypto/rand"
	"fmt"
)

// Link codes are shareable, so the alphabet avoids characters that are
// easy to misread (0/O, 1/l/I).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// codeLength keeps the birthday-bound collision probability negligible
// at expected payment volume (54^12 ≈ 6e20 codes).
const codeLength = 12

// maxCodeAttempts bounds insert retries when a generated code collides
// with an existing payment's unique link_code.
const maxCodeAttempts = 5

// newLinkCode generates a random shareable code.
func newLinkCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate link code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
