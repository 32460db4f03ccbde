// Package validate canonicalizes addresses, amounts, and free text before
// any state change. It is a leaf package with no dependencies on the rest
// of the engine; every public operation runs its inputs through here
// first so no partial mutation can happen on malformed input.
package validate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

const (
	maxAddressLen = 128
	maxNameLen    = 64
	maxMessageLen = 500

	// MinLinkCodeLen and MaxLinkCodeLen bound codes before any lookup.
	MinLinkCodeLen = 10
	MaxLinkCodeLen = 20
)

var (
	ErrEmptyAddress   = errors.New("address is required")
	ErrInvalidAddress = errors.New("address is malformed")
	ErrInvalidAmount  = errors.New("amount must be a non-negative decimal")
	ErrEmptyName      = errors.New("name is required")
	ErrNameTooLong    = errors.New("name is too long")
	ErrMessageTooLong = errors.New("message is too long")
	ErrInvalidCode    = errors.New("link code is malformed")
)

// Address trims and validates a wallet address. Addresses are opaque to
// the engine; the check only rejects values that cannot be an address at
// all (empty, embedded whitespace, control characters, oversized).
func Address(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	if addr == "" {
		return "", ErrEmptyAddress
	}
	if len(addr) < 3 || len(addr) > maxAddressLen {
		return "", ErrInvalidAddress
	}
	for _, r := range addr {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", ErrInvalidAddress
		}
	}
	return addr, nil
}

// Amount parses a caller-supplied decimal amount string. Negative, NaN,
// infinite, and non-numeric values are rejected.
func Amount(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return v, nil
}

// Name sanitizes a group name: trims, collapses internal runs of
// whitespace to single spaces, and strips control characters.
func Name(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len(name) > maxNameLen {
		return "", ErrNameTooLong
	}
	return name, nil
}

// Message sanitizes free text attached to a payment. Empty is allowed.
func Message(raw string) (string, error) {
	msg := strings.TrimSpace(raw)
	if len(msg) > maxMessageLen {
		return "", ErrMessageTooLong
	}
	msg = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' {
			return -1
		}
		return r
	}, msg)
	return msg, nil
}

// LinkCode length-bounds a shareable code before it is looked up.
func LinkCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if len(code) < MinLinkCodeLen || len(code) > MaxLinkCodeLen {
		return "", ErrInvalidCode
	}
	for _, r := range code {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", ErrInvalidCode
		}
	}
	return code, nil
}

// RoundShare rounds a per-member share to six decimal places, the
// precision splits are computed at.
func RoundShare(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
