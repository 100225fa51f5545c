// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package tracker

import (
	"crypto/rand"
	"fmt"
	"strings"
	"unicode"
)

// accessCodeAlphabet excludes visually ambiguous glyphs (0, O, I, 1).
// Its length is a power of two, so mapping random bytes with a bitmask
// introduces no modulo bias.
const accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	accessCodeChars     = 16
	accessCodeGroupSize = 4
	accessCodeSeparator = '-'
)

// GenerateAccessCode draws 16 characters from the access-code alphabet and
// groups them as XXXX-XXXX-XXXX-XXXX. Uniqueness is not guaranteed here;
// callers verify against the store and regenerate on collision.
func GenerateAccessCode() (string, error) {
	buf := make([]byte, accessCodeChars)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	var b strings.Builder
	b.Grow(accessCodeChars + accessCodeChars/accessCodeGroupSize - 1)
	for i, raw := range buf {
		if i > 0 && i%accessCodeGroupSize == 0 {
			b.WriteByte(accessCodeSeparator)
		}
		b.WriteByte(accessCodeAlphabet[int(raw)&(len(accessCodeAlphabet)-1)])
	}

	return b.String(), nil
}

// NormalizeAccessCode prepares a user-supplied code for lookup: uppercase
// and with all whitespace stripped. Lookups are case- and
// whitespace-insensitive per the access-code contract.
func NormalizeAccessCode(code string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, code)
}
