// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package tracker

import (
	"regexp"
	"strings"
	"sync"
	"testing"
)

var accessCodePattern = regexp.MustCompile(`^[A-Z2-9]{4}(-[A-Z2-9]{4}){3}$`)

func TestGenerateAccessCodeFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateAccessCode()
		if err != nil {
			t.Fatalf("GenerateAccessCode() error = %v", err)
		}
		if !accessCodePattern.MatchString(code) {
			t.Fatalf("GenerateAccessCode() = %q, want match for %s", code, accessCodePattern)
		}
		for _, forbidden := range []string{"0", "O", "I", "1"} {
			if strings.Contains(code, forbidden) {
				t.Fatalf("GenerateAccessCode() = %q contains ambiguous character %q", code, forbidden)
			}
		}
	}
}

func TestGenerateAccessCodeUniqueness(t *testing.T) {
	const n = 1000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		code, err := GenerateAccessCode()
		if err != nil {
			t.Fatalf("GenerateAccessCode() error = %v", err)
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("GenerateAccessCode() produced duplicate %q within %d codes", code, n)
		}
		seen[code] = struct{}{}
	}
}

func TestGenerateAccessCodeConcurrent(t *testing.T) {
	const (
		goroutines = 16
		perWorker  = 50
	)

	var (
		mu    sync.Mutex
		codes = make(map[string]struct{}, goroutines*perWorker)
		wg    sync.WaitGroup
	)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				code, err := GenerateAccessCode()
				if err != nil {
					t.Errorf("GenerateAccessCode() error = %v", err)
					return
				}
				mu.Lock()
				codes[code] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(codes) != goroutines*perWorker {
		t.Errorf("got %d distinct codes, want %d", len(codes), goroutines*perWorker)
	}
}

func TestNormalizeAccessCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normalized", "ABCD-EFGH-JKLM-NPQR", "ABCD-EFGH-JKLM-NPQR"},
		{"lowercase", "abcd-efgh-jklm-npqr", "ABCD-EFGH-JKLM-NPQR"},
		{"surrounding whitespace", "  ABCD-EFGH-JKLM-NPQR\t", "ABCD-EFGH-JKLM-NPQR"},
		{"interior whitespace", "ABCD-EFGH JKLM-NPQR", "ABCD-EFGHJKLM-NPQR"},
		{"mixed", " abCd-EFgh-jKLM-npqr\n", "ABCD-EFGH-JKLM-NPQR"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeAccessCode(tt.in); got != tt.want {
				t.Errorf("NormalizeAccessCode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
