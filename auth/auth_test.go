// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		wantLen int // hex encoded length = byteLen * 2
	}{
		{"8 bytes", 8, 16},
		{"16 bytes", 16, 32},
		{"24 bytes", 24, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GenerateID(tt.byteLen)
			if err != nil {
				t.Fatalf("GenerateID() error = %v", err)
			}
			if len(id) != tt.wantLen {
				t.Errorf("GenerateID() length = %d, want %d", len(id), tt.wantLen)
			}
			// Verify it's valid hex
			for _, c := range id {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("GenerateID() contains invalid hex char: %c", c)
				}
			}
		})
	}

	// Test randomness - two IDs should be different
	id1, _ := GenerateID(16)
	id2, _ := GenerateID(16)
	if id1 == id2 {
		t.Error("GenerateID() produced duplicate IDs (extremely unlikely)")
	}
}

func TestValidateAdminKey(t *testing.T) {
	tests := []struct {
		name     string
		provided string
		expected string
		wantErr  bool
	}{
		{"matching key", "s3cret-admin", "s3cret-admin", false},
		{"wrong key", "guess", "s3cret-admin", true},
		{"empty provided", "", "s3cret-admin", true},
		{"admin disabled", "anything", "", true},
		{"both empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.provided, tt.expected)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidAdminKey) {
				t.Errorf("ValidateAdminKey() error = %v, want ErrInvalidAdminKey", err)
			}
		})
	}
}

func TestSessionRoundTrip(t *testing.T) {
	token, err := IssueSession("tuko-user-42", "session-secret", time.Hour)
	if err != nil {
		t.Fatalf("IssueSession() error = %v", err)
	}

	voterID, err := ParseSession(token, "session-secret")
	if err != nil {
		t.Fatalf("ParseSession() error = %v", err)
	}
	if voterID != "tuko-user-42" {
		t.Errorf("ParseSession() voterID = %q, want %q", voterID, "tuko-user-42")
	}
}

func TestParseSessionRejects(t *testing.T) {
	valid, _ := IssueSession("tuko-user-42", "session-secret", time.Hour)
	expired, _ := IssueSession("tuko-user-42", "session-secret", -time.Minute)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", valid, "other-secret"},
		{"expired", expired, "session-secret"},
		{"garbage", "not-a-jwt", "session-secret"},
		{"empty token", "", "session-secret"},
		{"empty secret", valid, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSession(tt.token, tt.secret)
			if !errors.Is(err, ErrInvalidSession) {
				t.Errorf("ParseSession() error = %v, want ErrInvalidSession", err)
			}
		})
	}
}

func TestIssueSessionRequiresInputs(t *testing.T) {
	if _, err := IssueSession("", "secret", time.Hour); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("IssueSession() with empty voter id error = %v", err)
	}
	if _, err := IssueSession("voter", "", time.Hour); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("IssueSession() with empty secret error = %v", err)
	}
}

func TestHashIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		salt string
	}{
		{"IPv4", "192.168.1.1", "ip-salt"},
		{"IPv6", "2001:0db8:85a3::8a2e:0370:7334", "ip-salt"},
		{"localhost", "127.0.0.1", "ip-salt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := HashIP(tt.ip, tt.salt)

			// Should not be empty
			if hash == "" {
				t.Error("HashIP() returned empty string")
			}

			// Should be 16 hex characters (8 bytes * 2)
			if len(hash) != 16 {
				t.Errorf("HashIP() length = %d, want 16", len(hash))
			}

			// Should be valid hex
			for _, c := range hash {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("HashIP() contains invalid hex char: %c", c)
				}
			}

			// Should be deterministic
			hash2 := HashIP(tt.ip, tt.salt)
			if hash != hash2 {
				t.Error("HashIP() is not deterministic")
			}
		})
	}

	// Unknown origins stay empty so they are excluded from grouping
	if HashIP("", "salt") != "" {
		t.Error("HashIP() should return empty string for empty IP")
	}

	// Different IPs should produce different hashes
	hash1 := HashIP("192.168.1.1", "salt")
	hash2 := HashIP("192.168.1.2", "salt")
	if hash1 == hash2 {
		t.Error("HashIP() produced same hash for different IPs")
	}

	// Different salts should produce different hashes
	hash3 := HashIP("192.168.1.1", "salt1")
	hash4 := HashIP("192.168.1.1", "salt2")
	if hash3 == hash4 {
		t.Error("HashIP() produced same hash for different salts")
	}
}

// Benchmark tests
func BenchmarkGenerateID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GenerateID(16)
	}
}

func BenchmarkParseSession(b *testing.B) {
	token, _ := IssueSession("bench-voter", "bench-secret", time.Hour)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseSession(token, "bench-secret")
	}
}
