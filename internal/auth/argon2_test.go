package auth

import (
	"errors"
	"strings"
	"testing"
)

// cheap keeps the suite fast; encoding and verification do not depend on cost.
var cheap = NewHasher(Params{Time: 1, Memory: 8 * 1024, Threads: 1})

func TestHasher_PHCEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		hasher *Hasher
		params string
	}{
		{"defaults", NewHasher(DefaultParams), "m=65536,t=3,p=4"},
		{"zero params fall back to defaults", NewHasher(Params{}), "m=65536,t=3,p=4"},
		{"custom", cheap, "m=8192,t=1,p=1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash, err := tt.hasher.Hash("alice-in-lisbon")
			if err != nil {
				t.Fatalf("Hash: %v", err)
			}
			fields := strings.Split(hash, "$")
			if len(fields) != 6 || fields[1] != "argon2id" || fields[2] != "v=19" || fields[3] != tt.params {
				t.Errorf("hash = %s, want $argon2id$v=19$%s$...", hash, tt.params)
			}
		})
	}
}

func TestHasher_VerifyUsesStoredParams(t *testing.T) {
	t.Parallel()

	hash, err := cheap.Hash("secret")
	if err != nil {
		t.Fatal(err)
	}
	ok, err := NewHasher(DefaultParams).Verify("secret", hash)
	if err != nil || !ok {
		t.Errorf("default hasher Verify = %v, %v; want true, nil", ok, err)
	}
}

func TestHasher_SaltedHashesDiffer(t *testing.T) {
	t.Parallel()

	a, _ := cheap.Hash("same password")
	b, _ := cheap.Hash("same password")
	if a == b {
		t.Fatal("two hashes of one password are identical")
	}
	for _, h := range []string{a, b} {
		if ok, _ := cheap.Verify("same password", h); !ok {
			t.Errorf("Verify(%s) = false", h)
		}
	}
}

func TestHasher_Verify(t *testing.T) {
	t.Parallel()

	hash, err := cheap.Hash("alice-password")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct", "alice-password", true},
		{"one char off", "alice-passw0rd", false},
		{"case differs", "Alice-password", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := cheap.Verify(tt.password, hash)
			if err != nil {
				t.Fatalf("mismatch returned error %v", err)
			}
			if got != tt.want {
				t.Errorf("Verify(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestHasher_EmptyPassword(t *testing.T) {
	t.Parallel()

	if _, err := cheap.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("err = %v, want ErrEmptyPassword", err)
	}
}

func TestHasher_MalformedHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hash string
		want error
	}{
		{"empty", "", ErrInvalidHash},
		{"not phc", "not-a-hash", ErrInvalidHash},
		{"bcrypt", "$bcrypt$v=19$m=65536,t=3,p=4$salt$hash", ErrInvalidHash},
		{"truncated", "$argon2id$v=19$m=65536", ErrInvalidHash},
		{"leading garbage", "x$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA", ErrInvalidHash},
		{"zero cost", "$argon2id$v=19$m=0,t=0,p=0$c2FsdA$aGFzaA", ErrInvalidHash},
		{"bad salt", "$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA", ErrInvalidHash},
		{"empty key", "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$", ErrInvalidHash},
		{"old version", "$argon2id$v=18$m=65536,t=3,p=4$c29tZXNhbHRoZXJl$c29tZWhhc2hoZXJl", ErrIncompatibleVersion},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ok, err := cheap.Verify("password", tt.hash)
			if !errors.Is(err, tt.want) || ok {
				t.Errorf("Verify = %v, %v; want false, %v", ok, err, tt.want)
			}
		})
	}
}
