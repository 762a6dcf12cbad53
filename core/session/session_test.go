package session

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/kipiapp/kipi/core"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims *Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return tok
}

func TestAuthenticate(t *testing.T) {
	p := NewProvider(&core.Config{SecretKey: "secret"})

	tok := signToken(t, "secret", jwt.SigningMethodHS256, &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "student1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
		Email: "student1@example.com",
	})

	id, err := p.Authenticate(tok)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if id != Identity("student1") {
		t.Errorf("Authenticate() = %q, want %q", id, "student1")
	}
	if got := p.Current(); got != id {
		t.Errorf("Current() = %q, want %q", got, id)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	p := NewProvider(&core.Config{SecretKey: "secret"})

	expired := signToken(t, "secret", jwt.SigningMethodHS256, &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "student1",
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		},
	})
	wrongKey := signToken(t, "not-the-secret", jwt.SigningMethodHS256, &Claims{
		StandardClaims: jwt.StandardClaims{Subject: "student1"},
	})
	noSubject := signToken(t, "secret", jwt.SigningMethodHS256, &Claims{
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	})

	tests := []struct {
		name, token string
	}{
		{"garbage", "not.a.token"},
		{"expired", expired},
		{"wrong key", wrongKey},
		{"no subject", noSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Authenticate(tt.token); err == nil {
				t.Errorf("Authenticate(%s) error = nil, want non-nil", tt.name)
			}
			if got := p.Current(); got != None {
				t.Errorf("Current() after rejected %s = %q, want None", tt.name, got)
			}
		})
	}
}

func TestSubscribeNotifiesOnTransitions(t *testing.T) {
	p := NewProvider(&core.Config{SecretKey: "secret"})

	var seen []Identity
	p.Subscribe(func(id Identity) { seen = append(seen, id) })

	p.Attach("student1")
	p.Attach("student1") // same identity, no transition
	p.Clear()
	p.Clear() // already signed out
	p.Attach("student2")

	want := []Identity{"student1", None, "student2"}
	if len(seen) != len(want) {
		t.Fatalf("subscriber saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("transition %d = %q, want %q", i, seen[i], want[i])
		}
	}
}
