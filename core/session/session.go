package session

import (
	"sync"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/kipiapp/kipi/core"
)

var (
	// errors
	ErrNoIdentity   = errors.New("no identity attached")
	ErrInvalidToken = errors.New("invalid session token")
)

// Identity is the opaque current-user reference every remote query is scoped
// by. It is read-only for the rest of the system.
type Identity string

// None means no user is signed in.
const None = Identity("")

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
}

type (
	// Provider holds the current authenticated identity and tells
	// subscribers whenever it changes. Entity stores key off these
	// transitions: an identity appearing triggers a full load, an identity
	// clearing empties their state.
	Provider struct {
		secret []byte

		mu      sync.RWMutex
		current Identity
		subs    []func(Identity)
	}
)

func NewProvider(conf *core.Config) *Provider {
	return &Provider{secret: []byte(conf.SecretKey)}
}

// Current returns the attached identity, or None.
func (p *Provider) Current() Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Subscribe registers fn to be called with the new identity after every
// transition. fn runs on the goroutine that triggered the change.
func (p *Provider) Subscribe(fn func(Identity)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
}

// Authenticate verifies a bearer token and attaches the identity it carries.
func (p *Provider) Authenticate(token string) (Identity, error) {
	claims, err := p.VerifyToken(token)
	if err != nil {
		return None, err
	}
	id := Identity(claims.Subject)
	if id == None {
		return None, ErrInvalidToken
	}
	p.set(id)
	return id, nil
}

// Attach sets the identity directly; used when an upstream middleware has
// already verified the token.
func (p *Provider) Attach(id Identity) {
	p.set(id)
}

// Clear detaches the current identity (logout).
func (p *Provider) Clear() {
	p.set(None)
}

// VerifyToken parses and validates a signed token without attaching it.
func (p *Provider) VerifyToken(token string) (*Claims, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Wrapf(ErrInvalidToken, "unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *Provider) set(id Identity) {
	p.mu.Lock()
	if p.current == id {
		p.mu.Unlock()
		return
	}
	p.current = id
	subs := make([]func(Identity), len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(id)
	}
}
