// internal/form/csrf.go
//
// Complaintdesk – Forms subsystem: stateless CSRF token utilities.
//
// Context
//   Every rendered complaint page embeds a hidden `csrf_token` input.  The
//   frontend verifies it on POST so only pages it rendered can submit.  The
//   token is *stateless*:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  HMAC – calculated with the configured secret.
//
//   Validation checks the signature and ensures the timestamp is within
//   MaxAge.  No server-side state is required.
//
//   This token protects the frontend's own form posts.  It is unrelated to
//   the backend's /get-csrf-token handshake, which internal/backend and the
//   session gate handle.
//
// Workflow
//   •  NewSigner(key)   → signer; nil key means a random per-process key.
//   •  s.Issue()        → token string for the renderer.
//   •  s.Verify(tok)    → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

const (
	nonceBytes = 16
	tokenBytes = nonceBytes + 8 + sha256.Size // nonce + ts + sig

	// MaxAge is the token validity window.
	MaxAge = 2 * time.Hour

	// MinKeyBytes is the shortest accepted secret.
	MinKeyBytes = 32
)

// ErrShortKey is returned by NewSigner for secrets under MinKeyBytes.
var ErrShortKey = errors.New("csrf key must be at least 32 bytes")

// Signer issues and verifies page tokens.  Safe for concurrent use.
type Signer struct {
	key []byte
	now func() time.Time
}

// NewSigner returns a Signer for key.  A nil or empty key yields a random
// ephemeral key; tokens then stop verifying after a restart.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) == 0 {
		key = make([]byte, MinKeyBytes)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	} else if len(key) < MinKeyBytes {
		return nil, ErrShortKey
	}
	return &Signer{key: key, now: time.Now}, nil
}

// DecodeKey parses a base64url (raw or padded) or standard base64 secret.
func DecodeKey(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.RawURLEncoding, base64.URLEncoding, base64.StdEncoding, base64.RawStdEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("csrf key is not valid base64")
}

// Issue creates a new token.  Call once per page render.
func (s *Signer) Issue() (string, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(s.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, s.sign(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify returns true if tok passes HMAC and age checks.
func (s *Signer) Verify(tok string) bool {
	if tok == "" {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:nonceBytes]
	tsBytes := raw[nonceBytes : nonceBytes+8]
	sig := raw[nonceBytes+8:]

	// Timestamp window check.  Future timestamps beyond a minute of skew fail.
	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := s.now()
	if now.Sub(issued) > MaxAge || issued.Sub(now) > time.Minute {
		return false
	}

	return hmac.Equal(sig, s.sign(nonce, tsBytes))
}

func (s *Signer) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}
