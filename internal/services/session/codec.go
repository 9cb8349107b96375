package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const containerVersion byte = 0x01

var (
	hkdfInfoSigning    = []byte("taskboard.session.sign.v1")
	hkdfInfoEncryption = []byte("taskboard.session.enc.v1")

	errMalformedContainer = errors.New("session: malformed container")
)

type claims struct {
	jwt.RegisteredClaims
	AccessToken          string `json:"at"`
	RefreshToken         string `json:"rt,omitempty"`
	AccessTokenExpiresAt int64  `json:"ate"`
	User                 User   `json:"usr"`
	Error                string `json:"err,omitempty"`
}

// Codec turns a Token into an opaque cookie value and back. The token is
// signed as an HS256 JWT and the JWT is sealed with XChaCha20-Poly1305.
type Codec struct {
	signingKey []byte
	aeadKey    []byte
	now        func() time.Time
}

// NewCodec derives independent signing and encryption keys from secret.
func NewCodec(secret string, now func() time.Time) (*Codec, error) {
	signingKey, err := deriveKey([]byte(secret), hkdfInfoSigning)
	if err != nil {
		return nil, err
	}
	aeadKey, err := deriveKey([]byte(secret), hkdfInfoEncryption)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Codec{signingKey: signingKey, aeadKey: aeadKey, now: now}, nil
}

func deriveKey(secret, info []byte) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, info), key); err != nil {
		return nil, fmt.Errorf("deriving session key: %w", err)
	}
	return key, nil
}

// Seal encodes t. The result is safe to use as a cookie value.
func (c *Codec) Seal(t Token) (string, error) {
	cl := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        t.ID,
			Subject:   t.User.ID,
			IssuedAt:  jwt.NewNumericDate(t.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(t.ExpiresAt),
		},
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		User:         t.User,
		Error:        t.Error,
	}
	if !t.AccessTokenExpiresAt.IsZero() {
		cl.AccessTokenExpiresAt = t.AccessTokenExpiresAt.UnixMilli()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("signing session: %w", err)
	}

	aead, err := chacha20poly1305.NewX(c.aeadKey)
	if err != nil {
		return "", fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	out := make([]byte, 1+chacha20poly1305.NonceSizeX, 1+chacha20poly1305.NonceSizeX+len(signed)+aead.Overhead())
	out[0] = containerVersion
	if _, err := io.ReadFull(rand.Reader, out[1:]); err != nil {
		return "", fmt.Errorf("generating random nonce: %w", err)
	}
	out = aead.Seal(out, out[1:1+chacha20poly1305.NonceSizeX], []byte(signed), out[:1])

	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decodes a value produced by Seal. Tampered, foreign or expired values
// are rejected.
func (c *Codec) Open(value string) (*Token, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedContainer, err)
	}
	if len(raw) < 1+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, errMalformedContainer
	}
	if raw[0] != containerVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", errMalformedContainer, raw[0])
	}

	aead, err := chacha20poly1305.NewX(c.aeadKey)
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}
	nonce := raw[1 : 1+chacha20poly1305.NonceSizeX]
	signed, err := aead.Open(nil, nonce, raw[1+chacha20poly1305.NonceSizeX:], raw[:1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedContainer, err)
	}

	var cl claims
	_, err = jwt.ParseWithClaims(string(signed), &cl, func(*jwt.Token) (interface{}, error) {
		return c.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}

	t := &Token{
		ID:           cl.ID,
		AccessToken:  cl.AccessToken,
		RefreshToken: cl.RefreshToken,
		User:         cl.User,
		Error:        cl.Error,
	}
	if cl.AccessTokenExpiresAt > 0 {
		t.AccessTokenExpiresAt = time.UnixMilli(cl.AccessTokenExpiresAt)
	}
	if cl.IssuedAt != nil {
		t.IssuedAt = cl.IssuedAt.Time
	}
	if cl.ExpiresAt != nil {
		t.ExpiresAt = cl.ExpiresAt.Time
	}
	return t, nil
}
