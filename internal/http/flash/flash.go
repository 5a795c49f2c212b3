// Package flash signs one-shot notices carried across a redirect in a cookie.
package flash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"marketly.com/app/pkg/view"
)

const (
	DefaultTTL    = 2 * time.Minute
	maxMessageLen = 500
	version       = "v1"
)

var (
	ErrInvalid = errors.New("invalid flash cookie")
	ErrExpired = errors.New("flash cookie expired")
)

type Codec struct {
	CookieName string
	Secure     bool

	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret []byte, cookieName string, secure bool) *Codec {
	return &Codec{
		CookieName: cookieName,
		Secure:     secure,
		secret:     secret,
		ttl:        DefaultTTL,
		now:        time.Now,
	}
}

// envelope is the signed payload. IssuedAt lets Decode enforce the TTL even
// when a client keeps the cookie past its Max-Age.
type envelope struct {
	Kind     view.FlashKind `json:"k"`
	Message  string         `json:"m"`
	IssuedAt int64          `json:"iat"`
}

// Encode returns "v1.<payload>.<mac>", both parts base64url without padding.
func (c *Codec) Encode(f view.Flash) (string, error) {
	b, err := json.Marshal(envelope{Kind: f.Kind, Message: f.Message, IssuedAt: c.now().Unix()})
	if err != nil {
		return "", err
	}
	signed := version + "." + base64.RawURLEncoding.EncodeToString(b)
	return signed + "." + c.mac(signed), nil
}

func (c *Codec) Decode(v string) (*view.Flash, error) {
	i := strings.LastIndexByte(v, '.')
	if i < 0 {
		return nil, ErrInvalid
	}
	signed, sig := v[:i], v[i+1:]
	ver, payload, ok := strings.Cut(signed, ".")
	if !ok || ver != version {
		return nil, ErrInvalid
	}
	if !hmac.Equal([]byte(c.mac(signed)), []byte(sig)) {
		return nil, ErrInvalid
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalid
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrInvalid
	}
	if msg := strings.TrimSpace(env.Message); msg == "" || len(env.Message) > maxMessageLen || !env.Kind.Valid() {
		return nil, ErrInvalid
	}
	if c.now().Sub(time.Unix(env.IssuedAt, 0)) > c.ttl {
		return nil, ErrExpired
	}
	return &view.Flash{Kind: env.Kind, Message: env.Message}, nil
}

func (c *Codec) CookieMaxAge() int { return int(c.ttl / time.Second) }

func (c *Codec) mac(signed string) string {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(signed))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
