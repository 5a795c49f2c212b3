package flash

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketly.com/app/pkg/view"
)

func TestCodecRoundTrip(t *testing.T) {
	c := NewCodec([]byte("secret"), "flash", false)

	v, err := c.Encode(view.Flash{Kind: view.FlashSuccess, Message: "Saved."})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(v, "v1."))

	f, err := c.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, view.FlashSuccess, f.Kind)
	assert.Equal(t, "Saved.", f.Message)
	assert.Equal(t, 120, c.CookieMaxAge())
}

func TestCodecRejectsTampering(t *testing.T) {
	c := NewCodec([]byte("secret"), "flash", false)
	other := NewCodec([]byte("other"), "flash", false)

	v, err := c.Encode(view.Flash{Kind: view.FlashInfo, Message: "hi"})
	require.NoError(t, err)

	i := strings.LastIndexByte(v, '.')
	signed, sig := v[:i], v[i+1:]
	tests := []struct {
		name  string
		value string
		codec *Codec
	}{
		{"wrong secret", v, other},
		{"no signature", signed, c},
		{"swapped signature", signed + "." + sig[:len(sig)-2] + "AA", c},
		{"other version", "v2" + strings.TrimPrefix(v, "v1"), c},
		{"garbage", "!!!.???", c},
		{"empty", "", c},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.codec.Decode(tt.value)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestCodecRejectsUnknownKindAndEmptyMessage(t *testing.T) {
	c := NewCodec([]byte("secret"), "flash", false)

	for _, f := range []view.Flash{
		{Kind: "shout", Message: "x"},
		{Kind: view.FlashInfo, Message: "   "},
		{Kind: view.FlashInfo, Message: strings.Repeat("x", maxMessageLen+1)},
	} {
		v, err := c.Encode(f)
		require.NoError(t, err)
		_, err = c.Decode(v)
		assert.ErrorIs(t, err, ErrInvalid)
	}
}

func TestCodecExpires(t *testing.T) {
	c := NewCodec([]byte("secret"), "flash", false)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return issued }

	v, err := c.Encode(view.Flash{Kind: view.FlashWarning, Message: "Sign in first."})
	require.NoError(t, err)

	c.now = func() time.Time { return issued.Add(DefaultTTL) }
	_, err = c.Decode(v)
	require.NoError(t, err)

	c.now = func() time.Time { return issued.Add(DefaultTTL + time.Second) }
	_, err = c.Decode(v)
	assert.ErrorIs(t, err, ErrExpired)
}
