package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromName(t *testing.T) {
	assert.Equal(t, "red-cotton-t-shirt", FromName("  Red Cotton T-Shirt!! ", "product"))
	assert.Equal(t, "product", FromName("***", "product"))
	assert.Equal(t, "shop", FromName("", "shop"))
	assert.Equal(t, "a1-b2", FromName("A1 / b2", "x"))
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "mug", WithSuffix("mug", 1))
	assert.Equal(t, "mug-3", WithSuffix("mug", 3))
}
