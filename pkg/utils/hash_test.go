package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashString(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashString(""))
}

func TestRedactEmail(t *testing.T) {
	assert.Len(t, RedactEmail("a@b.c"), 12)
	assert.Equal(t, RedactEmail("a@b.c"), RedactEmail("  A@B.C "))
	assert.NotEqual(t, RedactEmail("a@b.c"), RedactEmail("d@b.c"))
	assert.Empty(t, RedactEmail(" "))
}
