package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Anna Maria", NormalizeName("  Anna \t Maria "))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "*********67", MaskPhone("+7 (999) 123-45-67"))
	assert.Equal(t, "**", MaskPhone("12"))
	assert.Equal(t, "", MaskPhone(""))
}
