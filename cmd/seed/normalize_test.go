package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "GTR-001", NormalizeCode(" gtr-001 "))
	assert.Equal(t, "PIANO-ELECTRICO-88", NormalizeCode("piano eléctrico 88"))
	assert.Equal(t, "CANON-N", NormalizeCode("cañon n"))
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "percusion", normalizeKey("Percusión"))
	assert.Equal(t, normalizeKey("Guitarras Eléctricas"), normalizeKey("  guitarras electricas"))
}
