package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostalCodeFromAddress(t *testing.T) {
	assert.Equal(t, "62701", PostalCodeFromAddress("1 Main St, Springfield, IL 62701"))
	assert.Equal(t, "62629", PostalCodeFromAddress("9 Elm, Chatham IL 62629-1234"))
	assert.Equal(t, "", PostalCodeFromAddress("Suite 123456, no zip"))
	assert.Equal(t, "", PostalCodeFromAddress(""))
}

func TestPostalZone(t *testing.T) {
	assert.Equal(t, "60601", PostalZone(Ptr("60601"), "1 Main St, 62701"))
	assert.Equal(t, "62701", PostalZone(Ptr("  "), "1 Main St, 62701"))
	assert.Equal(t, "62701", PostalZone(nil, "1 Main St, 62701"))
	assert.Equal(t, NoPostalZone, PostalZone(nil, "Behind the gas station"))
}
