package cove

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadingMarkFilter(t *testing.T) {
	assert.True(t, LeadingMarkFilter("? Did X happen"))
	assert.True(t, LeadingMarkFilter("?Did X happen?"))
	assert.False(t, LeadingMarkFilter("Did X happen?"))
	assert.False(t, LeadingMarkFilter("1. Did X happen?"))
	assert.False(t, LeadingMarkFilter("no marks at all"))
}

func TestTrailingMarkFilter(t *testing.T) {
	assert.True(t, TrailingMarkFilter("Did X happen?"))
	assert.True(t, TrailingMarkFilter("1. Did X happen?"))
	assert.False(t, TrailingMarkFilter("? leading only"))
	assert.False(t, TrailingMarkFilter("no marks at all"))
}

func TestFilterByName(t *testing.T) {
	assert.True(t, FilterByName("trailing")("Did X happen?"))
	assert.False(t, FilterByName("trailing")("? leading"))

	assert.True(t, FilterByName("leading")("? leading"))
	assert.True(t, FilterByName("")("? leading"))
	assert.True(t, FilterByName("unknown")("? leading"), "unknown names fall back to the leading-mark rule")
	assert.False(t, FilterByName("unknown")("Did X happen?"))
}
