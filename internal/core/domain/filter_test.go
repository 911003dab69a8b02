package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldFilterNumeric(t *testing.T) {
	assert.True(t, ShouldFilter("123456"))
	assert.False(t, ShouldFilter("12345"))
	assert.False(t, ShouldFilter("abc123"))
}

func TestShouldFilterRepetitive(t *testing.T) {
	assert.True(t, ShouldFilter("aaaaa"))
	assert.True(t, ShouldFilter("xxxxxxx"))
	assert.False(t, ShouldFilter("ababa"))
}

func TestShouldFilterNumericHyphen(t *testing.T) {
	assert.True(t, ShouldFilter("1-2-3"))
	assert.False(t, ShouldFilter("a-1-2"))
}

func TestShouldFilterScenarioS3(t *testing.T) {
	assert.True(t, ShouldFilter("123456"))
	assert.False(t, ShouldFilter("12345"))
	assert.True(t, ShouldFilter("aaaaa"))
	assert.False(t, ShouldFilter("ababa"))
	assert.True(t, ShouldFilter("1-2-3"))
}
