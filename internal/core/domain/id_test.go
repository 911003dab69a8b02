package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateIDDeterministic(t *testing.T) {
	n, err := Normalize("example.com")
	assert.NoError(t, err)

	id1 := GenerateID(n.DomainExact)
	id2 := GenerateID(n.DomainExact)
	assert.Equal(t, id1, id2)
	assert.Less(t, id1, uint64(1)<<48)
}

func TestGenerateIDDiffersByDomain(t *testing.T) {
	assert.NotEqual(t, GenerateID("example.com"), GenerateID("example.net"))
}
