package ctf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNormalizeFlag(t *testing.T) {
	assert.Equal(t, "CYBER{flag}", NormalizeFlag("  CYBER{flag}  "))
	assert.Equal(t, "CYBER{flag}", NormalizeFlag("\tCYBER{flag}\n"))
	assert.Equal(t, "CYBER{Flag}", NormalizeFlag("CYBER{Flag}"), "case is preserved")
	assert.Equal(t, "", NormalizeFlag("   "))
}

func TestChallenge_AvailableFor(t *testing.T) {
	ch := &Challenge{RequiredXP: 500}

	assert.False(t, ch.AvailableFor(0))
	assert.False(t, ch.AvailableFor(499))
	assert.True(t, ch.AvailableFor(500), "exact XP unlocks")
	assert.True(t, ch.AvailableFor(10000))
}

func TestDefaultChallenges(t *testing.T) {
	defs := DefaultChallenges()
	require.NotEmpty(t, defs)

	seen := map[string]bool{}
	for _, def := range defs {
		assert.False(t, seen[def.Name], "duplicate challenge name %q", def.Name)
		seen[def.Name] = true

		assert.NotEmpty(t, def.Flag, "challenge %q", def.Name)
		assert.Equal(t, def.Flag, NormalizeFlag(def.Flag),
			"reference flag %q must already be normalized", def.Name)
		assert.Greater(t, def.Points, 0, "challenge %q", def.Name)
		assert.GreaterOrEqual(t, def.RequiredXP, 0, "challenge %q", def.Name)
	}
}

func TestFlagHashing_RoundTrip(t *testing.T) {
	def := DefaultChallenges()[0]

	hash, err := bcrypt.GenerateFromPassword([]byte(NormalizeFlag(def.Flag)), bcrypt.MinCost)
	require.NoError(t, err)

	// The submitted flag is normalized the same way before comparison.
	err = bcrypt.CompareHashAndPassword(hash, []byte(NormalizeFlag("  "+def.Flag+"\n")))
	assert.NoError(t, err)

	err = bcrypt.CompareHashAndPassword(hash, []byte("wrong-flag"))
	assert.Error(t, err)
}
