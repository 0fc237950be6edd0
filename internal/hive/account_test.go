package hive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	t.Parallel()

	t.Run("normalizes case and at-prefix", func(t *testing.T) {
		acct, err := NewAccount("@Alice")
		require.NoError(t, err)
		assert.Equal(t, Account("alice"), acct)
	})

	t.Run("valid names", func(t *testing.T) {
		for _, name := range []string{"abc", "gadrian", "a1b2c3", "a-b.c", "x23456789012345z"} {
			_, err := NewAccount(name)
			assert.NoError(t, err, name)
		}
	})

	t.Run("invalid names", func(t *testing.T) {
		cases := map[string]string{
			"":                  "empty",
			"ab":                "too short",
			"abcdefghijklmnopq": "too long",
			"1abc":              "starts with digit",
			"-abc":              "starts with dash",
			"abc-":              "ends with dash",
			"abc.":              "ends with dot",
			"a--b":              "consecutive dashes",
			"a.-b":              "consecutive separators",
			"ab_cd":             "underscore",
		}
		for name, why := range cases {
			_, err := NewAccount(name)
			assert.Error(t, err, "%s (%s)", name, why)
		}
	})
}

func TestNormalizeSymbol(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Symbol("LEO"), NormalizeSymbol(" leo "))
	assert.Equal(t, SwapHive, NormalizeSymbol("swap.hive"))
}
