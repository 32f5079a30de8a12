package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSymbol(t *testing.T) {
	valid := map[string]string{
		" aapl ":      "AAPL",
		"reliance.ns": "RELIANCE.NS",
		"^nsei":       "^NSEI",
		"EURUSD=X":    "EURUSD=X",
		"brk-b":       "BRK-B",
		"M&M.NS":      "M&M.NS",
		"":            "",
	}
	for in, want := range valid {
		got, err := ParseSymbol(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{
		"/../../../escaped",
		"..\\..\\x",
		"AAPL/MSFT",
		"AA PL",
		"AAPL\x00",
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	} {
		_, err := ParseSymbol(in)
		assert.ErrorIs(t, err, ErrInvalidSymbol, in)
	}
}
