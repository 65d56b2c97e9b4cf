package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want Cents
	}{
		{"120", 12000},
		{"120.5", 12050},
		{"120.50", 12050},
		{"0", 0},
		{".99", 99},
		{" 42.00 ", 4200},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		require.NoError(t, err, "ParseAmount(%q)", tc.in)
		assert.Equal(t, tc.want, got, "ParseAmount(%q)", tc.in)
	}
}

func TestParseAmountRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "-1", "12.345", "abc", "1.2.3"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, "ParseAmount(%q)", in)
	}
}

func TestCentsString(t *testing.T) {
	assert.Equal(t, "120.50", Cents(12050).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "0.00", Cents(0).String())
	assert.Equal(t, "-3.25", Cents(-325).String())
}

func TestParseAmountRoundTrip(t *testing.T) {
	got, err := ParseAmount(Cents(987654321).String())
	require.NoError(t, err)
	assert.Equal(t, Cents(987654321), got)
}
