package morse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableRoundTrip(t *testing.T) {
	require.Len(t, Table, 36)
	for _, ent := range Table {
		t.Run(string(ent.Char), func(t *testing.T) {
			p, ok := Encode(ent.Char)
			require.True(t, ok)
			require.Equal(t, ent.Pattern, p.String())
			c, ok := Lookup(p)
			require.True(t, ok)
			require.Equal(t, ent.Char, c)
		})
	}
}

func TestLookup(t *testing.T) {
	testCases := []struct {
		name    string
		pattern string
		char    rune
		found   bool
	}{
		{"single dot", ".", 'E', true},
		{"single dash", "-", 'T', true},
		{"zero", "-----", '0', true},
		{"five", ".....", '5', true},
		{"empty", "", 0, false},
		{"no match", "..--", 0, false},
		{"no match 5", ".-.-.", 0, false},
		{"too long", "......", 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ParsePattern(tc.pattern)
			require.NoError(t, err)
			c, ok := Lookup(p)
			require.Equal(t, tc.found, ok)
			require.Equal(t, tc.char, c)
		})
	}
}

func TestLookupLongPattern(t *testing.T) {
	for n := MaxPatternLen + 1; n <= Capacity; n++ {
		p := make(Pattern, n)
		_, ok := Lookup(p)
		require.False(t, ok, "length %d", n)
	}
}

func TestEncodeCaseInsensitive(t *testing.T) {
	p, ok := Encode('s')
	require.True(t, ok)
	require.Equal(t, "...", p.String())
	_, ok = Encode('#')
	require.False(t, ok)

	p[0] = Dash
	p, _ = Encode('S')
	require.Equal(t, "...", p.String())
}

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern(".-")
	require.NoError(t, err)
	require.Equal(t, Pattern{Dot, Dash}, p)
	_, err = ParsePattern(".x")
	require.Error(t, err)
}

func TestBuildIndexRejects(t *testing.T) {
	testCases := []struct {
		name    string
		entries []TableEntry
	}{
		{"duplicate pattern", []TableEntry{{'A', ".-"}, {'B', ".-"}}},
		{"duplicate char", []TableEntry{{'A', ".-"}, {'A', "-"}}},
		{"empty pattern", []TableEntry{{'A', ""}}},
		{"too long", []TableEntry{{'A', "......"}}},
		{"bad mark", []TableEntry{{'A', ".+"}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := buildIndex(tc.entries)
			require.Error(t, err)
		})
	}
}

func TestEncodeText(t *testing.T) {
	out, err := EncodeText("  so s ")
	require.NoError(t, err)
	require.Len(t, out, 4)
	require.Equal(t, "...", out[0].Pattern().String())
	require.Equal(t, "---", out[1].Pattern().String())
	require.True(t, out[2].Space)
	require.Equal(t, "...", out[3].Pattern().String())

	out, err = EncodeText("")
	require.NoError(t, err)
	require.Empty(t, out)

	_, err = EncodeText("a#")
	require.ErrorIs(t, err, ErrNotEncodable)
}
