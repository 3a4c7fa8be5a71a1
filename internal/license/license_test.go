package license

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateValidateRoundTrip(t *testing.T) {
	t.Parallel()

	for _, kind := range []Kind{KindGrouped, KindUUID, KindTimestamp} {
		key, err := Generate(kind)
		require.NoError(t, err, "kind %s", kind)
		require.NotEmpty(t, key)

		res := Validate(key)
		assert.True(t, res.Valid, "kind %s produced invalid key %q: %s", kind, key, res.Reason)
	}
}

func TestGenerateGroupedShape(t *testing.T) {
	t.Parallel()

	re := regexp.MustCompile(`^CAFE(-[0-9A-F]{4}){4}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		key, err := Generate(KindGrouped)
		require.NoError(t, err)
		require.Regexp(t, re, key)
		require.False(t, seen[key], "duplicate key generated: %s", key)
		seen[key] = true
	}
}

func TestGenerateUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := Generate(Kind("banana"))
	require.Error(t, err)
}

func TestValidateRejectsMalformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-key"},
		{"missing prefix", "1234-ABCD-EF01-2345"},
		{"wrong prefix", "COFE-1234-ABCD-EF01-2345"},
		{"short segment", "CAFE-123-ABCD-EF01-2345"},
		{"long segment", "CAFE-12345-ABCD-EF01-2345"},
		{"missing segment", "CAFE-1234-ABCD-EF01"},
		{"lowercase grouped", "cafe-1234-abcd-ef01-2345"},
		{"prefix only", "CAFE-"},
		{"uppercase uuid", "CAFE-" + strings.ToUpper("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Validate(tc.token)
			assert.False(t, res.Valid)
			assert.NotEmpty(t, res.Reason)
		})
	}
}

func TestValidateAcceptsAllShapes(t *testing.T) {
	t.Parallel()

	cases := []string{
		"CAFE-1234-ABCD-EF01-2345",
		"CAFE-6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		"CAFE-17f2d3a9b4c5e6f7-0a1b2c3d",
	}
	for _, token := range cases {
		res := Validate(token)
		assert.True(t, res.Valid, "expected %q to be valid: %s", token, res.Reason)
	}
}
