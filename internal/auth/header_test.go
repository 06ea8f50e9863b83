package auth

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
)

func basic(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestParseBasicToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		header  string
		want    Credentials
		wantErr bool
	}{
		{name: "valid", header: "Basic " + basic("a@b.c:secret"), want: Credentials{Email: "a@b.c", Password: "secret"}},
		{name: "scheme is case insensitive", header: "bAsIc " + basic("a@b.c:pw"), want: Credentials{Email: "a@b.c", Password: "pw"}},
		{name: "missing token", header: "Basic", wantErr: true},
		{name: "extra part", header: "Basic a b", wantErr: true},
		{name: "wrong scheme", header: "Bearer " + basic("a:b"), wantErr: true},
		{name: "no colon", header: "Basic " + basic("nocolon"), wantErr: true},
		{name: "two colons", header: "Basic " + basic("a:b:c"), wantErr: true},
		{name: "not base64", header: "Basic !!!", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseBasicToken(tc.header)
			if tc.wantErr {
				require.True(t, apperr.IsKind(err, apperr.KindBadRequest))
				require.EqualError(t, err, "Invalid token format!")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseBearerToken(t *testing.T) {
	t.Parallel()

	tok, err := ParseBearerToken("BEARER abc.def")
	require.NoError(t, err)
	require.Equal(t, "abc.def", tok)

	for _, bad := range []string{"abc", "Basic abc", "Bearer a b", ""} {
		_, err := ParseBearerToken(bad)
		require.True(t, apperr.IsKind(err, apperr.KindBadRequest), bad)
	}
}
