package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/httpx"
)

func TestKakaoVerify(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			_, _ = w.Write([]byte(`{"id":1,"kakao_account":{"email":"k@kakao.com"}}`))
		case "Bearer noemail":
			_, _ = w.Write([]byte(`{"id":1,"kakao_account":{}}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	t.Cleanup(srv.Close)

	k := NewKakao(httpx.New(httpx.Options{Name: "kakao"}), srv.URL, nil)

	id, err := k.Verify(context.Background(), "good")
	require.NoError(t, err)
	require.Equal(t, "k@kakao.com", id.Email)

	_, err = k.Verify(context.Background(), "noemail")
	require.True(t, apperr.IsKind(err, apperr.KindBadRequest))
	require.EqualError(t, err, "Kakao user email information is missing.")

	_, err = k.Verify(context.Background(), "bad")
	require.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
	require.EqualError(t, err, "Kakao token authentication failed.")
}

func TestGoogleVerify(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_token") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"sub":"g-1","email":"g@gmail.com","name":"G","picture":"https://pic"}`))
	}))
	t.Cleanup(srv.Close)

	g := NewGoogle(httpx.New(httpx.Options{Name: "google"}), srv.URL+"/tokeninfo", nil)

	id, err := g.Verify(context.Background(), "good")
	require.NoError(t, err)
	require.Equal(t, Identity{Subject: "g-1", Email: "g@gmail.com", Name: "G", Picture: "https://pic"}, id)

	_, err = g.Verify(context.Background(), "bad")
	require.EqualError(t, err, "Google token authentication failed.")
}

func TestAppleVerify(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var fetches atomic.Int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	mux.HandleFunc("/auth/keys", func(w http.ResponseWriter, _ *http.Request) {
		fetches.Add(1)
		set := map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "k1",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}}
		_ = json.NewEncoder(w).Encode(set)
	})

	sign := func(aud, kid string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
			"iss":   srv.URL,
			"aud":   aud,
			"sub":   "apple-1",
			"email": "a@icloud.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})
		tok.Header["kid"] = kid
		s, err := tok.SignedString(key)
		require.NoError(t, err)
		return s
	}

	a := NewApple(httpx.New(httpx.Options{Name: "apple"}), AppleOptions{BaseURL: srv.URL, BundleID: "com.example.atlas"})

	id, err := a.Verify(context.Background(), sign("com.example.atlas", "k1"))
	require.NoError(t, err)
	require.Equal(t, "apple-1", id.Subject)
	require.Equal(t, "a@icloud.com", id.Email)

	_, err = a.Verify(context.Background(), sign("com.example.atlas", "k1"))
	require.NoError(t, err)
	require.Equal(t, int32(1), fetches.Load(), "keys are cached")

	_, err = a.Verify(context.Background(), sign("other.bundle", "k1"))
	require.EqualError(t, err, "Apple token authentication failed.")

	_, err = a.Verify(context.Background(), sign("com.example.atlas", "unknown"))
	require.EqualError(t, err, "Apple token authentication failed.")
}
