package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

const testBundleID = "app.gymbro.ios"

func newAppleFixture(t *testing.T) (*AppleVerifier, *rsa.PrivateKey, *int32) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_ = json.NewEncoder(w).Encode(jwks{Keys: []jwk{{
			Kty: "RSA",
			Kid: "k1",
			Use: "sig",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	t.Cleanup(srv.Close)

	v := NewAppleVerifier(testBundleID)
	v.keysURL = srv.URL
	return v, key, &hits
}

func signApple(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

func validAppleClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            appleIssuer,
		"aud":            testBundleID,
		"sub":            "001234.apple",
		"email":          "a@privaterelay.appleid.com",
		"email_verified": "true",
		"iat":            time.Now().Unix(),
		"exp":            time.Now().Add(time.Hour).Unix(),
	}
}

func TestAppleVerifier_Valid(t *testing.T) {
	v, key, hits := newAppleFixture(t)

	id, err := v.Verify(context.Background(), signApple(t, key, "k1", validAppleClaims()))
	require.NoError(t, err)
	assert.Equal(t, "001234.apple", id.Subject)
	assert.Equal(t, "a@privaterelay.appleid.com", id.Email)
	assert.True(t, id.EmailVerified)

	_, err = v.Verify(context.Background(), signApple(t, key, "k1", validAppleClaims()))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "keys are cached")
}

func TestAppleVerifier_Rejects(t *testing.T) {
	v, key, _ := newAppleFixture(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	wrongAud := validAppleClaims()
	wrongAud["aud"] = "com.other.app"
	wrongIss := validAppleClaims()
	wrongIss["iss"] = "https://evil.example.com"
	expired := validAppleClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	cases := map[string]string{
		"wrong audience": signApple(t, key, "k1", wrongAud),
		"wrong issuer":   signApple(t, key, "k1", wrongIss),
		"expired":        signApple(t, key, "k1", expired),
		"unknown kid":    signApple(t, key, "k9", validAppleClaims()),
		"wrong key":      signApple(t, other, "k1", validAppleClaims()),
		"garbage":        "not.a.token",
		"empty":          "",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAppleVerifier_NotConfigured(t *testing.T) {
	_, err := NewAppleVerifier("").Verify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGoogleVerifier(t *testing.T) {
	v := NewGoogleVerifier("client-id")
	v.validate = func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		if token != "good" || audience != "client-id" {
			return nil, errors.New("bad token")
		}
		return &idtoken.Payload{
			Subject: "g-123",
			Claims: map[string]interface{}{
				"email":          "g@example.com",
				"email_verified": true,
				"name":           "G User",
			},
		}, nil
	}

	id, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, &Identity{Subject: "g-123", Email: "g@example.com", EmailVerified: true, Name: "G User"}, id)

	_, err = v.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewGoogleVerifier("").Verify(context.Background(), "good")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
