package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/seismic-data-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestTokens_IssueAndParse(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC))
	tokens := NewTokens(testSecret, time.Hour, clock)

	signed, expires, err := tokens.Issue("user-1", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 26, 13, 0, 0, 0, time.UTC), expires)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestTokens_Expired(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC))
	tokens := NewTokens(testSecret, time.Hour, clock)

	signed, _, err := tokens.Issue("user-1", "ada@example.com")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = tokens.Parse(signed)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokens_RejectsForeignTokens(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour, nil)

	other := NewTokens([]byte("other-secret"), time.Hour, nil)
	signed, _, err := other.Issue("user-1", "ada@example.com")
	require.NoError(t, err)
	_, err = tokens.Parse(signed)
	assert.Error(t, err, "wrong secret")

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, Subject: "user-1"},
	})
	s, err := noExp.SignedString(testSecret)
	require.NoError(t, err)
	_, err = tokens.Parse(s)
	assert.Error(t, err, "missing exp")

	_, err = tokens.Parse("")
	assert.Error(t, err)
}

func TestTokens_EmptySecret(t *testing.T) {
	_, _, err := NewTokens(nil, time.Hour, nil).Issue("user-1", "a@b.co")
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "battery staple"), domain.ErrInvalidCredentials)
}

func TestRequire(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour, nil)
	signed, _, err := tokens.Issue("user-42", "a@b.co")
	require.NoError(t, err)

	var gotSubject string
	handler := tokens.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}), func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + signed, http.StatusOK},
		{"lowercase scheme", "bearer " + signed, http.StatusOK},
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + signed, http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotSubject = ""
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusOK {
				assert.Equal(t, "user-42", gotSubject)
			}
		})
	}
}
