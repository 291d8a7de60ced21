package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, sub string, roles []string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	v := NewJWTValidator("secret", "")

	userID, roles, err := v.ValidateToken(signToken(t, "secret", "42", []string{"Landlord"}, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, []string{"Landlord"}, roles)

	_, _, err = v.ValidateToken(signToken(t, "other", "42", nil, time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = v.ValidateToken(signToken(t, "secret", "42", nil, time.Now().Add(-time.Minute)))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = v.ValidateToken(signToken(t, "secret", "abc", nil, time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthMiddlewareAndRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := NewJWTValidator("secret", "")
	r := gin.New()
	r.GET("/landlord", AuthMiddleware(v), RequireRole("Landlord", "Admin"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetInt64("userID")})
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"wrong role", "Bearer " + signToken(t, "secret", "7", []string{"student"}, time.Now().Add(time.Hour)), http.StatusForbidden},
		{"landlord", "Bearer " + signToken(t, "secret", "7", []string{"Landlord"}, time.Now().Add(time.Hour)), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/landlord", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
