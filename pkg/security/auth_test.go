package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	validClaims := jwt.RegisteredClaims{
		Subject:   "u1",
		Audience:  jwt.ClaimStrings{"onprem-video-platform"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{
			name:       "valid token",
			header:     "Bearer " + signToken(t, validClaims),
			wantStatus: http.StatusOK,
			wantUser:   "u1",
		},
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			header:     "Token abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired token",
			header: "Bearer " + signToken(t, jwt.RegisteredClaims{
				Subject:   "u1",
				Audience:  jwt.ClaimStrings{"onprem-video-platform"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong audience",
			header: "Bearer " + signToken(t, jwt.RegisteredClaims{
				Subject:   "u1",
				Audience:  jwt.ClaimStrings{"someone-else"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "no subject",
			header: "Bearer " + signToken(t, jwt.RegisteredClaims{
				Audience:  jwt.ClaimStrings{"onprem-video-platform"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(AuthMiddleware(testSecret, "onprem-video-platform", ""))

			var gotUser string
			r.GET("/protected", func(c *gin.Context) {
				gotUser = UserID(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantUser != "" && gotUser != tt.wantUser {
				t.Errorf("expected user_id %q, got %q", tt.wantUser, gotUser)
			}
		})
	}
}
