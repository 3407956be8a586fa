package security

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserIDKey is the gin context key carrying the verified caller identity.
const UserIDKey = "user_id"

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates Bearer JWTs issued by the auth server and
// stores the subject as the trusted user_id. Tokens are HS256-signed
// with a shared secret; when jwksURL is set, verification switches to
// the issuer's JWKS endpoint instead.
func AuthMiddleware(secret, audience, jwksURL string) gin.HandlerFunc {
	keyFn := jwt.Keyfunc(func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})

	if jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			RefreshInterval:  time.Hour,
			RefreshTimeout:   10 * time.Second,
			RefreshRateLimit: time.Minute * 5,
			RefreshErrorHandler: func(err error) {
				log.Printf("Error refreshing JWKS: %v", err)
			},
		})
		if err != nil {
			log.Fatalf("Failed to create JWKS client: %v", err)
		}
		keyFn = jwks.Keyfunc
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
		if audience != "" {
			opts = append(opts, jwt.WithAudience(audience))
		}

		token, err := jwt.ParseWithClaims(parts[1], &Claims{}, keyFn, opts...)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": fmt.Sprintf("Invalid token: %v", err)})
			c.Abort()
			return
		}
		if !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is not valid"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || claims.Subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token carries no subject"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set("email", claims.Email)

		c.Next()
	}
}

// UserID returns the verified caller identity set by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
