package middleware

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"feedpulse/internal/domain"
)

const ViewerContextKey = "viewer"

type viewerClaims struct {
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// ViewerRequired parses the bearer token into the viewer identity the feed
// engine runs under. Admin capability travels in the token claims so it is
// always explicit, never read from ambient state.
func ViewerRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return Unauthorized("Missing authorization header")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return Unauthorized("Invalid authorization header format")
		}

		claims := &viewerClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return Unauthorized("Invalid or expired token")
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return Unauthorized("Invalid token subject")
		}

		c.Locals(ViewerContextKey, domain.Viewer{
			UserID: userID,
			Name:   claims.Name,
			Admin:  claims.Admin,
		})
		return c.Next()
	}
}

func GetViewer(c *fiber.Ctx) domain.Viewer {
	viewer, ok := c.Locals(ViewerContextKey).(domain.Viewer)
	if !ok {
		return domain.Viewer{}
	}
	return viewer
}

// IngestRequired guards the event producer endpoints with a shared token;
// producers are internal services, not end users.
func IngestRequired(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return Unauthorized("Event ingest is not configured")
		}
		supplied := c.Get("X-Ingest-Token")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
			return Unauthorized("Invalid ingest token")
		}
		return c.Next()
	}
}
