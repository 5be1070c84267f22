package middleware

import (
	"strings"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/dimitrije/spacebook-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserAdminKey = "user_admin"
)

type TokenValidator interface {
	ValidateAccessToken(token string) (*services.Claims, error)
}

// Auth authenticates the request with a bearer access token. Event streams
// cannot set headers, so a token query parameter is accepted when the
// Authorization header is absent.
func Auth(tokens TokenValidator) drift.HandlerFunc {
	return func(c *drift.Context) {
		var token string

		authHeader := c.GetHeader("Authorization")
		switch {
		case authHeader != "":
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
				c.Unauthorized("invalid authorization header format")
				return
			}
			token = parts[1]
		case c.QueryParam("token") != "":
			token = c.QueryParam("token")
		default:
			c.Unauthorized("missing authorization header")
			return
		}

		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserAdminKey, claims.IsAdmin())

		c.Next()
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin() drift.HandlerFunc {
	return func(c *drift.Context) {
		if !IsAdmin(c) {
			c.Forbidden("admin role required")
			return
		}
		c.Next()
	}
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	if email, ok := c.Get(UserEmailKey); ok {
		if e, ok := email.(string); ok {
			return e
		}
	}
	return ""
}

func IsAdmin(c *drift.Context) bool {
	if v, ok := c.Get(UserAdminKey); ok {
		if admin, ok := v.(bool); ok {
			return admin
		}
	}
	return false
}

// Actor is the authenticated caller as seen by the booking rules.
func Actor(c *drift.Context) booking.Actor {
	return booking.Actor{ID: GetUserID(c), Admin: IsAdmin(c)}
}
