package middleware

import (
	"context"
	"crypto/subtle"

	"avatio/internal/models"

	"github.com/gofiber/fiber/v2"
)

// StaticKind identifies a privileged static bearer credential.
type StaticKind int

const (
	StaticNone StaticKind = iota
	// StaticCron is the shared secret held by scheduled callers.
	StaticCron
	// StaticAdmin is the admin API key held by internal tooling.
	StaticAdmin
)

const sessionLocalKey = "session"

// Session is the resolved caller of a request. The zero value is anonymous.
type Session struct {
	UserID uint
	Role   models.Role
	Banned bool
	Static StaticKind
}

var anonymousSession = &Session{}

// Authenticated reports whether the caller is a known user.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

// IsAdmin reports whether the caller is a user holding the admin role.
func (s *Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == models.RoleAdmin
}

// State names the gate state of the caller.
func (s *Session) State() string {
	switch {
	case s != nil && s.Static == StaticAdmin:
		return "static+admin"
	case s != nil && s.Static == StaticCron:
		return "static+cron"
	case !s.Authenticated():
		return "anonymous"
	case s.Banned:
		return "authenticated+banned"
	case s.IsAdmin():
		return "authenticated+admin"
	default:
		return "authenticated"
	}
}

// ActorID is the user recorded on audit rows, nil for static callers.
func (s *Session) ActorID() *uint {
	if !s.Authenticated() {
		return nil
	}
	id := s.UserID
	return &id
}

// SessionFrom returns the caller resolved for c, anonymous when none was stored.
func SessionFrom(c *fiber.Ctx) *Session {
	if s, ok := c.Locals(sessionLocalKey).(*Session); ok && s != nil {
		return s
	}
	return anonymousSession
}

// SetSession stores the caller on c and mirrors the user id into the log context.
func SetSession(c *fiber.Ctx, s *Session) {
	c.Locals(sessionLocalKey, s)
	if s.Authenticated() {
		c.Locals("userID", s.UserID)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, s.UserID))
	}
}

// UserLookup loads the account behind a session token.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// SessionConfig carries the credentials the resolver accepts.
type SessionConfig struct {
	JWTSecret   string
	AdminAPIKey string
	CronSecret  string
}

func (cfg SessionConfig) matchStatic(token string) StaticKind {
	if cfg.CronSecret != "" && constantTimeEqual(token, cfg.CronSecret) {
		return StaticCron
	}
	if cfg.AdminAPIKey != "" && constantTimeEqual(token, cfg.AdminAPIKey) {
		return StaticAdmin
	}
	return StaticNone
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// SessionResolver resolves the caller from the bearer credential. It never
// rejects a request on its own: invalid or missing credentials leave the
// caller anonymous and the route's Gate decides.
func SessionResolver(cfg SessionConfig, users UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Next()
		}

		if kind := cfg.matchStatic(token); kind != StaticNone {
			SetSession(c, &Session{Static: kind})
			return c.Next()
		}

		userID, err := ParseSessionToken(cfg.JWTSecret, token)
		if err != nil {
			return c.Next()
		}

		if err := ResolveUser(c, users, userID); err != nil {
			return models.RespondWithAppError(c, err)
		}
		return c.Next()
	}
}

// ResolveUser loads userID and stores the session. A deleted account resolves as anonymous.
func ResolveUser(c *fiber.Ctx, users UserLookup, userID uint) error {
	user, err := users.GetByID(c.UserContext(), userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil
		}
		return err
	}
	SetSession(c, &Session{UserID: user.ID, Role: user.Role, Banned: user.IsBanned})
	return nil
}

// GateOptions compose the authorization policy of a route.
type GateOptions struct {
	RequireSession bool
	RequireAdmin   bool
	RejectBanned   bool
	RequireCron    bool
}

// Gate enforces opts against the resolved session. Static credentials are
// checked first and short-circuit, then session, then admin, then ban state.
func Gate(opts GateOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := SessionFrom(c)

		if opts.RequireCron && sess.Static == StaticCron {
			return c.Next()
		}
		if (opts.RequireAdmin || opts.RequireCron) && sess.Static == StaticAdmin {
			return c.Next()
		}

		needsSession := opts.RequireSession || opts.RequireAdmin || opts.RequireCron
		if needsSession && !sess.Authenticated() {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthenticationError("Authentication required"))
		}

		if (opts.RequireAdmin || opts.RequireCron) && !sess.IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		if opts.RejectBanned && sess.Authenticated() && sess.Banned {
			return models.RespondWithError(c, fiber.StatusForbidden, models.NewBannedError())
		}

		return c.Next()
	}
}

// Common gate policies.
var (
	RequireSession = GateOptions{RequireSession: true}
	ActiveSession  = GateOptions{RequireSession: true, RejectBanned: true}
	AdminOnly      = GateOptions{RequireAdmin: true, RejectBanned: true}
	CronOnly       = GateOptions{RequireCron: true}
)
