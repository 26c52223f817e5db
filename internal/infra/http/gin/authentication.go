package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentora/internal/app/dto"
	"rentora/internal/app/middleware"
	authsvc "rentora/internal/app/services/auth"
	domainauth "rentora/internal/domain/auth"
)

const principalContextKey = "rentora.principal"

type principal struct {
	Actor   domainauth.Actor
	Profile dto.UserProfile
	Token   string
}

// TokenResolver turns a bearer token into the session's user.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*authsvc.ResolveResult, error)
}

type AuthMiddleware struct {
	Service TokenResolver
	Logger  *slog.Logger
}

// Handle attaches the principal when the bearer token resolves. Anonymous
// requests pass through; the command bus rejects them where an actor is required.
func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	resolved, err := m.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	setPrincipal(c, principal{
		Actor:   resolved.Actor(),
		Profile: dto.MapUserProfile(resolved.User),
		Token:   token,
	})
	c.Next()
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

// currentActor returns the zero actor for anonymous requests.
func currentActor(c *gin.Context) domainauth.Actor {
	p, _ := currentPrincipal(c)
	return p.Actor
}

func requireActor(c *gin.Context) (domainauth.Actor, bool) {
	p, ok := currentPrincipal(c)
	if !ok || p.Actor.IsZero() {
		writeError(c, nil, middleware.ErrUnauthenticated)
		return domainauth.Actor{}, false
	}
	return p.Actor, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
