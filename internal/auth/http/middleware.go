package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authService "github.com/clinsign/clinsign/internal/auth/service"
	authUseCase "github.com/clinsign/clinsign/internal/auth/usecase"
)

// SessionCookieName is the cookie carrying the platform session token for
// browser requests. API clients send the same token as a Bearer header.
const SessionCookieName = "clinsign_session"

// MessageNotAuthenticated is the user-facing 401 message, rendered as-is.
const MessageNotAuthenticated = "Não autenticado"

// AuthenticationMiddleware resolves the platform session to an acting user.
//
// The session token is taken from the Authorization header ("Bearer <token>",
// case-insensitive) or, absent that, from the session cookie. The token is
// hashed and resolved through authUseCase.Authenticate; the resulting user is
// stored in the request context for handlers to read via GetUser().
//
// Every failure mode (missing token, unknown session, expired session,
// inactive user, lookup errors) produces the same 401 response so nothing
// about the session state leaks to the caller.
func AuthenticationMiddleware(
	useCase authUseCase.AuthUseCase,
	tokenService authService.TokenService,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		plainToken := extractSessionToken(c)
		if plainToken == "" {
			logger.Debug("authentication failed: no session token")
			abortUnauthenticated(c)
			return
		}

		tokenHash := tokenService.HashToken(plainToken)

		user, err := useCase.Authenticate(c.Request.Context(), tokenHash)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			abortUnauthenticated(c)
			return
		}

		ctx := WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// extractSessionToken reads the session token from the Authorization header
// or the session cookie, in that order.
func extractSessionToken(c *gin.Context) string {
	const bearerPrefix = "bearer "

	authHeader := c.GetHeader("Authorization")
	if len(authHeader) >= len(bearerPrefix) &&
		strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return authHeader[len(bearerPrefix):]
	}

	cookie, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MessageNotAuthenticated})
}
