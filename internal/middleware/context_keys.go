package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// actorKey is the key used to store the calling actor in the Gin and request contexts.
const actorKey = contextKey("actor")

// ActorHeader names the header external workflows use to identify who records a
// movement. It is attribution only; the ledger does not authenticate callers.
const ActorHeader = "X-Actor-ID"

const maxActorLength = 128

// ActorMiddleware resolves the acting user or workflow from ActorHeader, falling back to
// domain.SystemActor, and stores it for handlers and services.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actor == "" {
			actor = domain.SystemActor
		}
		if len(actor) > maxActorLength {
			actor = actor[:maxActorLength]
		}

		c.Set(string(actorKey), actor)

		ctx := context.WithValue(c.Request.Context(), actorKey, actor)
		enrichedLogger := GetLoggerFromCtx(ctx).With(slog.String("actor", actor))
		c.Set(string(loggerKey), enrichedLogger)
		c.Request = c.Request.WithContext(WithLogger(ctx, enrichedLogger))

		c.Next()
	}
}

// GetActorFromContext retrieves the actor from the Gin context, checking the request
// context as well. It returns domain.SystemActor when none was set.
func GetActorFromContext(c *gin.Context) string {
	if actorVal, exists := c.Get(string(actorKey)); exists {
		if actor, ok := actorVal.(string); ok && actor != "" {
			return actor
		}
	}
	if actor, ok := c.Request.Context().Value(actorKey).(string); ok && actor != "" {
		return actor
	}
	return domain.SystemActor
}
