package ws

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rental-service/internal/observability"
)

func newConnID() string {
	return uuid.NewString()
}

// contextForInfo outlives the handshake request, which ends on upgrade.
func contextForInfo(info ConnInfo) context.Context {
	return observability.WithRequestID(context.Background(), info.RequestID)
}

// bearerToken reads the token from the Authorization header or, for browsers
// that cannot set headers on upgrade, the token query parameter.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}
