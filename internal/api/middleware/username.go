package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	UsernameHeader = "X-Username"
	UsernameKey    = "username"

	maxUsernameLength = 64
)

// Username stores the caller's self-declared name under UsernameKey. Browsers cannot set
// headers on websocket upgrades, so the username query parameter is accepted as well.
// Overlong names are ignored.
func Username() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		name := strings.TrimSpace(ctx.GetHeader(UsernameHeader))
		if name == "" {
			name = strings.TrimSpace(ctx.Query("username"))
		}
		if len(name) > maxUsernameLength {
			name = ""
		}

		ctx.Set(UsernameKey, name)
		ctx.Next()
	}
}
