package httpserver

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"shopverse/internal/domain"
)

const userCtxKey = "user"

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// requireAuth resolves the bearer token to an active user.
func (a *api) requireAuth(c *gin.Context) {
	user, err := a.deps.AuthSvc.Authenticate(c.Request.Context(), bearerToken(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.Set(userCtxKey, *user)
	c.Next()
}

// optionalAuth attaches the user when a valid token is present and
// otherwise lets the request through anonymously.
func (a *api) optionalAuth(c *gin.Context) {
	token := bearerToken(c)
	if token != "" {
		if user, err := a.deps.AuthSvc.Authenticate(c.Request.Context(), token); err == nil {
			c.Set(userCtxKey, *user)
		}
	}
	c.Next()
}

func (a *api) requireAdmin(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		a.fail(c, domain.Wrapf(domain.ErrUnauthorized, "Authentication required"))
		return
	}
	if !user.IsAdmin() {
		a.fail(c, domain.Wrapf(domain.ErrForbidden, "Access denied. Admin privileges required."))
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) (domain.User, bool) {
	v, ok := c.Get(userCtxKey)
	if !ok {
		return domain.User{}, false
	}
	u, ok := v.(domain.User)
	return u, ok
}

// rateLimit is a fixed window counter per client IP. Redis errors let the
// request through.
func rateLimit(client *redis.Client, window time.Duration, limit int, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := "rate_limit:" + c.ClientIP()
		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Printf("rate limit: incr key=%s error=%v", key, err)
			c.Next()
			return
		}
		if count == 1 {
			if err := client.Expire(ctx, key, window).Err(); err != nil {
				logger.Printf("rate limit: expire key=%s error=%v", key, err)
			}
		}
		if count > int64(limit) {
			abortWith(c, http.StatusTooManyRequests, "Too many requests from this IP, please try again later.", "Too many requests")
			return
		}
		c.Next()
	}
}
