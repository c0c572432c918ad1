package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-art-booking/internal/domain"
)

const (
	// userIDKey holds the signed-in user's ID (uint).
	userIDKey = "userID"
	// userKey holds the signed-in *domain.User.
	userKey = "user"
)

// SessionCookie describes the cookie carrying the session token.
type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Set writes token as an HttpOnly, SameSite=Lax cookie.
func (sc SessionCookie) Set(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sc.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sc.TTL / time.Second),
		Expires:  time.Now().Add(sc.TTL),
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (sc SessionCookie) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sc.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionOptions configures Session.
//
// Parse validates a token and returns the user ID it was issued for.
// Lookup loads that user; returning an error treats the request as
// anonymous.
type SessionOptions struct {
	Cookie SessionCookie
	Parse  func(token string) (uint, error)
	Lookup func(ctx context.Context, id uint) (*domain.User, error)
}

// Session resolves the session cookie into the current user. On success the
// user is stored under "user" and its ID under "userID". Invalid tokens,
// unknown users and inactive users leave the request anonymous and clear the
// cookie. Session never aborts.
func Session(opt SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(opt.Cookie.Name)
		if err != nil || token == "" {
			c.Next()
			return
		}
		id, err := opt.Parse(token)
		if err != nil {
			opt.Cookie.Clear(c)
			c.Next()
			return
		}
		u, err := opt.Lookup(c.Request.Context(), id)
		if err != nil || u == nil || !u.IsActive {
			if err != nil {
				LoggerFrom(c).Debug().Err(err).Uint("user_id", id).Msg("session lookup failed")
			}
			opt.Cookie.Clear(c)
			c.Next()
			return
		}
		c.Set(userIDKey, u.ID)
		c.Set(userKey, u)
		c.Next()
	}
}

// CurrentUser returns the signed-in user or nil.
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

// SetCurrentUser stores u as the signed-in user for the rest of the request.
// A nil u makes the request anonymous.
func SetCurrentUser(c *gin.Context, u *domain.User) {
	if u == nil {
		c.Set(userKey, (*domain.User)(nil))
		c.Set(userIDKey, nil)
		return
	}
	c.Set(userKey, u)
	c.Set(userIDKey, u.ID)
}

// userIDString formats the "userID" context value, or returns "".
func userIDString(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uint); ok {
			return strconv.FormatUint(uint64(id), 10)
		}
	}
	return ""
}

// RequireLogin redirects anonymous requests to loginPath with an info flash.
func RequireLogin(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		AddFlash(c, FlashInfo, "Please log in to continue.")
		status := http.StatusFound
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			status = http.StatusSeeOther
		}
		c.Redirect(status, loginPath)
		c.Abort()
	}
}
