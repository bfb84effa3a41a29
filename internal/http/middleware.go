package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"levelup/internal/domain"
	"levelup/internal/session"
)

const (
	ctxSessionKey = "session"
	ctxUserKey    = "currentUser"

	sessionCookieMaxAge = 7 * 24 * 60 * 60
)

// sessionGuard runs before every request. It discards sessions issued by a
// previous process instance, enforces the inactivity timeout for logged-in
// users, refreshes the last-activity stamp and attaches the resolved user to
// the request context.
func (h *Handler) sessionGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		var raw string
		if v, err := c.Cookie(session.CookieName); err == nil {
			raw = v
		}
		sess := h.sessions.Decode(raw)
		now := time.Now()

		if h.sessions.Stale(sess) {
			// The process restarted since this cookie was issued.
			sess = h.sessions.New()
			sess.Notice = "You have been logged out, please log in again."
		}

		if h.sessions.Expired(sess, now) {
			sess = h.sessions.New()
			sess.LastActivity = now
			sess.Notice = "Your session expired, please log in again."
			h.writeSession(c, sess)
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		sess.LastActivity = now

		if sess.UserID != 0 {
			user, err := h.accounts.GetByID(c.Request.Context(), sess.UserID)
			if err != nil {
				h.logger.WithError(err).WithField("uid", sess.UserID).Warn("session user no longer resolvable")
				sess.UserID = 0
			} else {
				c.Set(ctxUserKey, user)
			}
		}

		c.Set(ctxSessionKey, sess)
		h.writeSession(c, sess)
		c.Next()
	}
}

// writeSession re-signs the session into the cookie, replacing any value the
// guard already queued for this response.
func (h *Handler) writeSession(c *gin.Context, sess *session.Session) {
	header := c.Writer.Header()
	if cookies := header["Set-Cookie"]; len(cookies) > 0 {
		kept := cookies[:0]
		for _, ck := range cookies {
			if !strings.HasPrefix(ck, session.CookieName+"=") {
				kept = append(kept, ck)
			}
		}
		if len(kept) == 0 {
			header.Del("Set-Cookie")
		} else {
			header["Set-Cookie"] = kept
		}
	}

	value, err := h.sessions.Issue(sess)
	if err != nil {
		h.logger.WithError(err).Error("sign session cookie")
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func currentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(ctxSessionKey); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}

func currentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(ctxUserKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
