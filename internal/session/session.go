// Package session implements the signed-cookie session used by the web API.
// Session state (current user, process boot identifier, last-activity stamp
// and a one-shot notice) travels in an HS256-signed JWT cookie; nothing is
// stored server side.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CookieName is the name of the session cookie.
const CookieName = "levelup_session"

// Session is the per-browser state carried by the cookie.
type Session struct {
	UserID       int64
	Boot         string
	LastActivity time.Time
	Notice       string
}

// PopNotice returns the pending one-shot notice and clears it.
func (s *Session) PopNotice() string {
	n := s.Notice
	s.Notice = ""
	return n
}

type sessionClaims struct {
	UserID       int64  `json:"uid,omitempty"`
	Boot         string `json:"boot"`
	LastActivity int64  `json:"lsa,omitempty"`
	Notice       string `json:"notice,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session cookies and owns the process boot
// identifier used to invalidate sessions from previous process instances.
type Manager struct {
	secret  []byte
	bootID  string
	timeout time.Duration
	logger  logrus.FieldLogger
}

// NewManager creates a session manager. An empty bootID means a fresh random
// identifier for this process, which logs out every existing session.
func NewManager(secret, bootID string, timeout time.Duration, logger logrus.FieldLogger) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if bootID == "" {
		bootID = uuid.NewString()
	}
	return &Manager{
		secret:  []byte(secret),
		bootID:  bootID,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// BootID returns the identifier of the running process instance.
func (m *Manager) BootID() string {
	return m.bootID
}

// New returns an empty session bound to the current process instance.
func (m *Manager) New() *Session {
	return &Session{Boot: m.bootID}
}

// Issue signs the session into a cookie value.
func (m *Manager) Issue(s *Session) (string, error) {
	claims := sessionClaims{
		UserID: s.UserID,
		Boot:   s.Boot,
		Notice: s.Notice,
	}
	if !s.LastActivity.IsZero() {
		claims.LastActivity = s.LastActivity.Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Decode verifies a cookie value and reconstructs the session. A missing or
// unverifiable cookie yields a fresh empty session; a malformed last-activity
// stamp is logged and tolerated (the guard refreshes it on the way out).
func (m *Manager) Decode(value string) *Session {
	if value == "" {
		return m.New()
	}

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(value, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		m.logger.WithError(err).Debug("discarding unverifiable session cookie")
		return m.New()
	}

	s := &Session{
		UserID: claims.UserID,
		Boot:   claims.Boot,
		Notice: claims.Notice,
	}
	if claims.LastActivity > 0 {
		s.LastActivity = time.Unix(claims.LastActivity, 0)
	} else if claims.UserID != 0 {
		// Non-fatal: keep the session, the stamp gets refreshed by the guard.
		m.logger.WithField("uid", claims.UserID).Warn("session cookie has malformed last-activity stamp")
	}
	return s
}

// Stale reports whether the session was issued by another process instance.
func (m *Manager) Stale(s *Session) bool {
	return s.Boot != m.bootID
}

// Expired reports whether an authenticated session exceeded the inactivity window.
func (m *Manager) Expired(s *Session, now time.Time) bool {
	if s.UserID == 0 || s.LastActivity.IsZero() {
		return false
	}
	return now.Sub(s.LastActivity) > m.timeout
}
