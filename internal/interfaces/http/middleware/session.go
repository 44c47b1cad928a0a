package middleware

import (
	"context"
	"net/http"

	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/logger"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionKey = "session"

// SessionStore loads and persists visitor sessions
type SessionStore interface {
	Load(ctx context.Context, r *http.Request) *session.Session
	Save(ctx context.Context, w http.ResponseWriter, s *session.Session) error
}

// Sessions loads the visitor's session and saves it right before the
// response headers go out, so handlers can change it until they write.
func Sessions(store SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := store.Load(c.Request.Context(), c.Request)
		c.Set(sessionKey, s)

		w := &sessionWriter{ResponseWriter: c.Writer}
		w.commit = func() {
			if err := store.Save(c.Request.Context(), w.ResponseWriter, s); err != nil {
				logger.For(c.Request.Context(), logger.GetGinLogger(c)).Error("Failed to save session", zap.Error(err))
			}
		}
		c.Writer = w

		c.Next()

		// Bodiless responses (c.Status) are flushed by gin after the chain
		if !w.Written() {
			w.before()
		}
	}
}

// GetSession returns the request's session. Outside the Sessions
// middleware a throwaway session is returned.
func GetSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	s := &session.Session{}
	c.Set(sessionKey, s)
	return s
}

type sessionWriter struct {
	gin.ResponseWriter
	commit    func()
	committed bool
}

func (w *sessionWriter) before() {
	if !w.committed {
		w.committed = true
		w.commit()
	}
}

func (w *sessionWriter) WriteHeader(code int) {
	w.before()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) WriteHeaderNow() {
	w.before()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.before()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) WriteString(s string) (int, error) {
	w.before()
	return w.ResponseWriter.WriteString(s)
}
