package service

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// ErrEmptyText indicates free text that is blank once markup is stripped.
var ErrEmptyText = errors.New("text is empty after sanitization")

// CacheInvalidator drops derived views after a ledger mutation.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context) {}

func invalidatorOrNoop(inv CacheInvalidator) CacheInvalidator {
	if inv == nil {
		return noopInvalidator{}
	}
	return inv
}

type sessionContextKey struct{}

// ContextWithSession tags ctx with the session performing the request.
func ContextWithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sessionID)
}

// SessionFromContext returns the session id stored by ContextWithSession.
func SessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(sessionContextKey{}).(string)
	return id
}

func newID() string {
	return uuid.NewString()
}

// sanitizeText strips markup and returns plain text; entities are unescaped so
// names like "Tom & Jerry" survive intact.
func sanitizeText(policy *bluemonday.Policy, raw string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(raw)))
}

func clampLimit(limit, fallback, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}
