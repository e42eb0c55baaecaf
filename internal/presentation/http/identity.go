package httppresentation

import (
	"context"
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability/logctx"
)

const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
)

type actorKey struct{}

// withIdentity resolves the caller from X-User-ID and X-User-Role.
// Authentication happens upstream; this layer only trusts the headers.
func withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(headerUserID))
		if userID == "" {
			writeMessage(w, http.StatusUnauthorized, "missing "+headerUserID+" header")
			return
		}
		role, err := identity.ParseRole(r.Header.Get(headerUserRole))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), actorKey{}, identity.Actor{UserID: userID, Role: role})
		ctx = logctx.Enrich(ctx, observability.F("user_id", userID), observability.F("role", string(role)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(ctx context.Context) identity.Actor {
	a, _ := ctx.Value(actorKey{}).(identity.Actor)
	return a
}
