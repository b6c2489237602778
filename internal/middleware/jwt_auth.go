package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/landscaipe/contractor-portal/internal/models"
)

type contextKey string

const ctxContractorKey contextKey = "contractor"

// TokenValidator verifies a bearer token and returns the subject and role.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error)
}

// ContractorLookup resolves the authenticated contractor record.
type ContractorLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contractor, error)
}

// JWTAuth authenticates requests by validating the Bearer token and loading
// the contractor it names. Suspended contractors are rejected even with a
// valid token.
func JWTAuth(tokens TokenValidator, contractors ContractorLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}
			id, _, err := tokens.ValidateToken(r.Context(), raw)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			c, err := contractors.GetByID(r.Context(), id)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			if c.Status != models.ContractorStatusActive {
				http.Error(w, `{"error":"account suspended"}`, http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), ctxContractorKey, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly gates a handler behind the admin role. Must run after JWTAuth.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := ContractorFromCtx(r.Context())
		if c == nil {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		if !c.IsAdmin() {
			http.Error(w, `{"error":"admin only"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ContractorFromCtx returns the authenticated contractor or nil.
func ContractorFromCtx(ctx context.Context) *models.Contractor {
	c, _ := ctx.Value(ctxContractorKey).(*models.Contractor)
	return c
}

// WithContractor returns a context carrying the given contractor.
func WithContractor(ctx context.Context, c *models.Contractor) context.Context {
	return context.WithValue(ctx, ctxContractorKey, c)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
