package auth

import (
	"net/http"

	"github.com/psds-microservice/video-management-service/internal/errs"
	"github.com/psds-microservice/video-management-service/internal/model"
)

// IdentityProvider resolves an inbound connection's credential into an
// identity before the orchestrator sees the connection.
type IdentityProvider interface {
	Resolve(r *http.Request) (model.Identity, error)
}

// GatewayResolver trusts identity fields attached by the edge gateway, which
// has already verified the bearer token. Headers win over query parameters
// (browsers can't set headers on a WebSocket handshake).
type GatewayResolver struct{}

func (GatewayResolver) Resolve(r *http.Request) (model.Identity, error) {
	id := model.Identity{
		UserID:   first(r.Header.Get("X-User-Id"), r.URL.Query().Get("user_id")),
		Username: first(r.Header.Get("X-Username"), r.URL.Query().Get("username")),
		Role:     first(r.Header.Get("X-User-Role"), r.URL.Query().Get("role")),
	}
	if !id.Valid() {
		return model.Identity{}, errs.ErrUnauthenticated
	}
	return id, nil
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
