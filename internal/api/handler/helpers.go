package handler

import (
	"net/http"

	mw "github.com/quimera/domains/internal/api/middleware"
	"github.com/quimera/domains/internal/api/response"
)

// ownerID extracts the authenticated owner from the request context.
// Returns false and writes a 401 if the request reached the handler
// without passing the auth middleware.
func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := mw.GetIdentity(r.Context())
	if key == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing identity")
		return "", false
	}
	return key.OwnerID, true
}
