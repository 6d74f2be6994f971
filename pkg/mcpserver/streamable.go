package mcpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/salespipe/crm-mcp-server/pkg/authgate"
	"github.com/salespipe/crm-mcp-server/pkg/session"
)

// statelessSession wraps the streamable handler for the stateless transport:
// every request must carry complete inline credentials, gets a private
// synthesized session for exactly the duration of the exchange, and the
// session is released once the reply is written. A fresh identifier per
// request means two callers reusing the same protocol-level session id can
// never observe each other's credentials.
func (s *Server) statelessSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds := session.ParseBearer(r.Header.Get("Authorization"))
		if s.pol.inlineCredentials && !creds.Complete() {
			authgate.WriteError(w, http.StatusUnauthorized, "tenant credentials required")
			return
		}

		sessionID := uuid.NewString()
		if _, err := s.store.Resolve(sessionID, creds); err != nil {
			if errors.Is(err, session.ErrCredentialsRequired) {
				authgate.WriteError(w, http.StatusUnauthorized, "tenant credentials required")
				return
			}
			s.logger.Error("bind stateless session", "error", err)
			authgate.WriteError(w, http.StatusInternalServerError, "failed to establish session")
			return
		}
		if s.pol.releaseAfterRequest {
			defer s.store.Release(sessionID)
		}

		ctx := session.WithID(session.WithCredentials(r.Context(), creds), sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
