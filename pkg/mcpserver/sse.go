package mcpserver

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/salespipe/crm-mcp-server/pkg/authgate"
	"github.com/salespipe/crm-mcp-server/pkg/session"
)

// sseDispatcher owns the streamed-connection transport: a GET establishes the
// event stream and mints the session, each message arrives as a separate POST
// referencing the session id, and replies are only ever delivered over the
// stream. Connecting without complete tenant credentials is rejected with 401
// (the fail-closed connect-time policy); a later POST carrying different,
// complete credentials rebinds the session to support mid-connection
// credential rotation.
type sseDispatcher struct {
	server *Server

	mu         sync.Mutex
	transports map[string]*mcp.SSEServerTransport
}

func newSSEDispatcher(s *Server) *sseDispatcher {
	return &sseDispatcher{
		server:     s,
		transports: make(map[string]*mcp.SSEServerTransport),
	}
}

// handleConnect serves GET <ssePath>. It blocks for the lifetime of the
// client connection; closing the connection releases the session.
func (d *sseDispatcher) handleConnect(w http.ResponseWriter, r *http.Request) {
	creds := session.ParseBearer(r.Header.Get("Authorization"))
	if !creds.Complete() {
		authgate.WriteError(w, http.StatusUnauthorized, "tenant credentials required")
		return
	}

	sessionID := uuid.NewString()
	if _, err := d.server.store.Resolve(sessionID, creds); err != nil {
		d.server.logger.Error("bind streamed session", "error", err)
		authgate.WriteError(w, http.StatusInternalServerError, "failed to establish session")
		return
	}

	endpoint := d.server.opts.MessagePath + "?sessionId=" + sessionID
	transport := &mcp.SSEServerTransport{Endpoint: endpoint, Response: w}

	d.mu.Lock()
	d.transports[sessionID] = transport
	d.mu.Unlock()

	ctx := session.WithID(r.Context(), sessionID)
	ss, err := d.server.mcpServer.Connect(ctx, transport, nil)
	if err != nil {
		d.drop(sessionID)
		d.server.logger.Error("connect streamed session", "session_id", sessionID, "error", err)
		authgate.WriteError(w, http.StatusInternalServerError, "failed to establish session")
		return
	}
	d.server.logger.Info("streamed connection open",
		"session_id", sessionID,
		"domain", creds.CompanyDomain,
	)

	<-r.Context().Done()
	_ = ss.Close()
	d.drop(sessionID)
	d.server.logger.Info("streamed connection closed", "session_id", sessionID)
}

// handleMessage serves POST <messagePath>?sessionId=... for an open streamed
// connection.
func (d *sseDispatcher) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		authgate.WriteError(w, http.StatusBadRequest, "missing sessionId query parameter")
		return
	}

	d.mu.Lock()
	transport, ok := d.transports[sessionID]
	d.mu.Unlock()
	if !ok {
		authgate.WriteError(w, http.StatusNotFound, "session not found")
		return
	}

	// A POST may rotate the session's credentials. The old session is
	// discarded and a fresh one stored under the same identifier; partial
	// credentials are ignored.
	if creds := session.ParseBearer(r.Header.Get("Authorization")); d.server.pol.allowRebind && creds.Complete() {
		if existing, live := d.server.store.Lookup(sessionID); live && existing.Credentials != creds {
			if _, err := d.server.store.Rebind(sessionID, creds); err != nil {
				d.server.logger.Error("rebind streamed session", "session_id", sessionID, "error", err)
				authgate.WriteError(w, http.StatusInternalServerError, "failed to rebind session")
				return
			}
		}
	}

	transport.ServeHTTP(w, r)
}

func (d *sseDispatcher) drop(sessionID string) {
	d.mu.Lock()
	delete(d.transports, sessionID)
	d.mu.Unlock()
	d.server.store.Release(sessionID)
}
