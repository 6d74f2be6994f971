// Package authgate implements the optional signed-token gate that runs before
// any credential or session logic. When a signing secret is configured, every
// inbound HTTP request must present a verifiable JWT in the
// X-Gateway-Authorization header (Bearer scheme); otherwise the gate admits
// everything. Whether the caller may talk to the server at all is decided
// here; which tenant the caller acts as is decided later by credential
// extraction, and the two never mix.
package authgate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// HeaderName is the request header the gate inspects. Separate from
// Authorization, which carries tenant credentials.
const HeaderName = "X-Gateway-Authorization"

const bearerPrefix = "Bearer "

// Config is static process configuration for the gate.
type Config struct {
	// Secret enables the gate when non-empty. HMAC signing secret.
	Secret string
	// ReferenceToken must verify against Secret at construction time. A
	// configured secret without a verifiable reference token is a fatal
	// misconfiguration: fail at boot, not per request.
	ReferenceToken string
	// Algorithm is the expected signing algorithm. Defaults to HS256; only
	// HMAC algorithms are supported.
	Algorithm string
	// Audience, when set, must match the token's aud claim.
	Audience string
	// Issuer, when set, must match the token's iss claim.
	Issuer string
}

// Error describes a gate rejection with the HTTP status to surface.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Gate validates inbound requests against the configured signed-token policy.
type Gate struct {
	cfg     Config
	enabled bool
	logger  *slog.Logger
}

// New builds a Gate. When cfg.Secret is set, cfg.ReferenceToken is verified
// immediately and any failure is returned as an error so the process refuses
// to start rather than silently accepting unauthenticated traffic.
func New(cfg Config, logger *slog.Logger) (*Gate, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = jwt.SigningMethodHS256.Alg()
	}
	g := &Gate{cfg: cfg, enabled: cfg.Secret != "", logger: logger}
	if !g.enabled {
		return g, nil
	}
	if !strings.HasPrefix(cfg.Algorithm, "HS") {
		return nil, fmt.Errorf("authgate: unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.ReferenceToken == "" {
		return nil, fmt.Errorf("authgate: signing secret configured without a reference token")
	}
	if err := g.verify(cfg.ReferenceToken); err != nil {
		return nil, fmt.Errorf("authgate: reference token failed verification: %w", err)
	}
	logger.Info("signed-token gate enabled", "algorithm", cfg.Algorithm)
	return g, nil
}

// Enabled reports whether the gate rejects anything at all.
func (g *Gate) Enabled() bool { return g.enabled }

// Check decides whether the request may proceed. A nil return means admitted.
func (g *Gate) Check(r *http.Request) *Error {
	if !g.enabled {
		return nil
	}
	header := r.Header.Get(HeaderName)
	if header == "" {
		return &Error{Status: http.StatusUnauthorized, Message: "missing gateway authorization header"}
	}
	raw, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || raw == "" {
		return &Error{Status: http.StatusUnauthorized, Message: "gateway authorization must use the Bearer scheme"}
	}
	if err := g.verify(raw); err != nil {
		g.logger.Debug("gate rejected request", "error", err)
		return &Error{Status: http.StatusUnauthorized, Message: "invalid gateway token"}
	}
	return nil
}

// Middleware applies Check in front of next, replying 401 with a minimal JSON
// body on rejection.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gateErr := g.Check(r); gateErr != nil {
			WriteError(w, gateErr.Status, gateErr.Message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) verify(tokenString string) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{g.cfg.Algorithm}),
		jwt.WithExpirationRequired(),
	}
	if g.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(g.cfg.Audience))
	}
	if g.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(g.cfg.Issuer))
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return []byte(g.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("token is not valid")
	}
	return nil
}

// WriteError replies with the minimal JSON error body used for every
// HTTP-level failure.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
