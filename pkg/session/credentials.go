// Package session binds caller identity to MCP connections. It parses the
// credential-bearing Authorization header into an API token and tenant domain,
// maintains the session store that maps opaque session identifiers to their
// immutable credential set and upstream client set, and threads the active
// session identifier through context.Context so concurrently executing tool
// handlers always resolve their own caller's clients.
package session

import "strings"

const bearerPrefix = "Bearer "

// Credentials identify which upstream tenant and bearer a session acts as.
// Immutable once bound to a session. The token is a secret and must never be
// logged in full.
type Credentials struct {
	APIToken      string
	CompanyDomain string
}

// Complete reports whether both the token and the domain are present. Partial
// credentials are treated as absent for authorization purposes.
func (c Credentials) Complete() bool {
	return c.APIToken != "" && c.CompanyDomain != ""
}

// RedactedToken returns a loggable form of the API token.
func (c Credentials) RedactedToken() string {
	if len(c.APIToken) <= 4 {
		return "****"
	}
	return "****" + c.APIToken[len(c.APIToken)-4:]
}

// ParseBearer extracts credentials from an Authorization header value. The
// value must carry the Bearer scheme and the remainder is interpreted as
// "<apiToken>:<tenantDomain>", split on the first colon; any further colons
// belong to the domain. Malformed input degrades to incomplete credentials,
// never an error: the caller decides whether absence is fatal.
func ParseBearer(header string) Credentials {
	value, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || value == "" {
		return Credentials{}
	}
	token, domain, ok := strings.Cut(value, ":")
	if !ok {
		return Credentials{APIToken: token}
	}
	return Credentials{APIToken: token, CompanyDomain: domain}
}
