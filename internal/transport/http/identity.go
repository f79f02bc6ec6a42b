package http

import (
	"net/http"
	"strings"
)

const identityHeader = "X-Identity"

// callerIdentity extracts the caller identity from the request header. An
// upstream gateway is expected to authenticate and set it.
func callerIdentity(r *http.Request) (string, bool) {
	identity := strings.TrimSpace(r.Header.Get(identityHeader))
	return identity, identity != ""
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := callerIdentity(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeMissingIdentity, "X-Identity header is required")
	}
	return identity, ok
}
