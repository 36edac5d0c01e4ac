package identity

import (
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Method indicates how a client identity was derived.
type Method string

const (
	MethodAPIKey  Method = "api_key"
	MethodSubject Method = "sub"
	MethodAddress Method = "ip"
)

// Header names inspected during identity derivation.
const (
	HeaderAPIKey        = "X-API-Key"
	HeaderForwardedFor  = "X-Forwarded-For"
	HeaderAuthorization = "Authorization"
)

const bearerPrefix = "Bearer "

// ClientID attributes usage records to a caller. The derivation method is
// encoded as a prefix so ledgers stay readable in diagnostics.
type ClientID string

// Method returns the derivation method encoded in the identity.
func (c ClientID) Method() Method {
	method, _, ok := strings.Cut(string(c), ":")
	if !ok {
		return MethodAddress
	}
	return Method(method)
}

// FromRequest derives the client identity for a request.
// Precedence: API key header, bearer-token subject, forwarded address,
// then source address.
func FromRequest(r *http.Request) ClientID {
	if key := strings.TrimSpace(r.Header.Get(HeaderAPIKey)); key != "" {
		return ClientID(string(MethodAPIKey) + ":" + key)
	}
	if sub := bearerSubject(r.Header.Get(HeaderAuthorization)); sub != "" {
		return ClientID(string(MethodSubject) + ":" + sub)
	}
	return ClientID(string(MethodAddress) + ":" + clientAddress(r))
}

// bearerSubject extracts the subject claim from a bearer token.
// The claims are parsed without signature verification: validating the
// token is the upstream auth layer's responsibility; here the subject
// only attributes usage.
func bearerSubject(header string) string {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if raw == "" {
		return ""
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// clientAddress resolves the originating address, honoring the first hop
// of a proxy-forwarded chain.
func clientAddress(r *http.Request) string {
	if fwd := r.Header.Get(HeaderForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if addr := strings.TrimSpace(first); addr != "" {
			return addr
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return "unknown"
		}
		return r.RemoteAddr
	}
	return host
}

// RequestSize estimates a request's wire size in bytes: headers, URL,
// method, and the declared body length.
func RequestSize(r *http.Request) int {
	size := 0
	for name, values := range r.Header {
		for _, value := range values {
			size += len(name) + len(value) + 4 // ": " and CRLF
		}
	}
	size += len(r.URL.String())
	size += len(r.Method)
	if r.ContentLength > 0 {
		size += int(r.ContentLength)
	}
	return size
}
