// Package identity derives rate-limiting client identities and request
// categories at the transport boundary.
//
// The governance core never inspects transport objects; handlers derive a
// client identity and a category here and pass them in as plain values.
package identity
