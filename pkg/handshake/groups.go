package handshake

import (
	"crypto/tls"
	"fmt"
	"sort"
)

// Class categorizes a key-exchange group.
type Class int

const (
	// Classical is a pre-quantum group (ECDHE curve).
	Classical Class = iota
	// Hybrid combines a classical exchange with a post-quantum KEM.
	Hybrid
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case Classical:
		return "classical"
	case Hybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// Group describes a named TLS key-exchange group.
type Group struct {
	// Name is the group name as used in ClientHello negotiation
	// (and accepted by openssl -groups).
	Name string

	// Class indicates classical vs hybrid.
	Class Class

	// CurveID is the crypto/tls identifier. Zero when the Go stack
	// cannot negotiate this group (exec driver only).
	CurveID tls.CurveID
}

// Embedded returns true when the Go TLS stack can negotiate this group.
func (g Group) Embedded() bool { return g.CurveID != 0 }

// groups is the registry of known key-exchange groups. Names follow the
// IANA/openssl spelling so they can be passed straight to s_client.
var groups = map[string]Group{
	"X25519":         {Name: "X25519", Class: Classical, CurveID: tls.X25519},
	"P-256":          {Name: "P-256", Class: Classical, CurveID: tls.CurveP256},
	"P-384":          {Name: "P-384", Class: Classical, CurveID: tls.CurveP384},
	"P-521":          {Name: "P-521", Class: Classical, CurveID: tls.CurveP521},
	"X25519MLKEM768": {Name: "X25519MLKEM768", Class: Hybrid, CurveID: tls.X25519MLKEM768},

	// Negotiable only through an external OpenSSL with the OQS provider.
	"X448":              {Name: "X448", Class: Classical},
	"SecP256r1MLKEM768": {Name: "SecP256r1MLKEM768", Class: Hybrid},
}

// LookupGroup resolves a group name. The error lists known names so a
// misconfigured campaign fails with an actionable message.
func LookupGroup(name string) (Group, error) {
	g, ok := groups[name]
	if !ok {
		return Group{}, fmt.Errorf("unknown key-exchange group %q (known: %v)", name, KnownGroups())
	}
	return g, nil
}

// KnownGroups returns all registered group names, sorted.
func KnownGroups() []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
