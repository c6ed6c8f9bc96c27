// Package did implements parsing, formatting, and key-method signing for
// decentralized identifiers of the form:
//
//	did:<method>:<id>[/<path>][?<query>][#<fragment>]
//
// Grounded on _examples/original_source crates/icn-common/src/lib.rs's Did
// type and its round-trip tests (crates/icn-common/tests/did.rs): the
// "key" method treats the id as a multibase-encoded public key and is
// self-certifying; "web" is an opaque identifier string.
package did

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multibase"
)

// DID is a parsed decentralized identifier. String round-trips exactly to
// the input it was parsed from.
type DID struct {
	Method   string
	IDString string
	Path     string
	Query    string
	Fragment string
}

// New builds a bare "did:<method>:<id>" with no path/query/fragment.
func New(method, id string) DID {
	return DID{Method: method, IDString: id}
}

// Parse parses a DID URL string per the grammar in the package doc.
func Parse(s string) (DID, error) {
	if !strings.HasPrefix(s, "did:") {
		return DID{}, fmt.Errorf("did: missing \"did:\" prefix: %q", s)
	}
	rest := s[len("did:"):]

	methodEnd := strings.IndexByte(rest, ':')
	if methodEnd <= 0 {
		return DID{}, fmt.Errorf("did: missing method separator: %q", s)
	}
	method := rest[:methodEnd]
	rest = rest[methodEnd+1:]
	if rest == "" {
		return DID{}, fmt.Errorf("did: empty identifier: %q", s)
	}

	d := DID{Method: method}

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		d.Fragment = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		d.Query = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		d.Path = rest[i:]
		rest = rest[:i]
	}
	d.IDString = rest
	if d.IDString == "" {
		return DID{}, fmt.Errorf("did: empty identifier: %q", s)
	}
	return d, nil
}

// String renders the DID back to its canonical URL form.
func (d DID) String() string {
	var b strings.Builder
	b.WriteString("did:")
	b.WriteString(d.Method)
	b.WriteByte(':')
	b.WriteString(d.IDString)
	b.WriteString(d.Path)
	if d.Query != "" {
		b.WriteByte('?')
		b.WriteString(d.Query)
	}
	if d.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(d.Fragment)
	}
	return b.String()
}

// IsSelfCertifying reports whether the method encodes its own public key
// material (only "key" does, per spec.md §3).
func (d DID) IsSelfCertifying() bool { return d.Method == "key" }

// NewKeyDID derives a "did:key" identifier from a secp256k1 public key: the
// compressed key bytes, multibase-encoded with the base58btc ('z') alphabet.
func NewKeyDID(pub *secp256k1.PublicKey) (DID, error) {
	enc, err := multibase.Encode(multibase.Base58BTC, pub.SerializeCompressed())
	if err != nil {
		return DID{}, fmt.Errorf("did: multibase encode: %w", err)
	}
	return DID{Method: "key", IDString: enc}, nil
}

// PublicKey recovers the secp256k1 public key embedded in a "did:key"
// identifier. Returns an error for any other method.
func (d DID) PublicKey() (*secp256k1.PublicKey, error) {
	if d.Method != "key" {
		return nil, fmt.Errorf("did: method %q is not self-certifying", d.Method)
	}
	_, data, err := multibase.Decode(d.IDString)
	if err != nil {
		return nil, fmt.Errorf("did: multibase decode: %w", err)
	}
	pub, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return nil, fmt.Errorf("did: parse pubkey: %w", err)
	}
	return pub, nil
}

// Fingerprint returns a short base58btc digest of the DID's canonical string
// form, for use in log lines where the full identifier is too noisy.
func (d DID) Fingerprint() string {
	h := sha256.Sum256([]byte(d.String()))
	return base58.Encode(h[:8])
}
