package did

import "testing"

func TestParseWebDIDURL(t *testing.T) {
	url := "did:web:example.com:user:alice/profile#key-1"
	d, err := Parse(url)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if d.Method != "web" {
		t.Errorf("method = %q, want web", d.Method)
	}
	if d.IDString != "example.com:user:alice" {
		t.Errorf("id = %q", d.IDString)
	}
	if d.Path != "/profile" {
		t.Errorf("path = %q", d.Path)
	}
	if d.Query != "" {
		t.Errorf("query = %q, want empty", d.Query)
	}
	if d.Fragment != "key-1" {
		t.Errorf("fragment = %q", d.Fragment)
	}
	if got := d.String(); got != url {
		t.Errorf("round trip = %q, want %q", got, url)
	}
}

func TestParseKeyDIDURLWithQuery(t *testing.T) {
	url := "did:key:z6MkjExample/service?foo=bar#frag"
	d, err := Parse(url)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if d.Method != "key" {
		t.Errorf("method = %q, want key", d.Method)
	}
	if d.IDString != "z6MkjExample" {
		t.Errorf("id = %q", d.IDString)
	}
	if d.Path != "/service" {
		t.Errorf("path = %q", d.Path)
	}
	if d.Query != "foo=bar" {
		t.Errorf("query = %q", d.Query)
	}
	if d.Fragment != "frag" {
		t.Errorf("fragment = %q", d.Fragment)
	}
	if got := d.String(); got != url {
		t.Errorf("round trip = %q, want %q", got, url)
	}
}

func TestParseRejectsMissingPrefix(t *testing.T) {
	if _, err := Parse("example.com:alice"); err == nil {
		t.Fatal("expected error for missing did: prefix")
	}
}

func TestKeyDIDSelfCertifying(t *testing.T) {
	priv, err := generateTestKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	d, err := NewKeyDID(priv.PubKey())
	if err != nil {
		t.Fatalf("NewKeyDID: %v", err)
	}
	if !d.IsSelfCertifying() {
		t.Fatal("did:key should be self-certifying")
	}
	recovered, err := d.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	if !recovered.IsEqual(priv.PubKey()) {
		t.Fatal("recovered public key does not match original")
	}
}

func TestWebDIDIsNotSelfCertifying(t *testing.T) {
	d := New("web", "example.com")
	if d.IsSelfCertifying() {
		t.Fatal("did:web must not be self-certifying")
	}
	if _, err := d.PublicKey(); err == nil {
		t.Fatal("expected error recovering a public key from did:web")
	}
}
