package wire

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
)

func TestEncodeDecodeJobAnnouncementRoundTrip(t *testing.T) {
	want := JobAnnouncement{JobID: "job-1", Submitter: "did:key:zA", MaxPriceMana: 42, Scope: "federation"}
	data, err := Encode(KindJobAnnouncement, want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	env, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if env.Kind != KindJobAnnouncement {
		t.Fatalf("expected KindJobAnnouncement, got %d", env.Kind)
	}
	var got JobAnnouncement
	if err := DecodePayload(env, &got); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if got.JobID != want.JobID || got.Submitter != want.Submitter ||
		!bytes.Equal(got.WasmCID, want.WasmCID) || !bytes.Equal(got.InputCID, want.InputCID) ||
		got.MaxPriceMana != want.MaxPriceMana || got.Scope != want.Scope {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestDecodeEnvelopeRejectsWrongVersion(t *testing.T) {
	data, err := rlp.EncodeToBytes(Envelope{Version: 99, Kind: KindBid, Payload: []byte{}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeEnvelope(data); err == nil {
		t.Fatal("expected version mismatch to be rejected")
	}
}
