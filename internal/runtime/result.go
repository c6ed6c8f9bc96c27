package runtime

// EncodeResult/DecodeResult bit-pack a (tag, payload) pair into a single
// i64 the way the WASM host ABI returns outcomes to contract code without
// an out-parameter: bits 63-32 carry the tag (0 = ok, 1 = error), bits
// 31-0 carry the sign-preserving i32 payload. Algorithm ported exactly from
// _examples/original_source crates/icn-runtime/src/result_encoding.rs.
const (
	resultTagOK    = 0
	resultTagError = 1
)

// EncodeResult packs tag and payload into the wire i64 form.
func EncodeResult(tag uint32, payload int32) int64 {
	return int64(tag)<<32 | int64(uint32(payload))
}

// DecodeResult unpacks a wire i64 into its (tag, payload) pair, preserving
// payload's sign.
func DecodeResult(encoded int64) (tag uint32, payload int32) {
	tag = uint32(encoded >> 32)
	payload = int32(uint32(encoded & 0xFFFFFFFF))
	return tag, payload
}

// EncodeOK wraps a successful i32 payload.
func EncodeOK(payload int32) int64 { return EncodeResult(resultTagOK, payload) }

// EncodeError wraps an error code payload.
func EncodeError(code int32) int64 { return EncodeResult(resultTagError, code) }

// IsOK reports whether an encoded result's tag marks success.
func IsOK(encoded int64) bool {
	tag, _ := DecodeResult(encoded)
	return tag == resultTagOK
}
