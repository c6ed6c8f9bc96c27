package runtime

import "github.com/icn-network/icn-node/internal/codes"

// Host ABI error codes returned to contract code via EncodeError, mapped
// from codes.Kind. The variant names mirror
// _examples/original_source crates/icn-runtime/src/context/errors.rs's
// HostAbiError enum; this node reuses the shared codes.Kind taxonomy
// instead of a parallel error type, since every ABI call ultimately
// delegates to a subsystem that already returns one.
const (
	ErrCodeNotImplemented       int32 = 1
	ErrCodeInsufficientMana     int32 = 2
	ErrCodeAccountNotFound      int32 = 3
	ErrCodeJobSubmissionFailed  int32 = 4
	ErrCodeInvalidParameters    int32 = 5
	ErrCodeDagOperationFailed   int32 = 6
	ErrCodeSignatureError       int32 = 7
	ErrCodePermissionDenied     int32 = 8
	ErrCodeResourceLimitExceeded int32 = 9
	ErrCodeInvalidSystemAPICall int32 = 10
	ErrCodeInternalError        int32 = 11
	ErrCodeNetworkError         int32 = 12
	ErrCodeSerializationError   int32 = 13
)

// ErrorCodeFor maps a codes.Kind to the ABI error code a contract receives
// via EncodeError. Unrecognized kinds map to ErrCodeInternalError.
func ErrorCodeFor(err error) int32 {
	switch {
	case codes.Is(err, codes.InsufficientMana):
		return ErrCodeInsufficientMana
	case codes.Is(err, codes.NotFound):
		return ErrCodeAccountNotFound
	case codes.Is(err, codes.InvalidArgument):
		return ErrCodeInvalidParameters
	case codes.Is(err, codes.InvalidBlock):
		return ErrCodeDagOperationFailed
	case codes.Is(err, codes.PolicyDenied), codes.Is(err, codes.Unauthorized):
		return ErrCodePermissionDenied
	case codes.Is(err, codes.Network):
		return ErrCodeNetworkError
	case codes.Is(err, codes.Storage):
		return ErrCodeDagOperationFailed
	case codes.Is(err, codes.QueueFull):
		return ErrCodeResourceLimitExceeded
	default:
		return ErrCodeInternalError
	}
}
