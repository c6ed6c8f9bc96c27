package runtime

import (
	"context"

	"github.com/wasmerio/wasmer-go/wasmer"
)

// WasmHost wires the numbered ABI surface into a wasmer-go import object so
// a compiled contract module can call host functions by name. It does not
// execute a contract itself (see ContractExecutor) — it only prepares the
// import object a caller's own Execute implementation would link against.
// Grounded directly on the host-function registration pattern in
// _examples/orbas1-Synnergy/synnergy-network/core/virtual_machine.go's
// registerHost (wasmer.NewFunction + ImportObject.Register under an "env"
// namespace).
type WasmHost struct {
	ctx   *Context
	store *wasmer.Store
}

// NewWasmHost builds a WasmHost bound to a Context and a wasmer store (the
// same store the caller will use to compile the module).
func NewWasmHost(rc *Context, store *wasmer.Store) *WasmHost {
	return &WasmHost{ctx: rc, store: store}
}

// BuildImportObject registers five ABI functions under the "env" namespace
// (account_get_mana, account_spend_mana, account_credit_mana,
// get_pending_mesh_jobs, get_reputation); the other ABI numbers have no
// host function registered. Each is an i64-returning host call, matching EncodeResult's wire shape: every
// host function takes its arguments as i32s (pointers/lengths into linear
// memory are the caller Execute implementation's concern, not this
// package's) and returns one i64 encoding (tag, payload).
func (h *WasmHost) BuildImportObject() *wasmer.ImportObject {
	imports := wasmer.NewImportObject()

	fn := func(paramCount int, call func(args []wasmer.Value) int64) *wasmer.Function {
		params := make([]wasmer.ValueKind, paramCount)
		for i := range params {
			params[i] = wasmer.ValueKind(wasmer.I32)
		}
		return wasmer.NewFunction(
			h.store,
			wasmer.NewFunctionType(wasmer.NewValueTypes(params...), wasmer.NewValueTypes(wasmer.ValueKind(wasmer.I64))),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				return []wasmer.Value{wasmer.NewI64(call(args))}, nil
			},
		)
	}

	ctx := context.Background()

	imports.Register("env", map[string]wasmer.IntoExtern{
		"account_get_mana": fn(1, func(args []wasmer.Value) int64 {
			// args[0] is an interned account-index the caller's Execute
			// implementation resolves to a DID; this host function only
			// demonstrates the dispatch shape, it does not resolve
			// pointers itself.
			bal, err := h.ctx.GetMana(ctx, h.ctx.ActorDID)
			if err != nil {
				return EncodeError(ErrorCodeFor(err))
			}
			return EncodeOK(int32(bal))
		}),
		"account_spend_mana": fn(1, func(args []wasmer.Value) int64 {
			amount := uint64(args[0].I32())
			if err := h.ctx.SpendMana(ctx, h.ctx.ActorDID, amount); err != nil {
				return EncodeError(ErrorCodeFor(err))
			}
			return EncodeOK(0)
		}),
		"account_credit_mana": fn(1, func(args []wasmer.Value) int64 {
			amount := uint64(args[0].I32())
			if err := h.ctx.CreditMana(ctx, h.ctx.ActorDID, amount); err != nil {
				return EncodeError(ErrorCodeFor(err))
			}
			return EncodeOK(0)
		}),
		"get_pending_mesh_jobs": fn(0, func(args []wasmer.Value) int64 {
			return EncodeOK(int32(h.ctx.GetPendingMeshJobs()))
		}),
		"get_reputation": fn(0, func(args []wasmer.Value) int64 {
			score, err := h.ctx.GetReputation(ctx, h.ctx.ActorDID)
			if err != nil {
				return EncodeError(ErrorCodeFor(err))
			}
			return EncodeOK(int32(score))
		}),
	})

	return imports
}
