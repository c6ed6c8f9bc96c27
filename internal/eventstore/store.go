// Package eventstore provides the generic append-only event log that the
// mana ledger and the governance engine both fold over to derive current
// state. Grounded on the WAL append/replay split in
// _examples/orbas1-Synnergy/synnergy-network/core/ledger.go, generalized
// from ledger-specific blocks to a type-parameterized event record via Go
// generics.
package eventstore

import "context"

// Store is an append-only, replay-queryable log of events of type E. E must
// be JSON-marshalable for the File backend; Memory imposes no constraint.
type Store[E any] interface {
	Append(ctx context.Context, e E) error
	Query(ctx context.Context) ([]E, error)
	Close() error
}
