package runtime

import "context"

// ZKProver is the external oracle boundary for zero-knowledge proof
// generation and verification. spec.md treats ZK proof primitives as a
// Non-goal: this node never implements a proving system, it only defines
// the boundary a real prover (gnark, bellman, etc.) would be plugged in
// behind. NoopZKProver is the default — it accepts every proof, so mesh
// jobs that don't enable proof requirements are unaffected.
type ZKProver interface {
	Generate(ctx context.Context, circuitID string, witness []byte) ([]byte, error)
	Verify(ctx context.Context, circuitID string, proof []byte, publicInputs []byte) (bool, error)
}

// NoopZKProver always succeeds; it exists so the runtime's ABI surface is
// complete without pulling in a real proving system.
type NoopZKProver struct{}

func (NoopZKProver) Generate(_ context.Context, _ string, witness []byte) ([]byte, error) {
	return witness, nil
}

func (NoopZKProver) Verify(_ context.Context, _ string, _ []byte, _ []byte) (bool, error) {
	return true, nil
}

var _ ZKProver = NoopZKProver{}
