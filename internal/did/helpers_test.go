package did

import "github.com/decred/dcrd/dcrec/secp256k1/v4"

func generateTestKey() (*secp256k1.PrivateKey, error) {
	return secp256k1.GeneratePrivateKey()
}
