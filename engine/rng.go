package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
)

// HandRand derives a shuffle source from the table id, the hand number,
// the store version of the document being transformed, and a
// server-secret nonce that never enters the table document. Mixing in
// the version gives every transition its own stream: the cut-for-dealer
// scratch deck, the hand deck dealt one commit later, and any mid-hand
// reshuffle all draw from unrelated permutations. The derivation is
// deterministic so that a fixed nonce reproduces hands byte-for-byte,
// while a cryptographically random nonce gives a cryptographic-quality
// shuffle.
func HandRand(tableID string, handNumber, version int64, nonce []byte) *rand.Rand {
	h := sha256.New()
	h.Write([]byte(tableID))
	var num [16]byte
	binary.BigEndian.PutUint64(num[:8], uint64(handNumber))
	binary.BigEndian.PutUint64(num[8:], uint64(version))
	h.Write(num[:])
	h.Write(nonce)

	var seed [32]byte
	copy(seed[:], h.Sum(nil))
	return rand.New(rand.NewChaCha8(seed))
}
