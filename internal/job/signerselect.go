package job

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/sha3"
)

// SelectSigners deterministically picks t indices out of nOperators,
// seeded only from verifyingKeyBytes, grounded on spec.md §4.G/§9: "seed
// a ChaCha20 RNG from keccak256(verifying_key_bytes) ... only the
// verifying-key bytes enter the hash in the current design" — the
// message must never be mixed in, or honest parties signing different
// messages under the same key would compute different signer subsets
// and never reach quorum. Indices are drawn by partial Fisher-Yates over
// the registry's canonical ordering, then returned sorted ascending so
// every caller observes the same signer_set regardless of draw order.
func SelectSigners(verifyingKeyBytes []byte, nOperators int, t int) ([]uint16, error) {
	if t < 0 || t > nOperators {
		return nil, errors.Errorf("job: threshold %d exceeds operator count %d", t, nOperators)
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(verifyingKeyBytes)
	seed := h.Sum(nil)

	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(seed, nonce[:])
	if err != nil {
		return nil, errors.Wrap(err, "job: seeding signer-selection RNG")
	}
	stream := &chachaStream{cipher: cipher}

	indices := make([]uint16, nOperators)
	for i := range indices {
		indices[i] = uint16(i)
	}
	for i := 0; i < t; i++ {
		j := i + stream.intn(nOperators-i)
		indices[i], indices[j] = indices[j], indices[i]
	}

	selected := append([]uint16(nil), indices[:t]...)
	sort.Slice(selected, func(a, b int) bool { return selected[a] < selected[b] })
	return selected, nil
}

// chachaStream draws unbiased integers in [0, n) from a ChaCha20
// keystream by rejection sampling, treating XORKeyStream over a
// zero-filled buffer as a pure keystream source.
type chachaStream struct {
	cipher *chacha20.Cipher
}

func (s *chachaStream) uint32() uint32 {
	var buf [4]byte
	s.cipher.XORKeyStream(buf[:], buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

func (s *chachaStream) intn(n int) int {
	if n <= 1 {
		return 0
	}
	limit := ^uint32(0) - (^uint32(0))%uint32(n)
	for {
		v := s.uint32()
		if v < limit {
			return int(v % uint32(n))
		}
	}
}

// StreamKey derives the 32-byte transport multiplexing key for one run,
// spec.md §5's "stream key derived from keccak256('keygen'|'signing' ||
// call_id_le)".
func StreamKey(protocol string, callID [16]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(protocol))
	h.Write(callID[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
