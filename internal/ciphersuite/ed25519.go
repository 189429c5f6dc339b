package ciphersuite

import (
	"crypto/sha512"
	"encoding/binary"
	"io"

	"filippo.io/edwards25519"
	"github.com/pkg/errors"
)

// Ed25519ID is the wire identifier for the Ed25519/SHA-512 ciphersuite.
const Ed25519ID = "FROST-ED25519-SHA512-v1"

func init() {
	register(&ed25519Suite{})
}

type ed25519Suite struct{}

func (ed25519Suite) ID() string { return Ed25519ID }

type ed25519Scalar struct{ s *edwards25519.Scalar }

func (s *ed25519Scalar) Bytes() []byte { return s.s.Bytes() }

func (s *ed25519Scalar) Add(o Scalar) Scalar {
	return &ed25519Scalar{edwards25519.NewScalar().Add(s.s, o.(*ed25519Scalar).s)}
}

func (s *ed25519Scalar) Sub(o Scalar) Scalar {
	return &ed25519Scalar{edwards25519.NewScalar().Subtract(s.s, o.(*ed25519Scalar).s)}
}

func (s *ed25519Scalar) Mul(o Scalar) Scalar {
	return &ed25519Scalar{edwards25519.NewScalar().Multiply(s.s, o.(*ed25519Scalar).s)}
}

func (s *ed25519Scalar) Invert() Scalar {
	return &ed25519Scalar{edwards25519.NewScalar().Invert(s.s)}
}

func (s *ed25519Scalar) IsZero() bool {
	return s.s.Equal(edwards25519.NewScalar()) == 1
}

func (s *ed25519Scalar) Equal(o Scalar) bool {
	other, ok := o.(*ed25519Scalar)
	return ok && s.s.Equal(other.s) == 1
}

type ed25519Point struct{ p *edwards25519.Point }

func (p *ed25519Point) Bytes() []byte { return p.p.Bytes() }

func (p *ed25519Point) Add(o Point) Point {
	return &ed25519Point{edwards25519.NewIdentityPoint().Add(p.p, o.(*ed25519Point).p)}
}

func (p *ed25519Point) ScalarMult(s Scalar) Point {
	return &ed25519Point{edwards25519.NewIdentityPoint().ScalarMult(s.(*ed25519Scalar).s, p.p)}
}

func (p *ed25519Point) Equal(o Point) bool {
	other, ok := o.(*ed25519Point)
	return ok && p.p.Equal(other.p) == 1
}

func (ed25519Suite) ScalarFromUint16(i uint16) (Scalar, error) {
	var buf [32]byte
	binary.LittleEndian.PutUint16(buf[:2], i)
	s, err := edwards25519.NewScalar().SetCanonicalBytes(buf[:])
	if err != nil {
		return nil, errors.Wrap(err, "ed25519: scalar from uint16")
	}
	return &ed25519Scalar{s}, nil
}

func (ed25519Suite) ScalarFromBytes(b []byte) (Scalar, error) {
	if len(b) != 32 {
		return nil, errors.Errorf("ed25519: scalar must be 32 bytes, got %d", len(b))
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b)
	if err != nil {
		return nil, errors.Wrap(err, "ed25519: invalid scalar encoding")
	}
	return &ed25519Scalar{s}, nil
}

func (ed25519Suite) RandomScalar(rand io.Reader) (Scalar, error) {
	var buf [64]byte
	if _, err := io.ReadFull(rand, buf[:]); err != nil {
		return nil, errors.Wrap(err, "ed25519: reading randomness")
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(buf[:])
	if err != nil {
		return nil, errors.Wrap(err, "ed25519: reducing random scalar")
	}
	return &ed25519Scalar{s}, nil
}

func (ed25519Suite) PointFromBytes(b []byte) (Point, error) {
	p, err := edwards25519.NewIdentityPoint().SetBytes(b)
	if err != nil {
		return nil, errors.Wrap(err, "ed25519: invalid point encoding")
	}
	return &ed25519Point{p}, nil
}

func (ed25519Suite) BasePoint() Point { return &ed25519Point{edwards25519.NewGeneratorPoint()} }

func (ed25519Suite) Identity() Point { return &ed25519Point{edwards25519.NewIdentityPoint()} }

func (ed25519Suite) HashToScalar(domain string, inputs ...[]byte) Scalar {
	h := sha512.New()
	_, _ = h.Write([]byte(domain))
	for _, in := range inputs {
		var lenBuf [8]byte
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(in)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(in)
	}
	sum := h.Sum(nil)
	s, err := edwards25519.NewScalar().SetUniformBytes(sum)
	if err != nil {
		// sha512.Size is always 64, SetUniformBytes cannot fail on it.
		panic(err)
	}
	return &ed25519Scalar{s}
}

func (ed25519Suite) Hash(msg []byte) []byte {
	sum := sha512.Sum512(msg)
	return sum[:]
}
