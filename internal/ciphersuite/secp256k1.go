package ciphersuite

import (
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

// Secp256k1ID is the wire identifier for the secp256k1/SHA-256 ciphersuite.
const Secp256k1ID = "FROST-secp256k1-SHA256-v1"

func init() {
	register(&secp256k1Suite{curve: secp256k1.S256()})
}

type secp256k1Suite struct {
	curve elliptic.Curve
}

func (secp256k1Suite) ID() string { return Secp256k1ID }

func (s *secp256k1Suite) order() *big.Int { return s.curve.Params().N }

type secpScalar struct{ v *big.Int }

func (s *secpScalar) Bytes() []byte {
	buf := make([]byte, 32)
	v := s.v.Bytes()
	copy(buf[32-len(v):], v)
	return buf
}

func (s *secpScalar) suite() *secp256k1Suite { return registry[Secp256k1ID].(*secp256k1Suite) }

func (s *secpScalar) Add(o Scalar) Scalar {
	n := s.suite().order()
	r := new(big.Int).Add(s.v, o.(*secpScalar).v)
	return &secpScalar{r.Mod(r, n)}
}

func (s *secpScalar) Sub(o Scalar) Scalar {
	n := s.suite().order()
	r := new(big.Int).Sub(s.v, o.(*secpScalar).v)
	return &secpScalar{r.Mod(r, n)}
}

func (s *secpScalar) Mul(o Scalar) Scalar {
	n := s.suite().order()
	r := new(big.Int).Mul(s.v, o.(*secpScalar).v)
	return &secpScalar{r.Mod(r, n)}
}

func (s *secpScalar) Invert() Scalar {
	n := s.suite().order()
	return &secpScalar{new(big.Int).ModInverse(s.v, n)}
}

func (s *secpScalar) IsZero() bool { return s.v.Sign() == 0 }

func (s *secpScalar) Equal(o Scalar) bool {
	other, ok := o.(*secpScalar)
	return ok && s.v.Cmp(other.v) == 0
}

type secpPoint struct {
	x, y  *big.Int // nil, nil represents the point at infinity
	curve elliptic.Curve
}

func (p *secpPoint) Bytes() []byte {
	if p.x == nil {
		return []byte{0x00}
	}
	buf := make([]byte, 33)
	if p.y.Bit(0) == 0 {
		buf[0] = 0x02
	} else {
		buf[0] = 0x03
	}
	xb := p.x.Bytes()
	copy(buf[1+32-len(xb):], xb)
	return buf
}

func (p *secpPoint) Add(o Point) Point {
	other := o.(*secpPoint)
	if p.x == nil {
		return other
	}
	if other.x == nil {
		return p
	}
	x, y := p.curve.Add(p.x, p.y, other.x, other.y)
	return &secpPoint{x, y, p.curve}
}

func (p *secpPoint) ScalarMult(s Scalar) Point {
	if p.x == nil {
		return p
	}
	x, y := p.curve.ScalarMult(p.x, p.y, s.(*secpScalar).Bytes())
	return &secpPoint{x, y, p.curve}
}

func (p *secpPoint) Equal(o Point) bool {
	other, ok := o.(*secpPoint)
	if !ok {
		return false
	}
	if p.x == nil || other.x == nil {
		return p.x == nil && other.x == nil
	}
	return p.x.Cmp(other.x) == 0 && p.y.Cmp(other.y) == 0
}

func (s *secp256k1Suite) ScalarFromUint16(i uint16) (Scalar, error) {
	return &secpScalar{big.NewInt(int64(i))}, nil
}

func (s *secp256k1Suite) ScalarFromBytes(b []byte) (Scalar, error) {
	if len(b) != 32 {
		return nil, errors.Errorf("secp256k1: scalar must be 32 bytes, got %d", len(b))
	}
	v := new(big.Int).SetBytes(b)
	v.Mod(v, s.order())
	return &secpScalar{v}, nil
}

func (s *secp256k1Suite) RandomScalar(rand io.Reader) (Scalar, error) {
	v, err := randFieldElement(rand, s.order())
	if err != nil {
		return nil, errors.Wrap(err, "secp256k1: reading randomness")
	}
	return &secpScalar{v}, nil
}

func randFieldElement(rand io.Reader, n *big.Int) (*big.Int, error) {
	// Rejection-sample 32 random bytes until the value lands below n, the
	// textbook way of drawing a uniform scalar without introducing bias.
	for {
		buf := make([]byte, 32)
		if _, err := io.ReadFull(rand, buf); err != nil {
			return nil, err
		}
		v := new(big.Int).SetBytes(buf)
		if v.Sign() != 0 && v.Cmp(n) < 0 {
			return v, nil
		}
	}
}

func (s *secp256k1Suite) PointFromBytes(b []byte) (Point, error) {
	if len(b) == 1 && b[0] == 0x00 {
		return &secpPoint{nil, nil, s.curve}, nil
	}
	if len(b) != 33 || (b[0] != 0x02 && b[0] != 0x03) {
		return nil, errors.New("secp256k1: invalid compressed point encoding")
	}
	params := s.curve.Params()
	x := new(big.Int).SetBytes(b[1:])
	ySq := new(big.Int).Exp(x, big.NewInt(3), params.P)
	ySq.Add(ySq, big.NewInt(7))
	ySq.Mod(ySq, params.P)
	// p ≡ 3 (mod 4) for secp256k1, so sqrt(a) = a^((p+1)/4) mod p.
	exp := new(big.Int).Add(params.P, big.NewInt(1))
	exp.Div(exp, big.NewInt(4))
	y := new(big.Int).Exp(ySq, exp, params.P)
	if y.Bit(0) != uint(b[0]&1) {
		y.Sub(params.P, y)
	}
	if !s.curve.IsOnCurve(x, y) {
		return nil, errors.New("secp256k1: point not on curve")
	}
	return &secpPoint{x, y, s.curve}, nil
}

func (s *secp256k1Suite) BasePoint() Point {
	params := s.curve.Params()
	return &secpPoint{new(big.Int).Set(params.Gx), new(big.Int).Set(params.Gy), s.curve}
}

func (s *secp256k1Suite) Identity() Point {
	return &secpPoint{nil, nil, s.curve}
}

func (s *secp256k1Suite) HashToScalar(domain string, inputs ...[]byte) Scalar {
	h := sha256.New()
	_, _ = h.Write([]byte(domain))
	for _, in := range inputs {
		var lenBuf [8]byte
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(in)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(in)
	}
	v := new(big.Int).SetBytes(h.Sum(nil))
	v.Mod(v, s.order())
	return &secpScalar{v}
}

func (secp256k1Suite) Hash(msg []byte) []byte {
	sum := sha256.Sum256(msg)
	return sum[:]
}
