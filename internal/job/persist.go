package job

import (
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
	"github.com/tangle-network/frost-blueprint/internal/frost"
)

// persistedKeyPackage and persistedPublicKeyPackage are the JSON-safe,
// ciphersuite-agnostic encodings of frost.KeyPackage/PublicKeyPackage,
// spec.md §6's "inner keypkg/pubkeypkg serializations ... MUST
// round-trip" requirement, realized here as hex-encoded scalar/point
// byte strings rather than a ciphersuite-specific binary format.
type persistedKeyPackage struct {
	Identifier     string `json:"identifier"`
	SigningShare   string `json:"signing_share"`
	VerifyingShare string `json:"verifying_share"`
	VerifyingKey   string `json:"verifying_key"`
	MinSigners     uint16 `json:"min_signers"`
}

type persistedPublicKeyPackage struct {
	VerifyingShares map[string]string `json:"verifying_shares"`
	VerifyingKey    string            `json:"verifying_key"`
}

// persistedEntry is the full JSON document spec.md §6 defines:
// {"ciphersuite": ID, "entry": {"keypkg": ..., "pubkeypkg": ...}}.
type persistedEntry struct {
	Ciphersuite string `json:"ciphersuite"`
	Entry       struct {
		KeyPkg    persistedKeyPackage       `json:"keypkg"`
		PubKeyPkg persistedPublicKeyPackage `json:"pubkeypkg"`
	} `json:"entry"`
}

func encodeEntry(ciphersuiteID string, keyPkg *frost.KeyPackage, pubKeyPkg *frost.PublicKeyPackage) ([]byte, error) {
	var pe persistedEntry
	pe.Ciphersuite = ciphersuiteID
	pe.Entry.KeyPkg = persistedKeyPackage{
		Identifier:     hex.EncodeToString(keyPkg.Identifier.Bytes()),
		SigningShare:   hex.EncodeToString(keyPkg.SigningShare.Bytes()),
		VerifyingShare: hex.EncodeToString(keyPkg.VerifyingShare.Bytes()),
		VerifyingKey:   hex.EncodeToString(keyPkg.VerifyingKey.Bytes()),
		MinSigners:     keyPkg.MinSigners,
	}
	pe.Entry.PubKeyPkg.VerifyingKey = hex.EncodeToString(pubKeyPkg.VerifyingKey.Bytes())
	pe.Entry.PubKeyPkg.VerifyingShares = make(map[string]string, len(pubKeyPkg.VerifyingShares))
	for key, p := range pubKeyPkg.VerifyingShares {
		pe.Entry.PubKeyPkg.VerifyingShares[key] = hex.EncodeToString(p.Bytes())
	}

	b, err := json.Marshal(pe)
	if err != nil {
		return nil, errors.Wrap(err, "job: encoding keygen entry")
	}
	return b, nil
}

func decodeEntry(suite ciphersuite.Suite, raw []byte) (*frost.KeyPackage, *frost.PublicKeyPackage, error) {
	var pe persistedEntry
	if err := json.Unmarshal(raw, &pe); err != nil {
		return nil, nil, errors.Wrap(err, "job: decoding keygen entry")
	}

	id, err := decodeScalarHex(suite, pe.Entry.KeyPkg.Identifier)
	if err != nil {
		return nil, nil, err
	}
	signingShare, err := decodeScalarHex(suite, pe.Entry.KeyPkg.SigningShare)
	if err != nil {
		return nil, nil, err
	}
	verifyingShare, err := decodePointHex(suite, pe.Entry.KeyPkg.VerifyingShare)
	if err != nil {
		return nil, nil, err
	}
	verifyingKey, err := decodePointHex(suite, pe.Entry.KeyPkg.VerifyingKey)
	if err != nil {
		return nil, nil, err
	}
	keyPkg := &frost.KeyPackage{
		Identifier:     id,
		SigningShare:   signingShare,
		VerifyingShare: verifyingShare,
		VerifyingKey:   verifyingKey,
		MinSigners:     pe.Entry.KeyPkg.MinSigners,
	}

	pubVerifyingKey, err := decodePointHex(suite, pe.Entry.PubKeyPkg.VerifyingKey)
	if err != nil {
		return nil, nil, err
	}
	shares := make(map[string]ciphersuite.Point, len(pe.Entry.PubKeyPkg.VerifyingShares))
	for key, hexPoint := range pe.Entry.PubKeyPkg.VerifyingShares {
		p, err := decodePointHex(suite, hexPoint)
		if err != nil {
			return nil, nil, err
		}
		shares[key] = p
	}
	pubKeyPkg := &frost.PublicKeyPackage{VerifyingShares: shares, VerifyingKey: pubVerifyingKey}

	return keyPkg, pubKeyPkg, nil
}

func decodeScalarHex(suite ciphersuite.Suite, s string) (ciphersuite.Scalar, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "job: decoding hex scalar")
	}
	v, err := suite.ScalarFromBytes(b)
	if err != nil {
		return nil, errors.Wrap(err, "job: decoding scalar")
	}
	return v, nil
}

func decodePointHex(suite ciphersuite.Suite, s string) (ciphersuite.Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "job: decoding hex point")
	}
	v, err := suite.PointFromBytes(b)
	if err != nil {
		return nil, errors.Wrap(err, "job: decoding point")
	}
	return v, nil
}
