package expr

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// hasher feeds node fields into an xxhash digest. Child nodes contribute
// their cached hash, so hashing a node is constant work in its arity.
type hasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

func newHasher(k Kind) *hasher {
	h := &hasher{d: xxhash.New()}
	h.d.Write([]byte{byte(k)})
	return h
}

func (h *hasher) u64(v uint64) *hasher {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	h.d.Write(h.buf[:])
	return h
}

func (h *hasher) str(s string) *hasher {
	h.u64(uint64(len(s)))
	h.d.WriteString(s)
	return h
}

func (h *hasher) sub(e Expr) *hasher {
	return h.u64(e.Hash())
}

func (h *hasher) sum() uint64 {
	return h.d.Sum64()
}

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainExpr    = "dsimp/expr/v1"
	DomainRuleSet = "dsimp/ruleset/v1"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ID computes a content-addressed identifier for e. Alpha-equivalent
// expressions share an ID because binder names are not part of the
// canonical encoding.
func ID(e Expr) (string, error) {
	data, err := MarshalCanonical(e)
	if err != nil {
		return "", fmt.Errorf("ID: failed to marshal: %w", err)
	}
	return HashWithDomain(DomainExpr, data), nil
}

// MustID is like ID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustID(e Expr) string {
	id, err := ID(e)
	if err != nil {
		panic(err)
	}
	return id
}
