package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainDerivation = "pathfill/derivation/v1"
	DomainTrace      = "pathfill/trace/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DerivationID computes the content hash of one derived parameter value.
// It is stable across replays given the same process, parameter, value and seq.
func DerivationID(process, parameter string, value IRValue, seq int64) (string, error) {
	obj := IRObject{
		"process":   IRString(process),
		"parameter": IRString(parameter),
		"value":     value,
		"seq":       IRInt(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("DerivationID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDerivation, canonical), nil
}

// TraceHash hashes an ordered list of derivations, ignoring their ids.
// Two runs that set the same parameters to the same values in the same
// order share a trace hash.
func TraceHash(derivations []Derivation) (string, error) {
	arr := make(IRArray, len(derivations))
	for i, d := range derivations {
		arr[i] = IRObject{
			"process":   IRString(d.Process),
			"parameter": IRString(d.Parameter),
			"value":     d.Value,
		}
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("TraceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// MustDerivationID is like DerivationID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDerivationID(process, parameter string, value IRValue, seq int64) string {
	id, err := DerivationID(process, parameter, value, seq)
	if err != nil {
		panic(err)
	}
	return id
}
