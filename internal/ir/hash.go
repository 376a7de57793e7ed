package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainItem   = "jk/item/v1"
	DomainOutput = "jk/output/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the structural identity of a value: equal canonical
// serializations produce equal fingerprints.
// Returns error if v cannot be canonically marshaled.
func Fingerprint(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: %w", err)
	}
	return hashWithDomain(DomainItem, canonical), nil
}

// OutputHash identifies a whole pipeline output, for scenario reports.
func OutputHash(items []Value) (string, error) {
	canonical, err := MarshalCanonical(Array(items))
	if err != nil {
		return "", fmt.Errorf("OutputHash: %w", err)
	}
	return hashWithDomain(DomainOutput, canonical), nil
}
