package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainReading is the domain prefix for reading fingerprints.
// Version suffix enables future algorithm migration.
const DomainReading = "sensorlog/reading/v1"

// Fingerprint computes the deduplication key for a canonical payload.
// Format: SHA256(domain + 0x00 + canonical). The null byte separator
// prevents domain/data boundary ambiguity. The digest is stable across
// process restarts and platforms; the store enforces its uniqueness
// table-wide.
func Fingerprint(canonical []byte) string {
	h := sha256.New()
	h.Write([]byte(DomainReading))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))
}

// FingerprintReading encodes a reading and fingerprints the result.
// Returns an error if the reading cannot be canonically encoded.
func FingerprintReading(r Reading) (string, error) {
	canonical, err := EncodeCanonical(r)
	if err != nil {
		return "", fmt.Errorf("fingerprint reading: %w", err)
	}
	return Fingerprint(canonical), nil
}
