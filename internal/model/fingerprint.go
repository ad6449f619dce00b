package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is the hex sha256 of (file bytes, extractor version, model
// identifier). Two fingerprints are equal iff re-running extraction and
// analysis is guaranteed to produce the same result under the current
// configuration. Collisions are treated as impossible; there is no chaining.
type Fingerprint string

// ComputeFingerprint derives the fingerprint for one file. Inputs are
// length-delimited by NUL separators so boundary shifts between the three
// parts cannot collide.
func ComputeFingerprint(content []byte, extractorVersion, modelID string) Fingerprint {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(extractorVersion))
	h.Write([]byte{0})
	h.Write([]byte(modelID))
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}
