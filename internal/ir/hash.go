package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainScenario = "durlin/scenario/v1"
	DomainState    = "durlin/state/v1"
	DomainFrontier = "durlin/frontier/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash computes the domain-separated hash of a value's canonical encoding.
func Hash(domain string, v IRValue) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: failed to marshal: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// StateHash identifies a sequential-specification state snapshot.
// Two states with equal snapshots are interchangeable during search.
func StateHash(snapshot IRValue) (string, error) {
	return Hash(DomainState, snapshot)
}

// FrontierKey combines a frontier signature with a state hash into a memo key.
func FrontierKey(frontier IRObject, stateHash string) (string, error) {
	obj := IRObject{
		"frontier": frontier,
		"state":    IRString(stateHash),
	}
	return Hash(DomainFrontier, obj)
}

// MustHash is like Hash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustHash(domain string, v IRValue) string {
	h, err := Hash(domain, v)
	if err != nil {
		panic(err)
	}
	return h
}
