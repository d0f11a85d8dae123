package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainComprehension = "comprehend/comprehension/v1"
	DomainValue         = "comprehend/value/v1"
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

// ComprehensionID computes the content-addressed id of a comprehension.
// Positions and the original text are excluded, so the same structure
// written with different spacing between clauses hashes the same.
func ComprehensionID(c *Comprehension) (string, error) {
	canonical, err := MarshalCanonical(identityObject(c))
	if err != nil {
		return "", fmt.Errorf("ComprehensionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainComprehension, canonical), nil
}

// MustComprehensionID is like ComprehensionID but panics on error.
// Identity objects only contain strings, so this cannot fail in practice.
func MustComprehensionID(c *Comprehension) string {
	id, err := ComprehensionID(c)
	if err != nil {
		panic(err)
	}
	return id
}

// ValueHash hashes a dynamic value by its canonical encoding.
func ValueHash(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ValueHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainValue, canonical), nil
}

func identityObject(c *Comprehension) map[string]any {
	clauses := make([]any, len(c.Chain.Clauses))
	for i, clause := range c.Chain.Clauses {
		clauses[i] = map[string]any{
			"binding": clause.Binding.String(),
			"source":  clause.Source.Text,
		}
	}
	mappers := make([]any, len(c.Chain.Mapper.Exprs))
	for i, e := range c.Chain.Mapper.Exprs {
		mappers[i] = e.Text
	}

	obj := map[string]any{
		"container":  c.Container.String(),
		"clauses":    clauses,
		"mapper":     mappers,
		"ir_version": IRVersion,
	}
	if c.Chain.Guard != nil {
		obj["guard"] = c.Chain.Guard.Text
	}
	return obj
}
