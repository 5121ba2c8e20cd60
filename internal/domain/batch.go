package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// BatchKind discriminates the batch identity variants.
type BatchKind string

const (
	// BatchNumeric is a club's numbered production batch.
	BatchNumeric BatchKind = "numeric"
	// BatchIndividual groups orders fulfilled outside any production run.
	BatchIndividual BatchKind = "individual"
	// BatchSpecial groups out-of-band special orders.
	BatchSpecial BatchKind = "special"
	// BatchError is a numbered batch dedicated to incident reprints.
	BatchError BatchKind = "error"
)

const (
	individualLiteral = "INDIVIDUAL"
	specialLiteral    = "SPECIAL"
	errorPrefix       = "ERR-"
)

// BatchKey identifies the batch an order belongs to. The legacy documents mix
// integers and well-known string literals in a single field; this type keeps
// the wire encodings but makes the variants explicit.
type BatchKey struct {
	Kind   BatchKind
	Number int
}

// NumericBatch returns the key for numbered batch n.
func NumericBatch(n int) BatchKey { return BatchKey{Kind: BatchNumeric, Number: n} }

// ErrorBatch returns the key for error batch n.
func ErrorBatch(n int) BatchKey { return BatchKey{Kind: BatchError, Number: n} }

// IndividualBatch is the shared key for individually-fulfilled orders.
func IndividualBatch() BatchKey { return BatchKey{Kind: BatchIndividual} }

// SpecialBatch is the shared key for special orders.
func SpecialBatch() BatchKey { return BatchKey{Kind: BatchSpecial} }

// IsZero reports whether the key is unset.
func (k BatchKey) IsZero() bool { return k.Kind == "" }

// String renders the legacy wire encoding: "7", "INDIVIDUAL", "SPECIAL", "ERR-2".
func (k BatchKey) String() string {
	switch k.Kind {
	case BatchNumeric:
		return strconv.Itoa(k.Number)
	case BatchIndividual:
		return individualLiteral
	case BatchSpecial:
		return specialLiteral
	case BatchError:
		return errorPrefix + strconv.Itoa(k.Number)
	}
	return ""
}

// ParseBatchKey decodes the legacy encoding. An empty or unparseable value
// defaults to numeric batch 1, matching how historical documents without a
// batch field are classified.
func ParseBatchKey(raw string) BatchKey {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return NumericBatch(1)
	case strings.EqualFold(raw, individualLiteral):
		return IndividualBatch()
	case strings.EqualFold(raw, specialLiteral):
		return SpecialBatch()
	case strings.HasPrefix(strings.ToUpper(raw), errorPrefix):
		n, err := strconv.Atoi(raw[len(errorPrefix):])
		if err != nil || n < 1 {
			return ErrorBatch(1)
		}
		return ErrorBatch(n)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return NumericBatch(1)
	}
	return NumericBatch(n)
}

// Less orders batch keys for display: numeric batches descending (most recent
// first), then error batches descending, then INDIVIDUAL, then SPECIAL.
func (k BatchKey) Less(other BatchKey) bool {
	if k.Kind != other.Kind {
		return batchKindRank(k.Kind) < batchKindRank(other.Kind)
	}
	return k.Number > other.Number
}

func batchKindRank(kind BatchKind) int {
	switch kind {
	case BatchNumeric:
		return 0
	case BatchError:
		return 1
	case BatchIndividual:
		return 2
	case BatchSpecial:
		return 3
	}
	return 4
}

// Validate rejects malformed keys before persistence.
func (k BatchKey) Validate() error {
	switch k.Kind {
	case BatchNumeric, BatchError:
		if k.Number < 1 {
			return fmt.Errorf("batch key: %s batch number must be >= 1, got %d", k.Kind, k.Number)
		}
		return nil
	case BatchIndividual, BatchSpecial:
		return nil
	}
	return fmt.Errorf("batch key: unknown kind %q", k.Kind)
}
