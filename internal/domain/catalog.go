package domain

// Product is a catalog entry keyed by its unique grade identifier.
// A nil Division or Category matches any requested value.
type Product struct {
	ID                int64
	Grade             string
	Division          *string
	Category          *string
	CompatibleProcess *string
	Metal             *string
	TempMinC          *float64
	TempMaxC          *float64
	Notes             string
}

// RowOrder selects how per-grade evidence rows are listed.
type RowOrder int

const (
	// NewestFirst lists the most recently stored rows first.
	NewestFirst RowOrder = iota
	// StorageOrder lists rows in insertion order.
	StorageOrder
)

// RnDRecord holds engineering constraints for a grade. Nil text columns were
// stored as NULL.
type RnDRecord struct {
	ID          int64
	Grade       string
	SpecSummary *string
	Flags       *string
	Constraints *string
}

// TrialRecord is the outcome of field-testing a grade for a customer.
type TrialRecord struct {
	ID           int64
	CustomerName *string
	Grade        string
	Conditions   *string
	Outcome      *string // success, mixed, fail
	Notes        *string
}

// ComplaintRecord is negative evidence reported against a grade.
type ComplaintRecord struct {
	ID           int64
	CustomerName *string
	Grade        string
	Conditions   *string
	Issue        *string
	Severity     *string
}
