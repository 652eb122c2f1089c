package domain

// DiffOpKind is the edit-script operation type.
type DiffOpKind string

const (
	// DiffEqual marks lines present in both revisions.
	DiffEqual DiffOpKind = "equal"

	// DiffInsert marks lines added in the newer revision.
	DiffInsert DiffOpKind = "insert"

	// DiffDelete marks lines removed from the older revision.
	DiffDelete DiffOpKind = "delete"

	// DiffReplace marks lines rewritten between revisions.
	DiffReplace DiffOpKind = "replace"
)

// DiffOp is one step of a line-level edit script between two revisions.
// Used for audit and rollback review.
type DiffOp struct {
	// Kind is the operation.
	Kind DiffOpKind

	// FromStart and FromEnd bound the affected lines in the older
	// revision (half-open, zero-based).
	FromStart int
	FromEnd   int

	// ToStart and ToEnd bound the affected lines in the newer revision.
	ToStart int
	ToEnd   int

	// Lines is the affected text: the new lines for insert/replace,
	// the removed lines for delete, empty for equal.
	Lines []string
}
