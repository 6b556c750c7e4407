package ledger

import "errors"

// Failure taxonomy of the mutation engine. Operations wrap these with a
// human-readable message; callers classify with errors.Is.
var (
	// ErrValidation marks malformed input: missing fields, non-positive
	// amounts, identical transfer endpoints.
	ErrValidation = errors.New("validasi gagal")

	// ErrConstraint marks operations the current state forbids:
	// deleting an account with transactions, transferring more than the
	// source balance.
	ErrConstraint = errors.New("operasi ditolak")

	// ErrNotFound marks references to unknown account, transaction or
	// budget ids.
	ErrNotFound = errors.New("data tidak ditemukan")

	// ErrPersistence marks a batch the durable store failed to commit.
	// Local state is unchanged when it is returned.
	ErrPersistence = errors.New("penyimpanan gagal")
)
