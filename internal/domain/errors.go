package domain

import "errors"

var (
	// ErrContractViolation is returned when a rewrite meets a tree shape it
	// relies on not being there. The transaction is rolled back.
	ErrContractViolation = errors.New("structural contract violated")

	// ErrDirtyWorktree is returned by fix when clean git state is required.
	ErrDirtyWorktree = errors.New("worktree has uncommitted changes")

	// ErrIncompleteIndex is returned by fix when some Java sources failed to parse.
	ErrIncompleteIndex = errors.New("java sources failed to parse; references would be incomplete")
)
