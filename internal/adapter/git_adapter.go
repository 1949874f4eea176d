package adapter

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// ErrNotARepository is returned when the project is not inside a git work tree.
var ErrNotARepository = errors.New("not a git repository")

// GitAdapter inspects the work tree a fix is about to rewrite.
type GitAdapter interface {
	// Dirty lists the paths with uncommitted changes below root.
	Dirty(root m.Path) ([]string, error)
}

// GoGitAdapter implements GitAdapter with go-git.
type GoGitAdapter struct{}

// NewGoGitAdapter constructs a GoGitAdapter.
func NewGoGitAdapter() *GoGitAdapter {
	return &GoGitAdapter{}
}

// Dirty opens the repository around root and reports modified, added or
// deleted files. Untracked files are ignored.
func (a *GoGitAdapter) Dirty(root m.Path) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(string(root), &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, root)
	}

	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", root, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}

	var dirty []string

	for path, st := range status {
		if st.Worktree == git.Untracked && st.Staging == git.Untracked {
			continue
		}

		if st.Worktree != git.Unmodified || st.Staging != git.Unmodified {
			dirty = append(dirty, path)
		}
	}

	sort.Strings(dirty)

	return dirty, nil
}
