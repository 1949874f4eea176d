package adapter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

func initRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()

	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)

	worktree, err := repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(root, name)), 0o755))
		writeTestFile(t, filepath.Join(root, name), content)
		_, err := worktree.Add(name)
		require.NoError(t, err)
	}

	_, err = worktree.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return root
}

func TestGoGitAdapter_Dirty(t *testing.T) {
	t.Run("clean tree", func(t *testing.T) {
		root := initRepo(t, map[string]string{"A.java": "class A {}\n"})

		dirty, err := NewGoGitAdapter().Dirty(m.Path(root))
		require.NoError(t, err)
		assert.Empty(t, dirty)
	})

	t.Run("modified files are reported sorted", func(t *testing.T) {
		root := initRepo(t, map[string]string{
			"B.java": "class B {}\n",
			"A.java": "class A {}\n",
		})

		writeTestFile(t, filepath.Join(root, "B.java"), "class B { int x; }\n")
		writeTestFile(t, filepath.Join(root, "A.java"), "class A { int y; }\n")

		dirty, err := NewGoGitAdapter().Dirty(m.Path(root))
		require.NoError(t, err)
		assert.Equal(t, []string{"A.java", "B.java"}, dirty)
	})

	t.Run("untracked files are ignored", func(t *testing.T) {
		root := initRepo(t, map[string]string{"A.java": "class A {}\n"})
		writeTestFile(t, filepath.Join(root, "New.java"), "class New {}\n")

		dirty, err := NewGoGitAdapter().Dirty(m.Path(root))
		require.NoError(t, err)
		assert.Empty(t, dirty)
	})

	t.Run("subdirectory finds enclosing repository", func(t *testing.T) {
		root := initRepo(t, map[string]string{"src/A.java": "class A {}\n"})

		dirty, err := NewGoGitAdapter().Dirty(m.Path(filepath.Join(root, "src")))
		require.NoError(t, err)
		assert.Empty(t, dirty)
	})

	t.Run("not a repository", func(t *testing.T) {
		_, err := NewGoGitAdapter().Dirty(m.Path(t.TempDir()))
		assert.ErrorIs(t, err, ErrNotARepository)
	})
}
