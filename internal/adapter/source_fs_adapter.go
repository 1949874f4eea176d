// Package adapter contains the infrastructure adapters of the cleanspring CLI:
// Java and XML parsing and printing, file system access, report storage, git
// and file watching.
package adapter

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// SourceFSAdapter abstracts the file system operations the workflow relies on
// when scanning and rewriting user projects, so the domain can be tested
// without touching the disk.
type SourceFSAdapter interface {
	// Walk traverses root. When recursive is false the implementation limits
	// itself to the root directory.
	Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error

	// DiscoverFiles lists the Java and XML inputs below the given paths,
	// skipping build output and paths matching exclude globs.
	DiscoverFiles(paths []m.Path, exclude []string) ([]m.File, error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// HashFile returns the SHA-256 fingerprint of the file at path.
	HashFile(path m.Path) (string, error)

	// FileInfo returns metadata for a path.
	FileInfo(path m.Path) (os.FileInfo, error)

	// FindProjectRoot walks up from startPath to the directory holding a
	// build file (pom.xml, build.gradle, build.gradle.kts) or .git.
	FindProjectRoot(startPath m.Path) (m.Path, error)

	// WriteFile writes content to a file with the given permissions.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// RelPath returns the relative path from base to target.
	RelPath(base, target m.Path) (m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk without
// leaking the standard-library type into the domain layer.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// ErrProjectRootNotFound is returned when no build file is found above a path.
var ErrProjectRootNotFound = errors.New("project root not found")

var (
	skippedDirs = map[string]bool{".git": true, "target": true, "build": true, "out": true, "node_modules": true, ".gradle": true, ".idea": true}
	rootMarkers = []string{"pom.xml", "build.gradle", "build.gradle.kts", ".git"}
)

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Walk iterates over files under root, optionally descending into subdirectories.
func (a *LocalSourceFSAdapter) Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && path != rootStr && (!recursive || skippedDirs[info.Name()]) {
			return filepath.SkipDir
		}

		return fn(path, info, nil)
	})
}

// DiscoverFiles finds *.java and *.xml files. A path ending in "/..." is
// walked recursively; a plain directory only at its top level; a file is
// taken as is.
func (a *LocalSourceFSAdapter) DiscoverFiles(paths []m.Path, exclude []string) ([]m.File, error) {
	var files []m.File

	seen := map[m.Path]bool{}

	add := func(path string) error {
		kind, ok := fileKind(path)
		if !ok || excluded(path, exclude) || seen[m.Path(path)] {
			return nil
		}

		hash, err := a.HashFile(m.Path(path))
		if err != nil {
			return fmt.Errorf("hash %s: %w", path, err)
		}

		seen[m.Path(path)] = true
		files = append(files, m.File{Path: m.Path(path), Kind: kind, Hash: hash})

		return nil
	}

	for _, p := range paths {
		root, recursive := splitRecursive(string(p))

		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}

		if !info.IsDir() {
			if err := add(root); err != nil {
				return nil, err
			}

			continue
		}

		err = a.Walk(m.Path(root), recursive, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				return nil
			}

			return add(path)
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	return files, nil
}

func splitRecursive(p string) (string, bool) {
	if p == "./..." || p == "..." {
		return ".", true
	}

	if strings.HasSuffix(p, "/...") {
		return strings.TrimSuffix(p, "/..."), true
	}

	return p, false
}

func fileKind(path string) (m.FileKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".java":
		return m.FileJava, true
	case ".xml":
		return m.FileXML, true
	}

	return "", false
}

func excluded(path string, patterns []string) bool {
	base := filepath.Base(path)

	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}

		if ok, _ := filepath.Match(pattern, filepath.ToSlash(path)); ok {
			return true
		}

		if strings.Contains(filepath.ToSlash(path), "/"+strings.Trim(pattern, "/")+"/") {
			return true
		}
	}

	return false
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// FindProjectRoot searches for a build file walking up the directory tree.
func (a *LocalSourceFSAdapter) FindProjectRoot(startPath m.Path) (m.Path, error) {
	dir := string(startPath)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return m.Path(dir), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w above %s", ErrProjectRootNotFound, startPath)
		}

		dir = parent
	}
}

// WriteFile writes content to a file, keeping the mode of an existing file.
func (a *LocalSourceFSAdapter) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	if info, err := os.Stat(string(path)); err == nil {
		perm = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return os.WriteFile(string(path), content, perm)
}

// RelPath returns the relative path from base to target.
func (a *LocalSourceFSAdapter) RelPath(base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
