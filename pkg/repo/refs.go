package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/odvcencio/gotweb/pkg/object"
)

// ErrRefNotFound indicates that no ref matched a name or shorthand.
var ErrRefNotFound = errors.New("ref not found")

// ListRefs lists references under .got/refs. Names are returned fully
// qualified, e.g. "refs/heads/main", "refs/tags/v1".
func (r *Repo) ListRefs(prefix string) (map[string]object.Hash, error) {
	root := filepath.Join(r.GotDir, "refs")
	dir := root
	if strings.TrimSpace(prefix) != "" {
		dir = filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(prefix, "refs/")))
	}

	refs := make(map[string]object.Hash)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(path, ".lock") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := "refs/" + filepath.ToSlash(rel)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		refs[name] = object.Hash(strings.TrimSpace(string(data)))
		return nil
	})
	if os.IsNotExist(err) {
		return refs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return refs, nil
}

// FindRef resolves a ref by exact name or shorthand and returns the fully
// qualified name with its target hash. Search order:
//
//  1. "HEAD" follows the symref; a detached HEAD resolves to itself.
//  2. Names starting with "refs/" are read verbatim.
//  3. Otherwise "refs/heads/<name>" then "refs/tags/<name>".
//
// A name that matches nothing yields ErrRefNotFound.
func (r *Repo) FindRef(name string) (string, object.Hash, error) {
	if name == "" || !validRefPath(name) {
		return "", "", fmt.Errorf("find ref: %w", ErrRefNotFound)
	}

	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			if os.IsNotExist(err) {
				return "", "", fmt.Errorf("find ref HEAD: %w", ErrRefNotFound)
			}
			return "", "", err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.FindRef(head)
		}
		// Detached HEAD holds a raw hash.
		return "HEAD", object.Hash(head), nil
	}

	var candidates []string
	if strings.HasPrefix(name, "refs/") {
		candidates = []string{name}
	} else {
		candidates = []string{"refs/heads/" + name, "refs/tags/" + name}
	}

	for _, full := range candidates {
		h, err := r.readRefFile(full)
		if err != nil {
			if isNoRefFile(err) {
				continue
			}
			return "", "", fmt.Errorf("find ref %q: %w", name, err)
		}
		return full, h, nil
	}
	return "", "", fmt.Errorf("find ref %q: %w", name, ErrRefNotFound)
}

// isNoRefFile reports whether a ref-file read failed because no such ref
// exists, as opposed to a storage failure. Slashed ref names make this more
// than a missing-file check: with a branch "feature/x" on disk, the name
// "feature" is a directory, and "feature/x/deeper" descends through a plain
// file.
func isNoRefFile(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, syscall.EISDIR) ||
		errors.Is(err, syscall.ENOTDIR)
}

// validRefPath rejects names whose path segments would escape .got/refs
// when read as a file path.
func validRefPath(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return !strings.ContainsAny(name, "\\\x00")
}

func (r *Repo) readRefFile(full string) (object.Hash, error) {
	data, err := os.ReadFile(filepath.Join(r.GotDir, filepath.FromSlash(full)))
	if err != nil {
		return "", err
	}
	return object.Hash(strings.TrimSpace(string(data))), nil
}
