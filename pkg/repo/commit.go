package repo

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/odvcencio/gotweb/pkg/object"
)

// CommitFiles writes the given files as blobs and nested trees and creates
// a commit on top of them. files maps slash-separated repository paths to
// contents. The commit is stored but no ref is moved; callers update refs
// explicitly.
func (r *Repo) CommitFiles(files map[string][]byte, message, author string, parents ...object.Hash) (object.Hash, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("commit files: no files given")
	}

	treeHash, err := r.writeTreeFor(files)
	if err != nil {
		return "", fmt.Errorf("commit files: %w", err)
	}

	commit := &object.CommitObj{
		TreeHash:  treeHash,
		Parents:   parents,
		Author:    author,
		Timestamp: time.Now().Unix(),
		Message:   message,
	}
	h, err := r.Store.WriteCommit(commit)
	if err != nil {
		return "", fmt.Errorf("commit files: %w", err)
	}
	return h, nil
}

// writeTreeFor builds the nested tree objects for a flat path->content map
// and returns the root tree hash.
func (r *Repo) writeTreeFor(files map[string][]byte) (object.Hash, error) {
	type dirNode struct {
		files map[string][]byte
		dirs  map[string]*dirNode
	}
	newNode := func() *dirNode {
		return &dirNode{files: make(map[string][]byte), dirs: make(map[string]*dirNode)}
	}

	root := newNode()
	for path, content := range files {
		path = strings.Trim(path, "/")
		if path == "" {
			return "", fmt.Errorf("empty file path")
		}
		parts := strings.Split(path, "/")
		node := root
		for _, dir := range parts[:len(parts)-1] {
			child, ok := node.dirs[dir]
			if !ok {
				child = newNode()
				node.dirs[dir] = child
			}
			node = child
		}
		node.files[parts[len(parts)-1]] = content
	}

	var write func(n *dirNode) (object.Hash, error)
	write = func(n *dirNode) (object.Hash, error) {
		tree := &object.TreeObj{}
		for name, content := range n.files {
			blobHash, err := r.Store.WriteBlob(&object.Blob{Data: content})
			if err != nil {
				return "", err
			}
			tree.Entries = append(tree.Entries, object.TreeEntry{
				Name:     name,
				Mode:     object.TreeModeFile,
				BlobHash: blobHash,
			})
		}
		for name, child := range n.dirs {
			subHash, err := write(child)
			if err != nil {
				return "", err
			}
			tree.Entries = append(tree.Entries, object.TreeEntry{
				Name:        name,
				IsDir:       true,
				Mode:        object.TreeModeDir,
				SubtreeHash: subHash,
			})
		}
		sort.Slice(tree.Entries, func(i, j int) bool {
			return tree.Entries[i].Name < tree.Entries[j].Name
		})
		return r.Store.WriteTree(tree)
	}

	return write(root)
}
