package object

import "fmt"

// Obj is an object header as parsed by a Walker. Only the fields needed for
// graph traversal are retained; commit messages and tag payloads are
// dropped after parsing.
type Obj struct {
	ID   Hash
	Type ObjectType

	// Commit headers, set when Type == TypeCommit.
	TreeHash Hash
	Parents  []Hash

	// Tag target, set when Type == TypeTag.
	Target Hash
}

// Walker loads and caches object headers for the duration of one traversal.
// A Walker is scoped to a single resolution: acquire it, defer Close, and
// never share it across goroutines.
type Walker struct {
	store *Store
	objs  map[Hash]*Obj
}

// NewWalker returns a Walker over the store.
func (s *Store) NewWalker() *Walker {
	return &Walker{
		store: s,
		objs:  make(map[Hash]*Obj),
	}
}

// Close releases the walker's parse cache. The walker must not be used
// after Close.
func (w *Walker) Close() {
	w.objs = nil
}

// ParseAny loads the object header for the given hash, caching the result.
// A missing object yields an error satisfying errors.Is(err, fs.ErrNotExist).
func (w *Walker) ParseAny(h Hash) (*Obj, error) {
	if cached, ok := w.objs[h]; ok {
		return cached, nil
	}

	objType, data, err := w.store.Read(h)
	if err != nil {
		return nil, err
	}

	o := &Obj{ID: h, Type: objType}
	switch objType {
	case TypeCommit:
		c, err := UnmarshalCommit(data)
		if err != nil {
			return nil, fmt.Errorf("walker parse %s: %w", h, err)
		}
		o.TreeHash = c.TreeHash
		o.Parents = c.Parents
	case TypeTag:
		t, err := UnmarshalTag(data)
		if err != nil {
			return nil, fmt.Errorf("walker parse %s: %w", h, err)
		}
		o.Target = t.TargetHash
	case TypeTree, TypeBlob:
		// Headers carry nothing beyond the type.
	default:
		return nil, fmt.Errorf("walker parse %s: unsupported object type %q", h, objType)
	}

	w.objs[h] = o
	return o, nil
}

// Peel follows a tag chain until reaching a non-tag object.
func (w *Walker) Peel(o *Obj) (*Obj, error) {
	for o.Type == TypeTag {
		next, err := w.ParseAny(o.Target)
		if err != nil {
			return nil, fmt.Errorf("peel %s: %w", o.ID, err)
		}
		o = next
	}
	return o, nil
}

// FirstParent returns the first parent of a commit, or false for a root
// commit.
func (w *Walker) FirstParent(o *Obj) (Hash, bool) {
	if o.Type != TypeCommit || len(o.Parents) == 0 {
		return "", false
	}
	return o.Parents[0], true
}
