package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/odvcencio/gotweb/pkg/object"
)

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// ErrNoSuchRevision indicates a revision expression that names no object,
// including syntactically malformed expressions.
var ErrNoSuchRevision = errors.New("no such revision")

// ErrAmbiguousHash indicates an abbreviated hash matching more than one
// stored object.
var ErrAmbiguousHash = errors.New("ambiguous abbreviated hash")

// Abbreviated hashes shorter than this are never looked up, matching git's
// minimum abbreviation length.
const minAbbrevLen = 4

const fullHashLen = 64

type revOp struct {
	kind byte // '^' or '~'
	n    int
}

// ResolveExpr evaluates a revision expression to an object hash. The base
// may be "HEAD", a ref name or shorthand, a full hash, or a unique
// abbreviated hash; it may carry trailing parent selectors:
//
//	expr^      first parent
//	expr^N     N-th parent (N=0 peels to the commit itself)
//	expr~N     N-th first-parent ancestor
//
// Expressions naming nothing yield ErrNoSuchRevision; an abbreviation
// matching several objects yields ErrAmbiguousHash. I/O failures on present
// objects propagate unchanged.
func (r *Repo) ResolveExpr(expr string) (object.Hash, error) {
	base, ops, err := splitRevOps(expr)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", expr, ErrNoSuchRevision)
	}

	h, err := r.resolveBase(base)
	if err != nil {
		return "", err
	}

	for _, op := range ops {
		h, err = r.applyRevOp(expr, h, op)
		if err != nil {
			return "", err
		}
	}
	return h, nil
}

func (r *Repo) resolveBase(base string) (object.Hash, error) {
	if base == "" {
		return "", fmt.Errorf("resolve: empty name: %w", ErrNoSuchRevision)
	}

	// Refs win over hash forms, like git's rev-parse.
	if _, h, err := r.FindRef(base); err == nil {
		return h, nil
	} else if !errors.Is(err, ErrRefNotFound) {
		return "", err
	}

	if len(base) == fullHashLen && object.IsHex(base) {
		if r.Store.Has(object.Hash(base)) {
			return object.Hash(base), nil
		}
		return "", fmt.Errorf("resolve %q: %w", base, ErrNoSuchRevision)
	}

	if len(base) >= minAbbrevLen && len(base) < fullHashLen && object.IsHex(base) {
		candidates, err := r.Store.AbbrevCandidates(base)
		if err != nil {
			return "", err
		}
		switch len(candidates) {
		case 0:
			return "", fmt.Errorf("resolve %q: %w", base, ErrNoSuchRevision)
		case 1:
			return candidates[0], nil
		default:
			return "", fmt.Errorf("resolve %q: %w", base, ErrAmbiguousHash)
		}
	}

	return "", fmt.Errorf("resolve %q: %w", base, ErrNoSuchRevision)
}

// applyRevOp steps from h through one parent selector. Tags are peeled
// before stepping, as git does for ^ and ~.
func (r *Repo) applyRevOp(expr string, h object.Hash, op revOp) (object.Hash, error) {
	steps := op.n
	if op.kind == '^' && op.n == 0 {
		// ^0: peel to the commit itself.
		_, ch, err := r.commitAt(expr, h)
		if err != nil {
			return "", err
		}
		return ch, nil
	}
	if op.kind == '^' {
		c, _, err := r.commitAt(expr, h)
		if err != nil {
			return "", err
		}
		if op.n > len(c.Parents) {
			return "", fmt.Errorf("resolve %q: parent %d of %s: %w", expr, op.n, h, ErrNoSuchRevision)
		}
		return c.Parents[op.n-1], nil
	}
	for i := 0; i < steps; i++ {
		c, _, err := r.commitAt(expr, h)
		if err != nil {
			return "", err
		}
		if len(c.Parents) == 0 {
			return "", fmt.Errorf("resolve %q: ancestor beyond root at %s: %w", expr, h, ErrNoSuchRevision)
		}
		h = c.Parents[0]
	}
	return h, nil
}

// commitAt loads the commit at h, peeling tag chains. Non-commit targets
// yield ErrNoSuchRevision; missing objects (dangling refs) likewise.
func (r *Repo) commitAt(expr string, h object.Hash) (*object.CommitObj, object.Hash, error) {
	for {
		objType, data, err := r.Store.Read(h)
		if err != nil {
			if isNotExist(err) {
				return nil, "", fmt.Errorf("resolve %q: missing object %s: %w", expr, h, ErrNoSuchRevision)
			}
			return nil, "", err
		}
		switch objType {
		case object.TypeCommit:
			c, err := object.UnmarshalCommit(data)
			if err != nil {
				return nil, "", fmt.Errorf("resolve %q: %w", expr, err)
			}
			return c, h, nil
		case object.TypeTag:
			t, err := object.UnmarshalTag(data)
			if err != nil {
				return nil, "", fmt.Errorf("resolve %q: %w", expr, err)
			}
			h = t.TargetHash
		default:
			return nil, "", fmt.Errorf("resolve %q: %s is a %s, not a commit: %w", expr, h, objType, ErrNoSuchRevision)
		}
	}
}

// splitRevOps separates a revision expression into its base name and
// trailing parent selectors.
func splitRevOps(expr string) (string, []revOp, error) {
	end := strings.IndexAny(expr, "^~")
	if end < 0 {
		return expr, nil, nil
	}

	base := expr[:end]
	var ops []revOp
	i := end
	for i < len(expr) {
		kind := expr[i]
		if kind != '^' && kind != '~' {
			return "", nil, fmt.Errorf("unexpected %q at %d", kind, i)
		}
		i++
		start := i
		for i < len(expr) && expr[i] >= '0' && expr[i] <= '9' {
			i++
		}
		n := 1
		if start != i {
			parsed := 0
			for _, c := range expr[start:i] {
				parsed = parsed*10 + int(c-'0')
				if parsed > 1<<20 {
					return "", nil, fmt.Errorf("selector count out of range")
				}
			}
			n = parsed
		}
		ops = append(ops, revOp{kind: kind, n: n})
	}
	return base, ops, nil
}
