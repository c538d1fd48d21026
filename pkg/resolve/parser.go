package resolve

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/odvcencio/gotweb/pkg/object"
	"github.com/odvcencio/gotweb/pkg/repo"
)

// Parser resolves browser-style URL paths of the form
// "<revision expression>/<in-tree path>" against one repository. Revision
// names may themselves contain slashes, so the split point is found by
// scanning: segments are consumed left to right until the accumulated
// prefix resolves, and the remainder becomes the in-tree path. The compare form "old..new" and the
// first-parent form "rev^!" are recognized while no old side has been
// captured yet.
//
// A Parser holds no mutable state; concurrent Parse calls are independent.
type Parser struct {
	repo     *repo.Repo
	access   Access
	cache    *VisibilityCache
	redirect BranchRedirect
}

// NewParser builds a Parser from its collaborators. The visibility cache
// and redirect lookup must be safe for concurrent use.
func NewParser(r *repo.Repo, access Access, cache *VisibilityCache, redirect BranchRedirect) *Parser {
	return &Parser{
		repo:     r,
		access:   access,
		cache:    cache,
		redirect: redirect,
	}
}

// ParserFor assembles a Parser with the repository's configured access
// policy and branch redirects and a fresh visibility cache.
func ParserFor(r *repo.Repo) (*Parser, error) {
	access, err := AccessFor(r)
	if err != nil {
		return nil, err
	}
	redirect, err := NewConfigRedirect(r)
	if err != nil {
		return nil, err
	}
	return NewParser(r, access, NewVisibilityCache(r), redirect), nil
}

// outcome is the result of processing one path segment. Keeping the three
// cases explicit separates "this prefix alone didn't resolve, keep
// scanning" from the genuinely terminal rejections.
type outcome int

const (
	outContinue outcome = iota // prefix unresolved, try the next segment
	outReject                  // input is invalid or invisible, stop
	outResolved                // terminal: a Result was built
)

// scanState is the parser state carried across segments of one Parse call.
type scanState struct {
	input    string // full path being parsed, as typed
	consumed string // accumulated candidate revision name
	first    bool   // no separator precedes the next appended segment

	// Set once a compare marker captured an old side. oldRev keeps the
	// original typed name for path-offset arithmetic; oldRevRedirected
	// carries the redirected name into the Result. Collapsing the two
	// breaks either URL round-tripping or redirect correctness.
	oldRev           *Revision
	oldRevRedirected *Revision
}

// Parse resolves a URL path into a Result, or (nil, nil) when the path
// matches nothing the accessor may see. Malformed input, unresolvable and
// ambiguous names, and invisible objects are deliberately indistinguishable
// here; only storage failures surface as errors.
func (p *Parser) Parse(path string) (*Result, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil, nil
	}

	parts := strings.Split(path, "/")
	for _, part := range parts {
		if part == "" {
			// No valid revision or path contains empty segments, so a
			// doubled or trailing separator invalidates the whole input
			// even when some prefix of it would resolve.
			return nil, nil
		}
	}

	w := p.repo.Store.NewWalker()
	defer w.Close()

	st := &scanState{input: path, first: true}
	for _, part := range parts {
		res, out, err := p.step(st, w, part)
		if err != nil {
			return nil, err
		}
		switch out {
		case outReject:
			return nil, nil
		case outResolved:
			return res, nil
		}
	}
	return nil, nil
}

// step processes one path segment against the scan state.
func (p *Parser) step(st *scanState, w *object.Walker, part string) (*Result, outcome, error) {
	if !st.first {
		st.consumed += "/"
	}

	if st.oldRev == nil {
		dots := strings.Index(part, "..")
		firstParent := strings.Index(part, "^!")
		switch {
		case dots == 0 || firstParent == 0:
			return nil, outReject, nil
		case dots > 0:
			out, err := p.captureOld(st, w, part[:dots])
			if out != outContinue || err != nil {
				return nil, out, err
			}
			part = part[dots+2:]
		case firstParent > 0:
			if firstParent != len(part)-2 {
				// ^! is only valid as the trailing two characters.
				return nil, outReject, nil
			}
			return p.resolveFirstParent(st, w, part[:len(part)-2])
		}
	}

	st.consumed += part
	name := st.consumed
	if !isValidRevision(name) {
		return nil, outReject, nil
	}
	nameRedirected := p.redirected(name)

	obj, err := p.resolveExpr(w, nameRedirected)
	if err != nil {
		return nil, 0, err
	}
	if obj == nil {
		// The true revision name may extend into later segments.
		st.first = false
		return nil, outContinue, nil
	}

	var pathStart int
	if st.oldRev == nil {
		pathStart = len(name) // foo
	} else {
		// foo..bar: the offset counts the old name as originally typed,
		// even though resolution used the redirected spelling.
		pathStart = len(st.oldRev.Name) + 2 + len(name)
	}

	rev, err := Peel(nameRedirected, obj, w)
	if err != nil {
		return nil, 0, err
	}
	result := &Result{
		Revision:    rev,
		OldRevision: st.oldRevRedirected,
		Path:        trimPath(st.input[pathStart:]),
	}
	return p.finish(result)
}

// captureOld resolves the old side of a compare expression and resets the
// accumulator for the new side.
func (p *Parser) captureOld(st *scanState, w *object.Walker, prefix string) (outcome, error) {
	oldName := st.consumed + prefix
	oldNameRedirect := p.redirected(oldName)
	if !isValidRevision(oldNameRedirect) {
		return outReject, nil
	}

	obj, err := p.resolveExpr(w, oldNameRedirect)
	if err != nil {
		return 0, err
	}
	if obj == nil {
		return outReject, nil
	}

	oldRev, err := Peel(oldName, obj, w)
	if err != nil {
		return 0, err
	}
	oldRevRedirected, err := Peel(oldNameRedirect, obj, w)
	if err != nil {
		return 0, err
	}

	st.oldRev = &oldRev
	st.oldRevRedirected = &oldRevRedirected
	st.consumed = ""
	return outContinue, nil
}

// resolveFirstParent handles the terminal rev^! form: the revision must
// peel to a commit, and the old side becomes its first parent, or the Null
// sentinel for a root commit.
func (p *Parser) resolveFirstParent(st *scanState, w *object.Walker, prefix string) (*Result, outcome, error) {
	name := st.consumed + prefix
	if !isValidRevision(name) {
		return nil, outReject, nil
	}
	nameRedirected := p.redirected(name)

	obj, err := p.resolveExpr(w, nameRedirected)
	if err != nil {
		return nil, 0, err
	}
	if obj == nil {
		return nil, outReject, nil
	}
	commit, err := w.Peel(obj)
	if err != nil {
		return nil, 0, err
	}
	if commit.Type != object.TypeCommit {
		// Not a commit, ^! is invalid.
		return nil, outReject, nil
	}

	old := Null
	if parent, ok := w.FirstParent(commit); ok {
		old = Revision{Name: nameRedirected + "^", ID: parent, Kind: object.TypeCommit}
	}

	result := &Result{
		Revision:    Peeled(nameRedirected, commit),
		OldRevision: &old,
		Path:        trimPath(st.input[len(name)+2:]),
	}
	return p.finish(result)
}

// finish applies the visibility check and converts its verdict to an
// outcome.
func (p *Parser) finish(result *Result) (*Result, outcome, error) {
	visible, err := p.isVisible(result)
	if err != nil {
		return nil, 0, err
	}
	if !visible {
		return nil, outReject, nil
	}
	return result, outResolved, nil
}

// resolveExpr resolves a revision expression to a parsed object, folding
// unresolvable names, ambiguous abbreviations, syntax errors, and dangling
// refs into nil. Ambiguous abbreviations are a documented limitation: they
// read as absent rather than prompting for a choice.
func (p *Parser) resolveExpr(w *object.Walker, name string) (*object.Obj, error) {
	id, err := p.repo.ResolveExpr(name)
	if err != nil {
		if errors.Is(err, repo.ErrNoSuchRevision) || errors.Is(err, repo.ErrAmbiguousHash) {
			return nil, nil
		}
		return nil, err
	}
	obj, err := w.ParseAny(id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil // ref exists but its object is gone
		}
		return nil, err
	}
	return obj, nil
}

// redirected replaces the ref-name part of a revision expression with its
// redirect target, preserving any trailing operator suffix. Applied fresh
// at every resolution attempt, never cached across them.
func (p *Parser) redirected(expr string) string {
	ref := refPart(expr)
	if target, ok := p.redirect.RedirectFor(ref); ok {
		return target + expr[len(ref):]
	}
	return expr
}

// isVisible gates a candidate Result on access policy. A name whose ref
// part is a real ref is trivially visible; anything else needs to be
// reachable from the accessor's readable tips, and a compare range needs
// both endpoints reachable.
func (p *Parser) isVisible(result *Result) (bool, error) {
	maybeRef := result.Revision.Name
	if i := strings.IndexAny(maybeRef, "^~"); i >= 0 {
		maybeRef = maybeRef[:i]
	}
	if _, _, err := p.repo.FindRef(maybeRef); err == nil {
		// Name contains a real ref; skip the reachability check.
		return true, nil
	} else if !errors.Is(err, repo.ErrRefNotFound) {
		return false, err
	}

	ok, err := p.cache.IsVisible(p.access, result.Revision.ID)
	if err != nil || !ok {
		return false, err
	}
	if result.OldRevision != nil && !result.OldRevision.IsNull() {
		return p.cache.IsRangeVisible(p.access, result.OldRevision.ID, result.Revision.ID)
	}
	return true, nil
}

// isValidRevision rejects uncommon but valid revision expressions that are
// either unsupported or represented differently in URLs.
func isValidRevision(rev string) bool {
	return !strings.Contains(rev, ":") &&
		!strings.Contains(rev, "^{") &&
		!strings.Contains(rev, "@{") &&
		rev != "@"
}

func trimPath(rest string) string {
	return strings.TrimPrefix(rest, "/")
}
