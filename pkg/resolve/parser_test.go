package resolve

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/gotweb/pkg/object"
	"github.com/odvcencio/gotweb/pkg/repo"
)

func newTestRepo(t *testing.T) *repo.Repo {
	t.Helper()
	r, err := repo.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func commitFile(t *testing.T, r *repo.Repo, path, content string, parents ...object.Hash) object.Hash {
	t.Helper()
	h, err := r.CommitFiles(map[string][]byte{path: []byte(content)}, "commit "+content, "tester", parents...)
	if err != nil {
		t.Fatalf("CommitFiles: %v", err)
	}
	return h
}

// commitChain builds c1 <- c2 <- c3 and points refs/heads/main at c3.
func commitChain(t *testing.T, r *repo.Repo) (object.Hash, object.Hash, object.Hash) {
	t.Helper()
	c1 := commitFile(t, r, "a.txt", "one")
	c2 := commitFile(t, r, "a.txt", "two", c1)
	c3 := commitFile(t, r, "a.txt", "three", c2)
	if err := r.UpdateRef("refs/heads/main", c3); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	return c1, c2, c3
}

func openParser(t *testing.T, r *repo.Repo) *Parser {
	t.Helper()
	return NewParser(r, AllowAll{}, NewVisibilityCache(r), NoRedirect{})
}

func mustParse(t *testing.T, p *Parser, path string) *Result {
	t.Helper()
	res, err := p.Parse(path)
	if err != nil {
		t.Fatalf("Parse(%q): %v", path, err)
	}
	if res == nil {
		t.Fatalf("Parse(%q) = nil, want a result", path)
	}
	return res
}

func mustNotFound(t *testing.T, p *Parser, path string) {
	t.Helper()
	res, err := p.Parse(path)
	if err != nil {
		t.Fatalf("Parse(%q): %v", path, err)
	}
	if res != nil {
		t.Fatalf("Parse(%q) = %s, want not found", path, res)
	}
}

func TestParseRefWithPath(t *testing.T) {
	r := newTestRepo(t)
	_, _, c3 := commitChain(t, r)
	p := openParser(t, r)

	res := mustParse(t, p, "main/a.txt")
	if res.Revision.Name != "main" || res.Revision.ID != c3 {
		t.Fatalf("revision = %s, want main %s", res.Revision, c3)
	}
	if res.Revision.Kind != object.TypeCommit {
		t.Fatalf("kind = %s, want commit", res.Revision.Kind)
	}
	if res.OldRevision != nil {
		t.Fatalf("oldRevision = %v, want nil", res.OldRevision)
	}
	if res.Path != "a.txt" {
		t.Fatalf("path = %q, want a.txt", res.Path)
	}

	res = mustParse(t, p, "main")
	if res.Revision.ID != c3 || res.Path != "" {
		t.Fatalf("bare ref = %s, want main with empty path", res)
	}
}

func TestParseSlashedRefName(t *testing.T) {
	r := newTestRepo(t)
	_, _, c3 := commitChain(t, r)
	if err := r.CreateBranch("feature/x", c3); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	p := openParser(t, r)

	res := mustParse(t, p, "feature/x/docs/guide.md")
	if res.Revision.Name != "feature/x" {
		t.Fatalf("revision = %q, want feature/x", res.Revision.Name)
	}
	if res.Path != "docs/guide.md" {
		t.Fatalf("path = %q, want docs/guide.md", res.Path)
	}
}

func TestParseEmptyAndMalformedPaths(t *testing.T) {
	r := newTestRepo(t)
	commitChain(t, r)
	p := openParser(t, r)

	// Empty segments invalidate the whole input even when a prefix of it
	// resolves on its own.
	for _, path := range []string{"", "/", "a//b", "main//a.txt", "main//", "main/a.txt/"} {
		mustNotFound(t, p, path)
	}
}

func TestParseCompare(t *testing.T) {
	r := newTestRepo(t)
	c1, _, c3 := commitChain(t, r)
	if err := r.CreateBranch("old", c1); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	p := openParser(t, r)

	res := mustParse(t, p, "old..main/a.txt")
	if res.Revision.Name != "main" || res.Revision.ID != c3 {
		t.Fatalf("revision = %s, want main %s", res.Revision, c3)
	}
	if res.OldRevision == nil || res.OldRevision.Name != "old" || res.OldRevision.ID != c1 {
		t.Fatalf("oldRevision = %v, want old %s", res.OldRevision, c1)
	}
	if res.Path != "a.txt" {
		t.Fatalf("path = %q, want a.txt", res.Path)
	}
}

func TestParseCompareSlashedNewSide(t *testing.T) {
	r := newTestRepo(t)
	c1, _, c3 := commitChain(t, r)
	if err := r.CreateBranch("old", c1); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if err := r.CreateBranch("feature/x", c3); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	p := openParser(t, r)

	res := mustParse(t, p, "old..feature/x/docs/a.txt")
	if res.Revision.Name != "feature/x" {
		t.Fatalf("revision = %q, want feature/x", res.Revision.Name)
	}
	if res.OldRevision == nil || res.OldRevision.Name != "old" {
		t.Fatalf("oldRevision = %v, want old", res.OldRevision)
	}
	if res.Path != "docs/a.txt" {
		t.Fatalf("path = %q, want docs/a.txt", res.Path)
	}
}

func TestParseCompareMalformed(t *testing.T) {
	r := newTestRepo(t)
	commitChain(t, r)
	p := openParser(t, r)

	// Leading marker, unresolvable old side, and empty new side all fail.
	for _, path := range []string{"..main", "..main/a.txt", "nope..main", "a../f", "main..", "main../a.txt"} {
		mustNotFound(t, p, path)
	}
}

func TestParseFirstParent(t *testing.T) {
	r := newTestRepo(t)
	_, c2, c3 := commitChain(t, r)
	p := openParser(t, r)

	res := mustParse(t, p, "main^!/a.txt")
	if res.Revision.Name != "main" || res.Revision.ID != c3 {
		t.Fatalf("revision = %s, want main %s", res.Revision, c3)
	}
	if res.OldRevision == nil || res.OldRevision.Name != "main^" || res.OldRevision.ID != c2 {
		t.Fatalf("oldRevision = %v, want main^ %s", res.OldRevision, c2)
	}
	if res.Path != "a.txt" {
		t.Fatalf("path = %q, want a.txt", res.Path)
	}
}

func TestParseFirstParentOfRoot(t *testing.T) {
	r := newTestRepo(t)
	c1, _, _ := commitChain(t, r)
	if err := r.CreateBranch("root", c1); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	p := openParser(t, r)

	res := mustParse(t, p, "root^!")
	if res.Revision.ID != c1 {
		t.Fatalf("revision = %s, want %s", res.Revision, c1)
	}
	if res.OldRevision == nil || !res.OldRevision.IsNull() {
		t.Fatalf("oldRevision = %v, want the null sentinel", res.OldRevision)
	}
	if res.Path != "" {
		t.Fatalf("path = %q, want empty", res.Path)
	}
}

func TestParseFirstParentMalformed(t *testing.T) {
	r := newTestRepo(t)
	commitChain(t, r)
	p := openParser(t, r)

	for _, path := range []string{"^!", "^!/a.txt", "ma^!in", "main^!x", "nope^!"} {
		mustNotFound(t, p, path)
	}
}

func TestParseFirstParentOfNonCommit(t *testing.T) {
	r := newTestRepo(t)
	_, _, c3 := commitChain(t, r)
	commit, err := r.Store.ReadCommit(c3)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	p := openParser(t, r)

	// A tree hash resolves but cannot take ^!.
	mustNotFound(t, p, string(commit.TreeHash)+"^!")
}

func TestParseHashRevisions(t *testing.T) {
	r := newTestRepo(t)
	c1, _, _ := commitChain(t, r)
	p := openParser(t, r)

	res := mustParse(t, p, string(c1)+"/a.txt")
	if res.Revision.Name != string(c1) || res.Revision.ID != c1 {
		t.Fatalf("revision = %s, want %s", res.Revision, c1)
	}
	if res.Path != "a.txt" {
		t.Fatalf("path = %q, want a.txt", res.Path)
	}

	res = mustParse(t, p, string(c1[:10]))
	if res.Revision.ID != c1 {
		t.Fatalf("abbrev = %s, want %s", res.Revision, c1)
	}
}

func TestParseAmbiguousAbbrevIsNotFound(t *testing.T) {
	r := newTestRepo(t)
	commitChain(t, r)

	// Plant two object files sharing a prefix no real object uses; the
	// candidate scan never reads their content.
	dir := filepath.Join(r.GotDir, "objects", "00")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for _, tail := range []string{"aa", "bb"} {
		name := strings.Repeat("0", 60) + tail
		if err := os.WriteFile(filepath.Join(dir, name[2:]), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	p := openParser(t, r)
	mustNotFound(t, p, "000000")
}

func TestParseUnreachableCommitIsNotFound(t *testing.T) {
	r := newTestRepo(t)
	c1, _, _ := commitChain(t, r)
	orphan := commitFile(t, r, "z.txt", "unpublished")
	p := openParser(t, r)

	// Reachable from main, visible even though no ref names it directly.
	res := mustParse(t, p, string(c1))
	if res.Revision.ID != c1 {
		t.Fatalf("revision = %s, want %s", res.Revision, c1)
	}

	mustNotFound(t, p, string(orphan))
}

func TestParseHiddenRefGatesHashLookups(t *testing.T) {
	r := newTestRepo(t)
	commitChain(t, r)
	secret := commitFile(t, r, "s.txt", "secret")
	if err := r.CreateBranch("secret", secret); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	hidden := NewParser(r, HidePrefixes{Prefixes: []string{"refs/heads/secret"}}, NewVisibilityCache(r), NoRedirect{})
	mustNotFound(t, hidden, string(secret))

	open := openParser(t, r)
	res := mustParse(t, open, string(secret))
	if res.Revision.ID != secret {
		t.Fatalf("revision = %s, want %s", res.Revision, secret)
	}
}

func TestParseInvalidRevisionNames(t *testing.T) {
	r := newTestRepo(t)
	commitChain(t, r)
	p := openParser(t, r)

	for _, path := range []string{"@", "a:b", "main^{tree}", "main@{1}", "main@{1}/a.txt"} {
		mustNotFound(t, p, path)
	}
}

func TestParseAnnotatedTagPeelsToCommit(t *testing.T) {
	r := newTestRepo(t)
	_, _, c3 := commitChain(t, r)
	if _, err := r.CreateAnnotatedTag("v1", c3, "tester", "release", false); err != nil {
		t.Fatalf("CreateAnnotatedTag: %v", err)
	}
	p := openParser(t, r)

	res := mustParse(t, p, "v1/a.txt")
	if res.Revision.Name != "v1" {
		t.Fatalf("revision = %q, want v1", res.Revision.Name)
	}
	if res.Revision.ID != c3 || res.Revision.Kind != object.TypeCommit {
		t.Fatalf("revision = %s, want peeled commit %s", res.Revision, c3)
	}
	if res.Path != "a.txt" {
		t.Fatalf("path = %q, want a.txt", res.Path)
	}
}

func TestParseDanglingRefIsNotFound(t *testing.T) {
	r := newTestRepo(t)
	commitChain(t, r)
	gone := object.HashBytes([]byte("never stored"))
	if err := r.UpdateRef("refs/heads/dangling", gone); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	p := openParser(t, r)

	mustNotFound(t, p, "dangling/a.txt")
}

func TestParseStorageFailurePropagates(t *testing.T) {
	r := newTestRepo(t)
	_, _, c3 := commitChain(t, r)

	// Corrupt the commit's object file in place; reading it is no longer
	// a clean miss.
	h := string(c3)
	path := filepath.Join(r.GotDir, "objects", h[:2], h[2:])
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := openParser(t, r)
	if _, err := p.Parse("main/a.txt"); err == nil {
		t.Fatalf("Parse over corrupt storage should fail")
	}
}

func TestParseRedirect(t *testing.T) {
	r := newTestRepo(t)
	_, c2, c3 := commitChain(t, r)
	if err := r.SetRedirect("master", "main"); err != nil {
		t.Fatalf("SetRedirect: %v", err)
	}
	p, err := ParserFor(r)
	if err != nil {
		t.Fatalf("ParserFor: %v", err)
	}

	// The result carries the redirected name; the path offset still counts
	// the name as typed.
	res := mustParse(t, p, "master/a.txt")
	if res.Revision.Name != "main" || res.Revision.ID != c3 {
		t.Fatalf("revision = %s, want main %s", res.Revision, c3)
	}
	if res.Path != "a.txt" {
		t.Fatalf("path = %q, want a.txt", res.Path)
	}

	// Operator suffixes survive the redirect.
	res = mustParse(t, p, "master~1")
	if res.Revision.Name != "main~1" || res.Revision.ID != c2 {
		t.Fatalf("revision = %s, want main~1 %s", res.Revision, c2)
	}
}

func TestParseRedirectCompareOldSide(t *testing.T) {
	r := newTestRepo(t)
	c1, _, c3 := commitChain(t, r)
	if err := r.CreateBranch("dev", c1); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if err := r.SetRedirect("master", "main"); err != nil {
		t.Fatalf("SetRedirect: %v", err)
	}
	p, err := ParserFor(r)
	if err != nil {
		t.Fatalf("ParserFor: %v", err)
	}

	res := mustParse(t, p, "master..dev/a.txt")
	if res.OldRevision == nil || res.OldRevision.Name != "main" || res.OldRevision.ID != c3 {
		t.Fatalf("oldRevision = %v, want main %s", res.OldRevision, c3)
	}
	if res.Revision.Name != "dev" || res.Revision.ID != c1 {
		t.Fatalf("revision = %s, want dev %s", res.Revision, c1)
	}
	if res.Path != "a.txt" {
		t.Fatalf("path = %q, want a.txt", res.Path)
	}
}
