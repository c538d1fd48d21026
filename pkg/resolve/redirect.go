package resolve

import (
	"regexp"
	"strings"

	"github.com/odvcencio/gotweb/pkg/repo"
)

// The ref name part of a revision expression ends at the first appearance
// of ^, ~, :, or @{ (see git-check-ref-format(1)).
var endOfRef = regexp.MustCompile(`[\^~:]|@\{`)

// refPart returns the leading ref-name part of a revision expression.
func refPart(expr string) string {
	loc := endOfRef.FindStringIndex(expr)
	if loc == nil {
		return expr
	}
	return expr[:loc[0]]
}

// BranchRedirect maps a possibly stale ref name to its canonical current
// name for repositories that renamed a branch. Implementations must be safe
// for concurrent use.
type BranchRedirect interface {
	// RedirectFor returns the replacement ref name, or false when no
	// redirect applies.
	RedirectFor(refName string) (string, bool)
}

// NoRedirect is a BranchRedirect that never redirects.
type NoRedirect struct{}

func (NoRedirect) RedirectFor(string) (string, bool) { return "", false }

// ConfigRedirect serves redirects from a repository's [redirects] config
// table. Keys are short branch names; lookups normalize "refs/heads/" and
// "heads/" forms so any spelling of the stale name redirects, and the
// replacement is returned in the spelling the caller used.
type ConfigRedirect struct {
	redirects map[string]string
}

// NewConfigRedirect reads the repository config once and serves lookups
// from the loaded table.
func NewConfigRedirect(r *repo.Repo) (*ConfigRedirect, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return nil, err
	}
	return &ConfigRedirect{redirects: cfg.Redirects}, nil
}

func (c *ConfigRedirect) RedirectFor(refName string) (string, bool) {
	if len(c.redirects) == 0 {
		return "", false
	}

	short := refName
	prefix := ""
	for _, p := range []string{"refs/heads/", "heads/"} {
		if strings.HasPrefix(refName, p) {
			short = strings.TrimPrefix(refName, p)
			prefix = p
			break
		}
	}

	target, ok := c.redirects[short]
	if !ok {
		return "", false
	}
	return prefix + target, true
}
