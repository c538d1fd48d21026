package resolve

import (
	"strings"

	"github.com/odvcencio/gotweb/pkg/repo"
)

// Access decides which refs an accessor may see. Implementations must be
// safe for concurrent use; how the decision is made (auth, policy) is the
// implementation's business.
type Access interface {
	// CanRead reports whether the accessor may see the fully qualified
	// ref name.
	CanRead(refName string) bool
}

// AllowAll grants every ref.
type AllowAll struct{}

func (AllowAll) CanRead(string) bool { return true }

// HidePrefixes hides refs under any of the given fully qualified prefixes
// and grants everything else.
type HidePrefixes struct {
	Prefixes []string
}

func (h HidePrefixes) CanRead(refName string) bool {
	for _, p := range h.Prefixes {
		if strings.HasPrefix(refName, p) {
			return false
		}
	}
	return true
}

// AccessFor builds the access policy configured for a repository: its
// hidden ref prefixes, or AllowAll when none are configured.
func AccessFor(r *repo.Repo) (Access, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return nil, err
	}
	if len(cfg.Hidden) == 0 {
		return AllowAll{}, nil
	}
	return HidePrefixes{Prefixes: cfg.Hidden}, nil
}
