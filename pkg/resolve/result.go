package resolve

import (
	"fmt"
	"strings"
)

// Result is a successfully resolved URL path: the revision it names, the
// old side of a compare or first-parent expression when present, and the
// remaining in-tree path. A Result is only ever built for a visible,
// fully resolved revision; failure is expressed by absence.
type Result struct {
	Revision    Revision
	OldRevision *Revision
	Path        string
}

func (r *Result) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Result{revision: %s", r.Revision.Name)
	if r.OldRevision != nil && !r.OldRevision.IsNull() {
		fmt.Fprintf(&b, ", oldRevision: %s", r.OldRevision.Name)
	}
	fmt.Fprintf(&b, ", path: %q}", r.Path)
	return b.String()
}
