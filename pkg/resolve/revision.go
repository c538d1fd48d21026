package resolve

import (
	"fmt"

	"github.com/odvcencio/gotweb/pkg/object"
)

// Revision is a named, resolved point in the object graph. It is immutable
// once built and owned by the Result that carries it.
type Revision struct {
	// Name is the revision expression as it appears in the result,
	// e.g. "main", "refs/tags/v1", "main^".
	Name string
	// ID is the resolved object hash.
	ID object.Hash
	// Kind is the resolved object's type.
	Kind object.ObjectType
}

// Null is the sentinel revision representing "no parent", used when a
// first-parent expression names a root commit.
var Null = Revision{}

// IsNull reports whether r is the no-parent sentinel.
func (r Revision) IsNull() bool {
	return r.ID == ""
}

func (r Revision) String() string {
	return fmt.Sprintf("%s (%s %s)", r.Name, r.Kind, r.ID)
}

// Peeled builds a Revision from an object already peeled to its final
// non-tag form, keeping the given name.
func Peeled(name string, o *object.Obj) Revision {
	return Revision{Name: name, ID: o.ID, Kind: o.Type}
}

// Peel builds a Revision by following a tag chain from o down to its
// non-tag target, recording the target under the given name.
func Peel(name string, o *object.Obj, w *object.Walker) (Revision, error) {
	peeled, err := w.Peel(o)
	if err != nil {
		return Revision{}, err
	}
	return Revision{Name: name, ID: peeled.ID, Kind: peeled.Type}, nil
}
