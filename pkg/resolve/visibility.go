package resolve

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/odvcencio/gotweb/pkg/object"
	"github.com/odvcencio/gotweb/pkg/repo"
)

// VisibilityCache answers whether an object is reachable from any ref the
// accessor may read, memoizing results. It is safe for concurrent use by
// many simultaneous resolutions; the cache key includes the readable tip
// set, so ref updates and differing accessors never see stale answers.
type VisibilityCache struct {
	repo *repo.Repo

	mu    sync.RWMutex
	known map[visKey]bool
}

type visKey struct {
	id   object.Hash
	tips object.Hash // digest of the sorted readable tip set
}

// NewVisibilityCache returns an empty cache for the repository.
func NewVisibilityCache(r *repo.Repo) *VisibilityCache {
	return &VisibilityCache{
		repo:  r,
		known: make(map[visKey]bool),
	}
}

// IsVisible reports whether id is reachable from a ref the accessor may
// read (or from HEAD).
func (c *VisibilityCache) IsVisible(access Access, id object.Hash) (bool, error) {
	tips, tipsKey, err := c.readableTips(access)
	if err != nil {
		return false, err
	}
	return c.isVisibleFrom(tips, tipsKey, id)
}

// IsRangeVisible reports whether both endpoints of an old..new range are
// individually reachable from the accessor's readable tips. Single-endpoint
// visibility is not sufficient for a range.
func (c *VisibilityCache) IsRangeVisible(access Access, oldID, newID object.Hash) (bool, error) {
	tips, tipsKey, err := c.readableTips(access)
	if err != nil {
		return false, err
	}
	oldOK, err := c.isVisibleFrom(tips, tipsKey, oldID)
	if err != nil || !oldOK {
		return false, err
	}
	return c.isVisibleFrom(tips, tipsKey, newID)
}

func (c *VisibilityCache) isVisibleFrom(tips []object.Hash, tipsKey object.Hash, id object.Hash) (bool, error) {
	key := visKey{id: id, tips: tipsKey}

	c.mu.RLock()
	visible, ok := c.known[key]
	c.mu.RUnlock()
	if ok {
		return visible, nil
	}

	visible, err := c.repo.Store.ReachableFrom(tips, id)
	if err != nil {
		return false, fmt.Errorf("visibility: %w", err)
	}

	c.mu.Lock()
	c.known[key] = visible
	c.mu.Unlock()
	return visible, nil
}

// readableTips collects the tip hashes of all refs the accessor may read,
// plus HEAD when it is readable or detached.
func (c *VisibilityCache) readableTips(access Access) ([]object.Hash, object.Hash, error) {
	refs, err := c.repo.ListRefs("")
	if err != nil {
		return nil, "", fmt.Errorf("visibility: %w", err)
	}

	var tips []object.Hash
	for name, h := range refs {
		if access.CanRead(name) {
			tips = append(tips, h)
		}
	}

	if head, err := c.repo.Head(); err == nil {
		if strings.HasPrefix(head, "refs/") {
			if h, ok := refs[head]; ok && access.CanRead(head) {
				tips = append(tips, h)
			}
		} else if head != "" {
			// Detached HEAD holds a raw hash.
			tips = append(tips, object.Hash(head))
		}
	}

	sorted := make([]string, 0, len(tips))
	for _, h := range tips {
		sorted = append(sorted, string(h))
	}
	sort.Strings(sorted)
	tipsKey := object.HashBytes([]byte(strings.Join(sorted, "\n")))

	return tips, tipsKey, nil
}
