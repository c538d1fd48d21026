package object

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// ReachableFrom reports whether target is reachable from any of the given
// tips by following tag targets and commit parents. Missing tips are
// ignored; read failures on present objects propagate.
func (s *Store) ReachableFrom(tips []Hash, target Hash) (bool, error) {
	stack := uniqueNormalizedHashes(tips)
	seen := make(map[Hash]struct{}, len(stack))

	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h == "" {
			continue
		}
		if h == target {
			return true, nil
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}

		objType, data, err := s.Read(h)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue // dangling tip or parent
			}
			return false, fmt.Errorf("reachable from: read %s: %w", h, err)
		}

		switch objType {
		case TypeTag:
			tag, err := UnmarshalTag(data)
			if err != nil {
				return false, fmt.Errorf("reachable from: parse tag %s: %w", h, err)
			}
			stack = append(stack, tag.TargetHash)
		case TypeCommit:
			commit, err := UnmarshalCommit(data)
			if err != nil {
				return false, fmt.Errorf("reachable from: parse commit %s: %w", h, err)
			}
			stack = append(stack, commit.Parents...)
		default:
			// Trees and blobs terminate the ancestry walk.
		}
	}

	return false, nil
}

func uniqueNormalizedHashes(in []Hash) []Hash {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[Hash]struct{}, len(in))
	out := make([]Hash, 0, len(in))
	for _, h := range in {
		h = Hash(strings.TrimSpace(string(h)))
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
