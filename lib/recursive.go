package svn

import (
	"context"
)

// ListRecursive returns every descendant of a directory at a pinned
// revision, keyed by slash-separated relative path. This is the only
// query whose cost scales with subtree size; callers reach for it only
// when a directory is deleted, copied or moved.
func ListRecursive(ctx context.Context, inv *Invoker, key LookupKey) (map[string]FileKind, error) {
	output, err := inv.FetchRecursiveList(ctx, key.Path, key.Rev)
	if err != nil {
		return nil, err
	}
	entries, err := DecodeRecursiveList(output)
	if err != nil {
		return nil, err
	}

	listing := make(map[string]FileKind, len(entries))
	for _, entry := range entries {
		listing[entry.Name] = entry.Kind
	}
	return listing, nil
}
