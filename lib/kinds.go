package svn

// The file-kind resolver. svn has no single query that reports a path's
// kind at a pinned revision -- `svn ls` on the path itself only works for
// directories -- so each path is classified by listing its *parent* and
// finding the matching child entry.
//
// The batched response is the delicate part: `svn ls --xml` does not echo
// the per-request revision, so two requests for the same parent path at
// different revisions produce indistinguishable <list> elements. Request
// groups are therefore bound to <list> elements positionally, in document
// order, never by URI.

import (
	"context"
	"fmt"
	"sort"
)

// LookupKey identifies a path at a point in repository history.
type LookupKey struct {
	Path string
	Rev  int
}

// listBatchSize bounds the URI count per `svn ls` invocation, keeping the
// composed argv under typical OS limits.
const listBatchSize = 64

type listMember struct {
	key  string // the caller's request key
	name string // child entry name to find in the parent listing
}

type listRequest struct {
	uri     string // encoded, revision-pinned parent URI
	members []listMember
}

// ResolveKinds classifies every requested path as file, directory or
// deleted. The result is keyed by the request keys of lookups; a request
// whose lookup point is not found in any parent listing maps to
// KindDeleted. Partial progress is discarded on failure.
func ResolveKinds(ctx context.Context, inv *Invoker, lookups map[string]LookupKey) (map[string]FileKind, error) {
	// Group requests sharing a parent URI so they share one listing.
	// Sorted iteration keeps the request queue deterministic.
	keys := make([]string, 0, len(lookups))
	for key := range lookups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	byURI := make(map[string]int)
	pending := make([]*listRequest, 0, len(lookups))
	for _, key := range keys {
		lookup := lookups[key]
		uri := inv.PathURI(ParentPath(lookup.Path), lookup.Rev)

		idx, ok := byURI[uri]
		if !ok {
			idx = len(pending)
			byURI[uri] = idx
			pending = append(pending, &listRequest{uri: uri})
		}
		pending[idx].members = append(pending[idx].members, listMember{
			key:  key,
			name: BasePath(lookup.Path),
		})
	}

	// Reverse the queue once so every pop comes off the tail in O(1);
	// batches still go to svn in original submission order, keeping the
	// positional contract intact.
	for i, j := 0, len(pending)-1; i < j; i, j = i+1, j-1 {
		pending[i], pending[j] = pending[j], pending[i]
	}

	kinds := make(map[string]FileKind, len(lookups))
	for len(pending) > 0 {
		count := listBatchSize
		if count > len(pending) {
			count = len(pending)
		}

		batch := make([]*listRequest, count)
		for i := range batch {
			batch[i] = pending[len(pending)-1-i]
		}
		pending = pending[:len(pending)-count]

		uris := make([]string, count)
		for i, request := range batch {
			uris[i] = request.uri
		}

		output, err := inv.FetchList(ctx, uris)
		if err != nil {
			return nil, err
		}
		groups, err := DecodeFlatList(output)
		if err != nil {
			return nil, err
		}
		if len(groups) != len(batch) {
			return nil, fmt.Errorf("%w: sent %d list uris, got %d lists",
				ErrProtocol, len(batch), len(groups))
		}

		// Pop one request per <list>, in document order.
		for i, group := range groups {
			request := batch[i]
			byName := make(map[string]FileKind, len(group.Entries))
			for _, entry := range group.Entries {
				byName[entry.Name] = entry.Kind
			}
			for _, member := range request.members {
				if kind, ok := byName[member.name]; ok {
					kinds[member.key] = kind
				}
			}
		}
	}

	// Whatever no listing accounted for was absent at its lookup point.
	for key := range lookups {
		if _, ok := kinds[key]; !ok {
			kinds[key] = KindDeleted
		}
	}

	return kinds, nil
}
