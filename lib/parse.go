package svn

// Top-level orchestration: one ParseRevision call reconstructs and
// persists the effect set for one (repository, revision) pair. All state
// lives inside the call; nothing is shared across parses.

import (
	"context"
	"fmt"
)

// ResolveRevision fetches the verbose log for rev and resolves the full
// effect set. A commit that touched no paths resolves to (nil, nil);
// some historical repositories contain such commits.
func ResolveRevision(ctx context.Context, inv *Invoker, rev int) (map[string]*Effect, error) {
	output, err := inv.FetchLog(ctx, rev)
	if err != nil {
		return nil, fmt.Errorf("r%d: %w", rev, err)
	}
	entry, err := DecodeLog(output)
	if err != nil {
		return nil, fmt.Errorf("r%d: %w", rev, err)
	}
	if len(entry.Paths) == 0 {
		return nil, nil
	}

	oracle := &RemoteOracle{Invoker: inv}
	effects, err := ResolveEffects(ctx, oracle, entry)
	if err != nil {
		return nil, fmt.Errorf("r%d: %w", rev, err)
	}
	return effects, nil
}

// ParseRevision resolves rev and persists both emissions, returning the
// effect set for reporting. A benign empty commit persists nothing.
func ParseRevision(ctx context.Context, inv *Invoker, store *Store, rev int) (map[string]*Effect, error) {
	effects, err := ResolveRevision(ctx, inv, rev)
	if err != nil || effects == nil {
		return nil, err
	}

	// Union of every path and provenance path gets an id; provenance
	// revisions map to commit ids where the commit is already recorded.
	paths := make([]string, 0, len(effects)*2)
	revs := []int{rev}
	for _, effect := range effects {
		paths = append(paths, effect.Path)
		if effect.TargetPath != "" {
			paths = append(paths, effect.TargetPath)
			revs = append(revs, effect.TargetRev)
		}
	}

	pathIDs, err := store.LookupOrCreatePaths(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("r%d: %w", rev, err)
	}
	commitIDs, err := store.LookupCommitIDs(ctx, revs)
	if err != nil {
		return nil, fmt.Errorf("r%d: %w", rev, err)
	}
	commitID, ok := commitIDs[rev]
	if !ok {
		return nil, fmt.Errorf("%w: r%d has no recorded commit", ErrStore, rev)
	}

	if err := store.WriteEffects(ctx, rev, commitID, effects, pathIDs, commitIDs); err != nil {
		return nil, fmt.Errorf("r%d: %w", rev, err)
	}

	return effects, nil
}
