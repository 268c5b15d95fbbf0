package svn

// Persistence for resolved effects: the per-commit path-change log and
// the per-revision filesystem delta, plus the id services they depend on
// (path-id allocation and commit-id lookup).

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// insertBatchSize bounds the rows per INSERT statement.
const insertBatchSize = 512

// Store persists resolved effects for one repository.
type Store struct {
	DB     *sql.DB
	RepoID int
}

func NewStore(db *sql.DB, repoID int) *Store {
	return &Store{DB: db, RepoID: repoID}
}

// PathChangeRow is one row of the path-change emission.
type PathChangeRow struct {
	PathID         int
	TargetPathID   *int
	TargetCommitID *int
	Change         ChangeKind
	Kind           FileKind
	Direct         bool
}

// FilesystemRow is one row of the filesystem-delta emission.
type FilesystemRow struct {
	ParentPathID int
	PathID       int
	Existed      bool
	Kind         FileKind
}

// sortedEffects returns the effects ordered by path, so emitted rows are
// deterministic run to run.
func sortedEffects(effects map[string]*Effect) []*Effect {
	paths := make([]string, 0, len(effects))
	for path := range effects {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	result := make([]*Effect, len(paths))
	for i, path := range paths {
		result[i] = effects[path]
	}
	return result
}

// PathChangeRows flattens the effect set into path-change rows. A target
// revision with no recorded commit yields a null targetCommitId; the
// readers drop such references.
func PathChangeRows(effects map[string]*Effect, pathIDs map[string]int, commitIDs map[int]int) ([]PathChangeRow, error) {
	rows := make([]PathChangeRow, 0, len(effects))
	for _, effect := range sortedEffects(effects) {
		pathID, ok := pathIDs[effect.Path]
		if !ok {
			return nil, fmt.Errorf("%w: no path id for %q", ErrStore, effect.Path)
		}
		row := PathChangeRow{
			PathID: pathID,
			Change: effect.Change,
			Kind:   effect.Kind,
			Direct: effect.Direct,
		}
		if effect.TargetPath != "" {
			targetPathID, ok := pathIDs[effect.TargetPath]
			if !ok {
				return nil, fmt.Errorf("%w: no path id for target %q", ErrStore, effect.TargetPath)
			}
			row.TargetPathID = &targetPathID
			if targetCommitID, ok := commitIDs[effect.TargetRev]; ok {
				row.TargetCommitID = &targetCommitID
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FilesystemRows flattens the effect set into filesystem-delta rows.
// Synthesized copy-away effects and the root are omitted: the first is
// not a filesystem event at this revision, the second has no parent to
// anchor under.
func FilesystemRows(effects map[string]*Effect, pathIDs map[string]int) ([]FilesystemRow, error) {
	rows := make([]FilesystemRow, 0, len(effects))
	for _, effect := range sortedEffects(effects) {
		if !effect.Direct && effect.Change == ChangeCopyAway {
			continue
		}
		if effect.Path == "/" {
			continue
		}
		pathID, ok := pathIDs[effect.Path]
		if !ok {
			return nil, fmt.Errorf("%w: no path id for %q", ErrStore, effect.Path)
		}
		parentID, ok := pathIDs[ParentPath(effect.Path)]
		if !ok {
			return nil, fmt.Errorf("%w: no path id for parent of %q", ErrStore, effect.Path)
		}
		existed := true
		switch effect.Change {
		case ChangeDelete, ChangeMoveAway, ChangeMulticopy:
			existed = false
		}
		rows = append(rows, FilesystemRow{
			ParentPathID: parentID,
			PathID:       pathID,
			Existed:      existed,
			Kind:         effect.Kind,
		})
	}
	return rows, nil
}

// WriteEffects replaces both emissions for this commit in one
// transaction: a failure leaves the previously persisted state intact.
func (s *Store) WriteEffects(ctx context.Context, rev, commitID int, effects map[string]*Effect, pathIDs map[string]int, commitIDs map[int]int) error {
	changeRows, err := PathChangeRows(effects, pathIDs, commitIDs)
	if err != nil {
		return err
	}
	fsRows, err := FilesystemRows(effects, pathIDs)
	if err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStore, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM repository_pathchange WHERE commitId = ?", commitID); err != nil {
		return fmt.Errorf("%w: clear pathchange: %v", ErrStore, err)
	}
	for start := 0; start < len(changeRows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(changeRows) {
			end = len(changeRows)
		}
		batch := changeRows[start:end]
		args := make([]any, 0, len(batch)*9)
		for _, row := range batch {
			args = append(args, s.RepoID, row.PathID, commitID,
				nullableID(row.TargetPathID), nullableID(row.TargetCommitID),
				int(row.Change), int(row.Kind), boolColumn(row.Direct), rev)
		}
		query := "INSERT INTO repository_pathchange" +
			" (repoId, pathId, commitId, targetPathId, targetCommitId, changeKind, fileKind, direct, revision) VALUES " +
			placeholderRows(len(batch), 9)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: insert pathchange: %v", ErrStore, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM repository_filesystem WHERE repoId = ? AND revision = ?", s.RepoID, rev); err != nil {
		return fmt.Errorf("%w: clear filesystem: %v", ErrStore, err)
	}
	for start := 0; start < len(fsRows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(fsRows) {
			end = len(fsRows)
		}
		batch := fsRows[start:end]
		args := make([]any, 0, len(batch)*6)
		for _, row := range batch {
			args = append(args, s.RepoID, row.ParentPathID, rev,
				row.PathID, boolColumn(row.Existed), int(row.Kind))
		}
		query := "INSERT INTO repository_filesystem" +
			" (repoId, parentPathId, revision, pathId, existed, fileKind) VALUES " +
			placeholderRows(len(batch), 6)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: insert filesystem: %v", ErrStore, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStore, err)
	}
	return nil
}

// LookupOrCreatePaths allocates ids for every given path, creating any
// that do not exist yet. The upsert is idempotent: re-running a parse
// reuses the ids of the first run.
func (s *Store) LookupOrCreatePaths(ctx context.Context, paths []string) (map[string]int, error) {
	ids := make(map[string]int, len(paths))
	if len(paths) == 0 {
		return ids, nil
	}

	distinct := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		if !seen[path] {
			seen[path] = true
			distinct = append(distinct, path)
		}
	}
	sort.Strings(distinct)

	for start := 0; start < len(distinct); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(distinct) {
			end = len(distinct)
		}
		batch := distinct[start:end]

		args := make([]any, len(batch))
		for i, path := range batch {
			args[i] = path
		}
		query := "INSERT IGNORE INTO repository_path (path) VALUES " +
			placeholderRows(len(batch), 1)
		if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("%w: create paths: %v", ErrStore, err)
		}

		query = "SELECT id, path FROM repository_path WHERE path IN (" +
			placeholders(len(batch)) + ")"
		rows, err := s.DB.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("%w: lookup paths: %v", ErrStore, err)
		}
		for rows.Next() {
			var id int
			var path string
			if err := rows.Scan(&id, &path); err != nil {
				rows.Close()
				return nil, fmt.Errorf("%w: scan path: %v", ErrStore, err)
			}
			ids[path] = id
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: lookup paths: %v", ErrStore, err)
		}
		rows.Close()
	}

	return ids, nil
}

// LookupCommitIDs maps revisions to recorded commit ids. Revisions not
// yet discovered are simply absent from the result.
func (s *Store) LookupCommitIDs(ctx context.Context, revs []int) (map[int]int, error) {
	ids := make(map[int]int, len(revs))
	if len(revs) == 0 {
		return ids, nil
	}

	distinct := make([]int, 0, len(revs))
	seen := make(map[int]bool, len(revs))
	for _, rev := range revs {
		if !seen[rev] {
			seen[rev] = true
			distinct = append(distinct, rev)
		}
	}
	sort.Ints(distinct)

	args := make([]any, 0, len(distinct)+1)
	args = append(args, s.RepoID)
	for _, rev := range distinct {
		args = append(args, rev)
	}
	query := "SELECT revision, id FROM repository_commit WHERE repoId = ? AND revision IN (" +
		placeholders(len(distinct)) + ")"
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup commits: %v", ErrStore, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rev, id int
		if err := rows.Scan(&rev, &id); err != nil {
			return nil, fmt.Errorf("%w: scan commit: %v", ErrStore, err)
		}
		ids[rev] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: lookup commits: %v", ErrStore, err)
	}

	return ids, nil
}

func nullableID(id *int) any {
	if id == nil {
		return nil
	}
	return *id
}

func boolColumn(value bool) int {
	if value {
		return 1
	}
	return 0
}

// placeholders renders "?, ?, ?" for count parameters.
func placeholders(count int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
}

// placeholderRows renders "(?, ...), (?, ...)" for count rows of width
// parameters each.
func placeholderRows(count, width int) string {
	row := "(" + placeholders(width) + ")"
	return strings.TrimSuffix(strings.Repeat(row+", ", count), ", ")
}
