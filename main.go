package main

// This is the change-parsing worker for remote Subversion repositories.
//
// Given a repository and a revision (or range of revisions), it
// reconstructs the full recursive set of per-path effects for each
// commit -- `svn log` alone reports neither file kinds nor the leaves
// under a moved or deleted directory -- and writes two relational views
// used by the code browser: the per-commit path-change log and the
// per-revision filesystem delta.
//
// Use "config.yml" to point the worker at a repository and its store:
//
//	repo-uri: https://svn.example.com/repo
//	callsign: EXMPL
//	repo-id: 3
//	database: worker:secret@tcp(db:3306)/codebrowse
//	workers: 4
//
// Each (repository, revision) parse is independent; a failed parse
// leaves the previously persisted rows for that revision intact and is
// retried by the job scheduler.

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	svn "github.com/kfsone/svn-changes/lib"
)

// Session binds one remote repository to its persistence target.
type Session struct {
	config  *Config
	invoker *svn.Invoker
	store   *svn.Store
}

func NewSession(config *Config) (session *Session, err error) {
	session = &Session{
		config:  config,
		invoker: svn.NewInvoker(config.RepoURI, svn.ExecRunner{}),
	}

	if !*dryRun {
		if config.Database == "" {
			return nil, fmt.Errorf("no database configured")
		}
		db, err := sql.Open("mysql", config.Database)
		if err != nil {
			return nil, fmt.Errorf("invalid database dsn: %w", err)
		}
		session.store = svn.NewStore(db, config.RepoID)
	}

	return session, nil
}

func (s *Session) Close() error {
	if s.store != nil {
		return s.store.DB.Close()
	}
	return nil
}

func main() {
	parseCommandLine()

	if err := run(); err != nil {
		fmt.Println(fmt.Errorf("error: %w", err))
		os.Exit(1)
	}
}

func Log(format string, args ...any) {
	if *verbose {
		s := fmt.Sprintf("-- "+format, args...)
		s = strings.ReplaceAll(s, "\r", "<cr>")
		s = strings.ReplaceAll(s, "\n", "<lf>")
		fmt.Println(s)
	}
}

// Info prints a message if -quiet was not specified.
func Info(format string, args ...interface{}) {
	if !*quiet {
		s := fmt.Sprintf("-- "+format, args...)
		s = strings.ReplaceAll(s, "\r", "<cr>")
		s = strings.ReplaceAll(s, "\n", "<lf>")
		fmt.Println(s)
	}
}

func run() error {
	config := NewConfig(*configFile)

	// Command line overrides beat the config file.
	if *repoURI != "" {
		config.RepoURI = *repoURI
	}
	if *callsign != "" {
		config.Callsign = *callsign
	}
	if *repoID != 0 {
		config.RepoID = *repoID
	}
	if *workers != 0 {
		config.Workers = *workers
	}

	if config.RepoURI == "" {
		return fmt.Errorf("no repository URI configured")
	}
	if config.Workers < 1 {
		config.Workers = 1
	}

	svn.Trace = Log

	session, err := NewSession(config)
	if err != nil {
		return err
	}
	defer session.Close()

	// A job abort must be honoured between svn invocations; the writer's
	// transaction keeps a cancelled parse from leaving partial rows.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	revs := revisions()
	Info("%s: parsing %d revision(s)", config.Callsign, len(revs))

	helper := NewHelper[int](config.Workers, len(revs), func(rev int) error {
		return session.parse(ctx, rev)
	})
	for _, rev := range revs {
		helper.Queue(rev)
	}
	failures := helper.CloseWait()

	for _, failure := range failures {
		fmt.Println(fmt.Errorf("error: %w", failure))
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d parse(s) failed", len(failures), len(revs))
	}

	Info("Finished")

	return nil
}

func (s *Session) parse(ctx context.Context, rev int) error {
	var effects map[string]*svn.Effect
	var err error

	if *dryRun {
		effects, err = svn.ResolveRevision(ctx, s.invoker, rev)
	} else {
		effects, err = svn.ParseRevision(ctx, s.invoker, s.store, rev)
	}
	if err != nil {
		return err
	}
	if effects == nil {
		Info("r%d: empty commit", rev)
		return nil
	}

	Log("r%d: %d effect(s)", rev, len(effects))
	if *dryRun || *verbose {
		return writeReport(newRevisionReport(s.config.Callsign, rev, effects, *dryRun))
	}

	return nil
}
