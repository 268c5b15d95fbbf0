package svn

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
)

// Trace, when set, receives one line per svn invocation.
var Trace func(format string, args ...any)

func trace(format string, args ...any) {
	if Trace != nil {
		Trace(format, args...)
	}
}

// Runner executes a single subprocess and returns its standard output.
// Implementations must buffer stdout fully before returning.
type Runner interface {
	Run(ctx context.Context, argv []string) ([]byte, error)
}

// ExecRunner is the production Runner, backed by os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, argv []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// A cancelled context kills the child; report the cancellation
		// rather than the resulting bogus exit status.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %v: %s",
			ErrExecFailure, shellquote.Join(argv...), err,
			bytes.TrimSpace(stderr.Bytes()))
	}

	return stdout.Bytes(), nil
}

// Invoker composes svn command lines against one remote repository and
// runs them. All output is XML; all URIs are revision-pinned and
// segment-encoded before composition.
type Invoker struct {
	URI    string // remote repository root, no trailing slash
	Runner Runner
}

func NewInvoker(uri string, runner Runner) *Invoker {
	return &Invoker{
		URI:    strings.TrimRight(uri, "/"),
		Runner: runner,
	}
}

// PathURI composes the encoded, revision-pinned URI for a repository path.
func (inv *Invoker) PathURI(path string, rev int) string {
	return inv.URI + EncodePath(path) + "@" + strconv.Itoa(rev)
}

func (inv *Invoker) run(ctx context.Context, args ...string) ([]byte, error) {
	argv := append([]string{"svn", "--non-interactive", "--xml"}, args...)
	trace("exec: %s", shellquote.Join(argv...))
	return inv.Runner.Run(ctx, argv)
}

// FetchLog retrieves the verbose log entry for a single revision.
func (inv *Invoker) FetchLog(ctx context.Context, rev int) ([]byte, error) {
	return inv.run(ctx, "log", "--verbose", "--limit", "1", inv.PathURI("/", rev))
}

// FetchList lists each of the given revision-pinned URIs in one process.
// The response carries one <list> element per URI, in argument order.
func (inv *Invoker) FetchList(ctx context.Context, uris []string) ([]byte, error) {
	return inv.run(ctx, append([]string{"ls"}, uris...)...)
}

// FetchRecursiveList lists the full subtree of a directory at a revision.
func (inv *Invoker) FetchRecursiveList(ctx context.Context, path string, rev int) ([]byte, error) {
	return inv.run(ctx, "ls", "-R", inv.PathURI(path, rev))
}
