package main

import (
	"os"
	"sort"
	"sync"

	svn "github.com/kfsone/svn-changes/lib"
	yml "gopkg.in/yaml.v3"
)

// Parallel parses report as they finish; keep each document whole.
var reportMu sync.Mutex

// PathReport describes one resolved effect as yaml.
type PathReport struct {
	Path   string `yaml:"path"`
	Change string `yaml:"change"`
	Kind   string `yaml:"kind"`
	Target string `yaml:"target,omitempty"`
	Rev    int    `yaml:"target-rev,omitempty"`
	Direct bool   `yaml:"direct,omitempty"`
}

// RevisionReport summarizes one parse as yaml.
type RevisionReport struct {
	Callsign string         `yaml:"callsign,omitempty"`
	Revision int            `yaml:"revision"`
	Counts   map[string]int `yaml:"counts"`
	Paths    []PathReport   `yaml:"paths,omitempty"`
}

// newRevisionReport tallies the effect set; per-path detail is included
// only when requested, since a single directory move can run to
// thousands of lines.
func newRevisionReport(callsign string, rev int, effects map[string]*svn.Effect, detail bool) *RevisionReport {
	report := &RevisionReport{
		Callsign: callsign,
		Revision: rev,
		Counts:   make(map[string]int),
	}

	paths := make([]string, 0, len(effects))
	for path := range effects {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		effect := effects[path]
		report.Counts[effect.Change.String()]++
		if !detail {
			continue
		}
		report.Paths = append(report.Paths, PathReport{
			Path:   effect.Path,
			Change: effect.Change.String(),
			Kind:   effect.Kind.String(),
			Target: effect.TargetPath,
			Rev:    effect.TargetRev,
			Direct: effect.Direct,
		})
	}

	return report
}

// writeReport emits the parse summary to stdout. Treat each revision as
// an array of one so consecutive parses read as a single document rather
// than a stack of '---' separated ones.
func writeReport(report *RevisionReport) error {
	reportMu.Lock()
	defer reportMu.Unlock()

	data := append([]*RevisionReport{}, report)
	ymlenc := yml.NewEncoder(os.Stdout)
	ymlenc.SetIndent(2)
	if err := ymlenc.Encode(data); err != nil {
		return err
	}
	return ymlenc.Close()
}
