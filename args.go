package main

import (
	"flag"
	"fmt"
	"os"
)

// -config: optional, specifies the worker configuration file. default: config.yml
var configFile = flag.String("config", "config.yml", "path to worker config file")

// -repo: remote repository URI, overriding the config file.
var repoURI = flag.String("repo", "", "remote repository URI")

// -callsign: short repository identifier used in output, overriding the config file.
var callsign = flag.String("callsign", "", "repository callsign")

// -repo-id: repository id in the store, overriding the config file.
var repoID = flag.Int("repo-id", 0, "repository id in the store")

// -rev: parse a single revision.
var revision = flag.Int("rev", 0, "revision to parse")

// -start / -stop: parse an inclusive range of revisions instead.
var startRevision = flag.Int("start", 0, "first revision of a range to parse")
var stopRevision = flag.Int("stop", 0, "last revision of a range to parse")

// -workers: parallel parses when working a range, overriding the config file.
var workers = flag.Int("workers", 0, "parallel parses for a revision range")

// -dry-run: resolve and report effects without touching the database.
var dryRun = flag.Bool("dry-run", false, "resolve effects but do not persist them")

// -verbose: trace svn invocations and report effect counts per parse.
var verbose = flag.Bool("verbose", false, "more output")

// -quiet: suppress progress output.
var quiet = flag.Bool("quiet", false, "suppress more output")

func parseCommandLine() {
	// Process command line flags.
	flag.Parse()

	// confirm no unparsed arguments.
	if len(flag.Args()) > 0 {
		fmt.Println("unexpected arguments")
		flag.Usage()
		os.Exit(1)
	}

	if *verbose && *quiet {
		fmt.Println("-quiet and -verbose are mutually exclusive")
		os.Exit(1)
	}

	if *revision != 0 && (*startRevision != 0 || *stopRevision != 0) {
		fmt.Println("-rev and -start/-stop are mutually exclusive")
		os.Exit(1)
	}

	if *revision == 0 && *startRevision == 0 {
		fmt.Println("missing -rev or -start/-stop revision")
		os.Exit(1)
	}

	if *startRevision != 0 {
		if *stopRevision == 0 {
			*stopRevision = *startRevision
		}
		if *stopRevision < *startRevision {
			fmt.Println("-stop must not precede -start")
			os.Exit(1)
		}
	}
}

// revisions returns the list of revisions the command line selected.
func revisions() []int {
	if *revision != 0 {
		return []int{*revision}
	}
	result := make([]int, 0, *stopRevision-*startRevision+1)
	for rev := *startRevision; rev <= *stopRevision; rev++ {
		result = append(result, rev)
	}
	return result
}
