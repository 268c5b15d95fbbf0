package main

import (
	"os"

	yml "gopkg.in/yaml.v3"
)

// Config captures the yaml description of a worker configuration.
//
//	# remote repository root and its identity in the store
//	repo-uri: https://svn.example.com/repo
//	callsign: EXMPL
//	repo-id: 3
//
//	# DSN of the database holding the path-change and filesystem tables
//	database: worker:secret@tcp(db:3306)/codebrowse
//
//	# parallel parses when working a revision range
//	workers: 4
type Config struct {
	Filename string
	RepoURI  string `yaml:"repo-uri,omitempty"`
	Callsign string `yaml:"callsign,omitempty"`
	RepoID   int    `yaml:"repo-id,omitempty"`
	Database string `yaml:"database,omitempty"`
	Workers  int    `yaml:"workers,omitempty"`
}

// NewConfig returns a new Config object populated from the yaml
// definition in a given file. If the file is absent, returns defaults.
func NewConfig(filename string) (config *Config) {
	config = &Config{
		Workers: 4,
	}

	// Only try and load the file if it has a name.
	if filename != "" {
		if f, err := os.ReadFile(filename); err == nil {
			if err = yml.Unmarshal(f, config); err != nil {
				panic(err)
			}
		}
	}

	config.Filename = filename

	return
}
