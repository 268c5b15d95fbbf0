package svn

// Decoders for the three XML shapes svn emits: a verbose log entry, a
// flat listing batch, and a recursive listing.

import (
	"encoding/xml"
	"fmt"
	"net/url"
)

// RawPath is one path reported by `svn log --verbose` for a revision.
type RawPath struct {
	Path         string
	Action       PathAction
	CopyFromPath string // prior path when svn recorded provenance
	CopyFromRev  int    // valid only when CopyFromPath is set
}

// LogEntry is the decoded form of one verbose log entry.
type LogEntry struct {
	Rev   int
	Paths []*RawPath
}

// ListEntry is one name/kind pair from a listing.
type ListEntry struct {
	Name string
	Kind FileKind
}

// ListGroup is the decoded form of one <list> element, in document order.
type ListGroup struct {
	Path    string // the %-decoded path attribute
	Entries []ListEntry
}

type logXML struct {
	Entries []logEntryXML `xml:"logentry"`
}

type logEntryXML struct {
	Revision int          `xml:"revision,attr"`
	Paths    *logPathsXML `xml:"paths"`
}

type logPathsXML struct {
	Paths []logPathXML `xml:"path"`
}

type logPathXML struct {
	Action       string `xml:"action,attr"`
	CopyFromPath string `xml:"copyfrom-path,attr"`
	CopyFromRev  int    `xml:"copyfrom-rev,attr"`
	Path         string `xml:",chardata"`
}

type listsXML struct {
	Lists []listXML `xml:"list"`
}

type listXML struct {
	Path    string         `xml:"path,attr"`
	Entries []listEntryXML `xml:"entry"`
}

type listEntryXML struct {
	Kind string `xml:"kind,attr"`
	Name string `xml:"name"`
}

// DecodeLog decodes `svn log --verbose --xml` output. A log entry without
// a <paths> block decodes to an empty path list; some historical
// repositories contain such commits and they are not an error.
func DecodeLog(data []byte) (*LogEntry, error) {
	var doc logXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: log: %v", ErrProtocol, err)
	}
	if len(doc.Entries) != 1 {
		return nil, fmt.Errorf("%w: log: expected 1 logentry, got %d", ErrProtocol, len(doc.Entries))
	}

	raw := doc.Entries[0]
	entry := &LogEntry{Rev: raw.Revision}
	if raw.Paths == nil {
		return entry, nil
	}

	entry.Paths = make([]*RawPath, 0, len(raw.Paths.Paths))
	for _, p := range raw.Paths.Paths {
		action, err := GetPathAction(p.Action)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Path, err)
		}
		entry.Paths = append(entry.Paths, &RawPath{
			Path:         p.Path,
			Action:       action,
			CopyFromPath: p.CopyFromPath,
			CopyFromRev:  p.CopyFromRev,
		})
	}

	return entry, nil
}

// DecodeFlatList decodes `svn ls --xml` output into one group per <list>
// element, preserving document order. svn re-encodes the path attribute,
// so it is %-decoded here.
func DecodeFlatList(data []byte) ([]ListGroup, error) {
	var doc listsXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: lists: %v", ErrProtocol, err)
	}

	groups := make([]ListGroup, 0, len(doc.Lists))
	for _, list := range doc.Lists {
		path, err := url.PathUnescape(list.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: list path %q: %v", ErrProtocol, list.Path, err)
		}
		group := ListGroup{Path: path, Entries: make([]ListEntry, 0, len(list.Entries))}
		for _, entry := range list.Entries {
			kind, err := GetFileKind(entry.Kind)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", entry.Name, err)
			}
			group.Entries = append(group.Entries, ListEntry{Name: entry.Name, Kind: kind})
		}
		groups = append(groups, group)
	}

	return groups, nil
}

// DecodeRecursiveList decodes `svn ls -R --xml` output: a single <list>
// whose entry names are slash-separated relative paths.
func DecodeRecursiveList(data []byte) ([]ListEntry, error) {
	groups, err := DecodeFlatList(data)
	if err != nil {
		return nil, err
	}
	if len(groups) != 1 {
		return nil, fmt.Errorf("%w: recursive list: expected 1 list, got %d", ErrProtocol, len(groups))
	}
	return groups[0].Entries, nil
}
