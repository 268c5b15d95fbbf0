package svn

// Helpers for absolute repository paths. Every path handled here is
// rooted: it begins with "/", and "/" is its own parent chain terminus.

import (
	"net/url"
	"strings"
)

// ParentPath strips any trailing slash and drops the final path segment.
// The parent of a top-level path, and of "/" itself, is "/".
func ParentPath(path string) string {
	path = strings.TrimRight(path, "/")
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

// BasePath returns the final segment of the path, "" for the root.
func BasePath(path string) string {
	path = strings.TrimRight(path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// Ancestors returns the directory chain above path, nearest first, always
// ending with "/". With includeSelf the path itself leads the list.
// Callers rely on the nearest-ancestor-first ordering.
func Ancestors(path string, includeSelf bool) []string {
	path = strings.TrimRight(path, "/")
	if path == "" {
		path = "/"
	}

	result := make([]string, 0, strings.Count(path, "/")+1)
	if includeSelf {
		result = append(result, path)
	}
	for path != "/" {
		path = ParentPath(path)
		result = append(result, path)
	}
	return result
}

// JoinPath joins a directory and a relative path, tolerating stray
// slashes on either side of the seam.
func JoinPath(dir, rel string) string {
	dir = strings.TrimRight(dir, "/")
	rel = strings.Trim(rel, "/")
	if rel == "" {
		if dir == "" {
			return "/"
		}
		return dir
	}
	return dir + "/" + rel
}

// EncodePath URL-encodes a repository path one segment at a time, so the
// separators survive intact for use in an svn URI.
func EncodePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
