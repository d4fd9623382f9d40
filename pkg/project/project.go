// Package project detects which project a session belongs to.
//
// Memories are scoped per project so that recall in one repository never
// surfaces entries from another. Detection prefers the git remote since it
// is stable across clones of the same repository.
package project

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Project identifies the repository a session is running in.
type Project struct {
	// Name is the human-readable identifier, "owner/repo" when a git
	// remote is available, otherwise a directory basename.
	Name string

	// Slug is Name reduced to a filesystem-safe token. Used as the
	// prefix for topic filenames and the memory store scope key.
	Slug string
}

// Detect resolves the current project. Resolution order:
//
//  1. "git remote get-url origin" parsed into owner/repo
//  2. "git rev-parse --show-toplevel" base directory name
//  3. go.mod module path base name
//  4. working directory base name
//
// Detect never fails; with no git and no resolvable working directory it
// returns the project "unknown".
func Detect() Project {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "git", "remote", "get-url", "origin").Output()
	if err == nil {
		if name := ParseRemoteURL(strings.TrimSpace(string(out))); name != "" {
			return Project{Name: name, Slug: Slugify(name)}
		}
	}

	out, err = exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel").Output()
	if err == nil {
		top := strings.TrimSpace(string(out))
		if top != "" {
			name := filepath.Base(top)
			return Project{Name: name, Slug: Slugify(name)}
		}
	}

	if name := moduleName("go.mod"); name != "" {
		return Project{Name: name, Slug: Slugify(name)}
	}

	wd, err := os.Getwd()
	if err != nil || wd == "" {
		return Project{Name: "unknown", Slug: "unknown"}
	}

	name := filepath.Base(wd)
	return Project{Name: name, Slug: Slugify(name)}
}

// moduleName reads the module directive from a go.mod file and returns
// the path's base name, or "" when the file is absent or has no module
// line.
func moduleName(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "module "); ok {
			mod := strings.TrimSpace(rest)
			if mod == "" {
				return ""
			}
			return filepath.Base(mod)
		}
	}
	return ""
}

// ParseRemoteURL extracts "owner/repo" from a git remote URL. It handles
// both SSH (git@host:owner/repo.git) and HTTP(S) forms. Returns "" when
// the URL does not yield at least an owner and repo segment.
func ParseRemoteURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}

	// SSH form: git@github.com:owner/repo.git
	if idx := strings.Index(url, ":"); idx != -1 && strings.Contains(url[:idx], "@") {
		url = url[idx+1:]
	} else {
		// HTTP(S) form: strip scheme and host.
		url = strings.TrimPrefix(url, "https://")
		url = strings.TrimPrefix(url, "http://")
		url = strings.TrimPrefix(url, "ssh://")
		if idx := strings.Index(url, "/"); idx != -1 {
			url = url[idx+1:]
		} else {
			return ""
		}
	}

	url = strings.TrimSuffix(url, "/")
	url = strings.TrimSuffix(url, ".git")

	parts := strings.Split(url, "/")
	if len(parts) < 2 {
		return ""
	}

	owner := parts[len(parts)-2]
	repo := parts[len(parts)-1]
	if owner == "" || repo == "" {
		return ""
	}

	return owner + "/" + repo
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and replaces every run of non-alphanumeric
// characters with a single hyphen.
func Slugify(name string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}
