// Package discovery finds session files on disk, enriches them with
// summaries, ranks them by recency or query relevance and resolves
// session identifiers.
package discovery

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yoavf/as-i-was-saying/adapters"
	"github.com/yoavf/as-i-was-saying/model"
)

// ScanOptions bounds a scan.
type ScanOptions struct {
	// Cutoff drops files modified before it. The zero time keeps everything.
	Cutoff time.Time

	// ProjectCap limits per-project layouts to the most recently modified
	// project directories. Zero or less scans every project.
	ProjectCap int
}

func (o ScanOptions) keep(info fs.FileInfo) bool {
	return o.Cutoff.IsZero() || !info.ModTime().Before(o.Cutoff)
}

// Scan lazily enumerates the session files under root. Only file facts
// (path, backend, mtime, size) are filled in; contents are not read. The
// sequence holds no state between iterations, so ranging over it again
// rescans the directory.
func Scan(root string, adapter adapters.Adapter, opts ScanOptions) iter.Seq[model.SessionDescriptor] {
	layout := adapter.Layout()
	backend := adapter.Backend()
	if layout.ChatsDir != "" {
		return scanProjects(root, backend, layout, opts)
	}
	return scanTree(root, backend, layout, opts)
}

func newDescriptor(path string, backend model.Backend, info fs.FileInfo) model.SessionDescriptor {
	return model.SessionDescriptor{
		Path:    path,
		Backend: backend,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}
}

// scanTree walks root recursively for files with the layout's extension.
func scanTree(root string, backend model.Backend, layout adapters.Layout, opts ScanOptions) iter.Seq[model.SessionDescriptor] {
	return func(yield func(model.SessionDescriptor) bool) {
		_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return nil // Skip unreadable entries
			}
			if entry.IsDir() {
				return nil
			}

			name := entry.Name()
			if !strings.HasSuffix(name, layout.Extension) {
				return nil
			}
			if layout.Exclude != "" && strings.Contains(name, layout.Exclude) {
				return nil
			}

			info, err := os.Stat(path)
			if err != nil || info.IsDir() || !opts.keep(info) {
				return nil
			}

			if !yield(newDescriptor(path, backend, info)) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

type projectDir struct {
	path    string
	name    string
	modTime time.Time
}

// scanProjects lists the newest project directories under root and the
// session files inside each project's chats directory.
func scanProjects(root string, backend model.Backend, layout adapters.Layout, opts ScanOptions) iter.Seq[model.SessionDescriptor] {
	return func(yield func(model.SessionDescriptor) bool) {
		for _, project := range recentProjects(root, opts.ProjectCap) {
			chatsDir := filepath.Join(project.path, layout.ChatsDir)
			entries, err := os.ReadDir(chatsDir)
			if err != nil {
				continue // Projects without chats
			}

			for _, entry := range entries {
				if matched, _ := filepath.Match(layout.FilePattern, entry.Name()); !matched {
					continue
				}
				path := filepath.Join(chatsDir, entry.Name())
				info, err := os.Stat(path)
				if err != nil || info.IsDir() || !opts.keep(info) {
					continue
				}
				if !yield(newDescriptor(path, backend, info)) {
					return
				}
			}
		}
	}
}

// recentProjects returns the project directories of root, newest first,
// keeping at most limit of them when limit is positive.
func recentProjects(root string, limit int) []projectDir {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var projects []projectDir
	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		projects = append(projects, projectDir{path: path, name: entry.Name(), modTime: info.ModTime()})
	}

	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].modTime.Equal(projects[j].modTime) {
			return projects[i].modTime.After(projects[j].modTime)
		}
		return projects[i].name < projects[j].name
	})

	if limit > 0 && len(projects) > limit {
		projects = projects[:limit]
	}
	return projects
}
