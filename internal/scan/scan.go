// Package scan walks the media directory and reports the video files
// it contains. Scanning is stat-only; file contents are never read.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo describes one discovered media file, paths relative to the
// scan root and slash-separated.
type FileInfo struct {
	RelPath string
	Dir     string
	Name    string
	Size    int64
	ModTime time.Time
}

// Scanner walks a media root for video files.
type Scanner struct {
	root string
}

// New constructs a Scanner rooted at the provided directory.
func New(root string) *Scanner {
	return &Scanner{root: filepath.Clean(root)}
}

// ScanVideos walks the root and returns every video file, sorted by
// relative path so the result is stable across platforms.
func (s *Scanner) ScanVideos() ([]FileInfo, error) {
	files := make([]FileInfo, 0, 128)

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			// Hidden directories hold sidecar data, not media.
			if d.Name() != "." && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if !isVideoExt(strings.ToLower(filepath.Ext(name))) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		dir := filepath.ToSlash(filepath.Dir(rel))
		if dir == "." {
			dir = ""
		}

		files = append(files, FileInfo{
			RelPath: rel,
			Dir:     dir,
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan media root %s: %w", s.root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func isVideoExt(ext string) bool {
	switch ext {
	case ".mp4", ".mkv", ".avi", ".webm", ".mov":
		return true
	default:
		return false
	}
}
