package scraper

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// fileNamer derives destination file names for one batch and keeps them unique.
type fileNamer struct {
	used   map[string]bool
	suffix map[string]int
}

func newFileNamer() *fileNamer {
	return &fileNamer{used: make(map[string]bool), suffix: make(map[string]int)}
}

// next returns the file name for the index-th URL of the batch.
// Names compare case-insensitively, and a suffixed name is never one already handed out.
func (n *fileNamer) next(rawURL string, index int) string {
	name := FileName(rawURL, index)
	key := strings.ToLower(name)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	count := n.suffix[key]
	for n.used[strings.ToLower(candidate)] {
		count++
		candidate = fmt.Sprintf("%s-%d%s", stem, count, ext)
	}
	n.suffix[key] = count
	n.used[strings.ToLower(candidate)] = true
	return candidate
}

// FileName returns the base name of the URL path made safe for the local filesystem.
// URLs without a usable name get "image-<index+1>", keeping the extension when there is one.
func FileName(rawURL string, index int) string {
	var name string
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "." || name == ".." || name == "/" {
		return fmt.Sprintf("image-%d", index+1)
	}

	ext := path.Ext(name)
	stem := strings.Trim(sanitize(strings.TrimSuffix(name, ext)), "_.")
	if ext != "" {
		ext = strings.Trim(sanitize(ext[1:]), "_.")
		if ext != "" {
			ext = "." + ext
		}
	}
	if stem == "" {
		return fmt.Sprintf("image-%d%s", index+1, ext)
	}
	return stem + ext
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
