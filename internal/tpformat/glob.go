package tpformat

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// matchedEvent is one (category, event) pair resolved from a wildcard
// target that actually has a format file on disk.
type matchedEvent struct {
	Category string
	Event    string
	Path     string
}

// globGuard owns one open directory handle, scoped to the block that
// listed its entries. Its Close is always invoked via defer on every
// exit path of the function that opened it, success or error — the
// scoped-acquisition pattern spec §9 calls for around the tracepoint
// globber, generalized here from internal/source.FileSet's "a file's
// handle lives exactly as long as the block that needs its entries" idea
// to directory listings instead of source text.
type globGuard struct {
	dir *os.File
}

func openGlobDir(dirPath string) (*globGuard, []fs.DirEntry, error) {
	f, err := os.Open(dirPath)
	if err != nil {
		return nil, nil, err
	}
	entries, err := f.ReadDir(-1)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return &globGuard{dir: f}, entries, nil
}

func (g *globGuard) Close() {
	if g != nil && g.dir != nil {
		g.dir.Close()
	}
}

func hasWildcard(s string) bool {
	return strings.ContainsAny(s, "*?")
}

func matchDirNames(pattern string, entries []fs.DirEntry) []string {
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if ok, err := path.Match(pattern, e.Name()); err == nil && ok {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// globTargets expands a possibly-wildcarded (category, event) pair into
// every matching pair that has a "format" file underneath, mirroring
// glob()'s two path-component expansion in
// tracepoint_format_parser.cpp. A missing events root or category
// directory yields zero matches, not an error — glob(3) itself treats a
// nonexistent path component as no-match, never ENOENT; genuinely
// unexpected errors (e.g. permission denied) still propagate.
func (p *Parser) globTargets(category, event string) ([]matchedEvent, error) {
	root, rootEntries, err := openGlobDir(p.eventsRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer root.Close()

	var matches []matchedEvent
	for _, cat := range matchDirNames(category, rootEntries) {
		catDir := filepath.Join(p.eventsRoot, cat)
		err := func() error {
			catGuard, catEntries, err := openGlobDir(catDir)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			defer catGuard.Close()
			for _, ev := range matchDirNames(event, catEntries) {
				fmtPath := filepath.Join(catDir, ev, "format")
				if _, statErr := os.Stat(fmtPath); statErr == nil {
					matches = append(matches, matchedEvent{Category: cat, Event: ev, Path: fmtPath})
				}
			}
			return nil
		}()
		if err != nil {
			return matches, err
		}
	}
	return matches, nil
}
