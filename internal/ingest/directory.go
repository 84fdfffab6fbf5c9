package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
)

type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
}

// ScanDirectory lists the checklists directly under root: each PDF or text
// file is one checklist, and so is each sub-directory that holds page files.
// Results are sorted by path.
func ScanDirectory(root string, skipHidden bool) ([]Source, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, errors.New("root path is required")
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, stats, fmt.Errorf("read dir: %w", err)
	}

	var out []Source
	for _, e := range entries {
		stats.Scanned++
		path := filepath.Join(root, e.Name())
		if skipHidden && IsHidden(path) {
			stats.Skipped++
			continue
		}
		if e.IsDir() {
			if !hasPageFiles(path) {
				stats.Skipped++
				continue
			}
			out = append(out, Source{ChecklistID: ChecklistIDFromPath(path), Path: path, Kind: KindDir})
			stats.Matched++
			continue
		}
		src, err := SourceFromPath(path)
		if err != nil {
			stats.Skipped++
			continue
		}
		out = append(out, src)
		stats.Matched++
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, stats, nil
}

func hasPageFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() || IsHidden(e.Name()) {
			continue
		}
		switch constants.MapExtToFormat(filepath.Ext(e.Name())) {
		case constants.IMAGE, constants.TEXT:
			return true
		}
	}
	return false
}
