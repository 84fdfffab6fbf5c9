package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
	"github.com/joseph-ayodele/ipqc-tracker/internal/catalog"
	"github.com/joseph-ayodele/ipqc-tracker/internal/pipeline"
)

// Kind is the shape of a checklist source on disk.
type Kind string

const (
	KindPDF  Kind = "pdf"  // one PDF holding the printed pages
	KindText Kind = "text" // pre-recognized text, pages separated by form feeds
	KindDir  Kind = "dir"  // a directory with one image or text file per page
)

// Source is one checklist found on disk.
type Source struct {
	ChecklistID string `json:"checklist_id"`
	Path        string `json:"path"`
	Kind        Kind   `json:"kind"`
}

// SourceFromPath classifies a single file or directory.
func SourceFromPath(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, err
	}
	src := Source{ChecklistID: ChecklistIDFromPath(path), Path: path}
	if info.IsDir() {
		src.Kind = KindDir
		return src, nil
	}
	switch constants.MapExtToFormat(filepath.Ext(path)) {
	case constants.PDF:
		src.Kind = KindPDF
	case constants.TEXT:
		src.Kind = KindText
	default:
		return Source{}, fmt.Errorf("%s: a checklist must be a PDF, a text file or a directory of pages", path)
	}
	return src, nil
}

var reInvalidID = regexp.MustCompile(`[^A-Za-z0-9._\-]+`)

// ChecklistIDFromPath derives a checklist ID from a file or directory name.
func ChecklistIDFromPath(path string) string {
	base := filepath.Base(filepath.Clean(path))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	id := strings.Trim(reInvalidID.ReplaceAllString(base, "-"), "-._")
	if len(id) > 64 {
		id = id[:64]
	}
	return id
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// LoadPages reads a text or directory source into page inputs. PDF sources are
// rasterized by the pipeline and are not handled here.
func LoadPages(src Source) ([]pipeline.PageInput, error) {
	switch src.Kind {
	case KindText:
		b, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, err
		}
		return textPages(string(b)), nil
	case KindDir:
		return dirPages(src.Path)
	}
	return nil, fmt.Errorf("%s: cannot load pages of a %s source", src.Path, src.Kind)
}

// textPages splits on form feeds; page numbers follow position so a blank page
// does not shift the ones after it.
func textPages(s string) []pipeline.PageInput {
	var out []pipeline.PageInput
	for i, part := range strings.Split(s, "\f") {
		if i >= catalog.PageCount {
			break
		}
		if strings.TrimSpace(part) == "" {
			continue
		}
		out = append(out, pipeline.PageInput{Number: i + 1, Text: part})
	}
	return out
}

var reDigits = regexp.MustCompile(`\d+`)

type pageFile struct {
	path string
	num  int
}

// dirPages reads one page per image or text file. The page number is the last
// number in the file name; files without one take the next free position.
func dirPages(dir string) ([]pipeline.PageInput, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []pageFile
	for _, e := range entries {
		if e.IsDir() || IsHidden(e.Name()) {
			continue
		}
		switch constants.MapExtToFormat(filepath.Ext(e.Name())) {
		case constants.IMAGE, constants.TEXT:
		default:
			continue
		}
		num := 0
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if ds := reDigits.FindAllString(stem, -1); len(ds) > 0 {
			num, _ = strconv.Atoi(ds[len(ds)-1])
		}
		files = append(files, pageFile{path: filepath.Join(dir, e.Name()), num: num})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no page files", dir)
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].num != files[j].num {
			return files[i].num < files[j].num
		}
		return files[i].path < files[j].path
	})

	used := make(map[int]string)
	next := 1
	var out []pipeline.PageInput
	for _, f := range files {
		n := f.num
		if n < 1 || n > catalog.PageCount {
			for used[next] != "" {
				next++
			}
			n = next
		}
		if n > catalog.PageCount {
			return nil, fmt.Errorf("%s: more than %d pages", dir, catalog.PageCount)
		}
		if prev := used[n]; prev != "" {
			return nil, fmt.Errorf("%s: %s and %s are both page %d", dir, filepath.Base(prev), filepath.Base(f.path), n)
		}
		used[n] = f.path

		b, err := os.ReadFile(f.path)
		if err != nil {
			return nil, err
		}
		in := pipeline.PageInput{Number: n}
		if constants.MapExtToFormat(filepath.Ext(f.path)) == constants.TEXT {
			in.Text = string(b)
		} else {
			in.Image = b
		}
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}
