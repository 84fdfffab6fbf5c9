package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
)

type call struct {
	name string
	args []string
}

// stubRunner answers each binary with a canned function and records calls.
type stubRunner struct {
	calls []call
	fn    map[string]func(args []string) ([]byte, error)
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, call{name: name, args: args})
	f, ok := s.fn[name]
	if !ok {
		return nil, []byte("not stubbed"), errors.New("exec: " + name + ": not found")
	}
	out, err := f(args)
	return out, nil, err
}

func (s *stubRunner) count(name string) int {
	n := 0
	for _, c := range s.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

// pdftoppmWrites fakes pdftoppm -singlefile by writing <prefix>.png.
func pdftoppmWrites(content string) func([]string) ([]byte, error) {
	return func(args []string) ([]byte, error) {
		prefix := args[len(args)-1]
		return nil, os.WriteFile(prefix+".png", []byte(content), 0o600)
	}
}

func newStubbed(fn map[string]func([]string) ([]byte, error)) (*Extractor, *stubRunner) {
	r := &stubRunner{fn: fn}
	e := NewExtractor(Config{}, nil)
	e.runner = r
	return e, r
}

func TestNormalize(t *testing.T) {
	in := "Temperature\r\n２３℃\t\t  ok\n\n\n\nHumidity  45%  \n-----\n"
	assert.Equal(t, "Temperature\n23°C ok\n\nHumidity 45%", Normalize(in))
	assert.Equal(t, "", Normalize(""))
}

func TestExtractor_Recognize(t *testing.T) {
	e, r := newStubbed(map[string]func([]string) ([]byte, error){
		"tesseract": func([]string) ([]byte, error) { return []byte("Temperature  23℃\n"), nil },
	})

	txt, err := e.Recognize(context.Background(), []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "Temperature 23°C", txt)
	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"stdout", "-l", "eng"}, r.calls[0].args[1:4])

	_, err = e.Recognize(context.Background(), nil)
	assert.Error(t, err)
}

func TestExtractor_RasterizePage(t *testing.T) {
	e, r := newStubbed(map[string]func([]string) ([]byte, error){
		"pdftoppm": pdftoppmWrites("PNG3"),
	})

	img, err := e.RasterizePage(context.Background(), []byte("%PDF-1.7"), 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("PNG3"), img)
	assert.Contains(t, strings.Join(r.calls[0].args, " "), "-f 3 -l 3 -singlefile")

	_, err = e.RasterizePage(context.Background(), []byte("%PDF-1.7"), 0)
	assert.Error(t, err)
}

func TestExtractor_PageCount(t *testing.T) {
	e, _ := newStubbed(map[string]func([]string) ([]byte, error){
		"pdfinfo": func([]string) ([]byte, error) { return []byte("Producer: scanner\nPages:          7\n"), nil },
	})
	n, err := e.PageCount(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestExtractor_ExtractPDF_FallsBackToOCRPerPage(t *testing.T) {
	page1 := "IPQC Check Sheet\nTabber & Stringer\nVisual Check after Stringing OK\nTemperature 23°C"
	e, r := newStubbed(map[string]func([]string) ([]byte, error){
		"pdftotext": func([]string) ([]byte, error) { return []byte(page1 + "\f   \f"), nil },
		"pdftoppm":  pdftoppmWrites("PNG"),
		"tesseract": func([]string) ([]byte, error) { return []byte("Laminator monitoring OK"), nil },
	})
	path := filepath.Join(t.TempDir(), "sheet.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.PDF, res.SourceType)
	require.Len(t, res.Pages, 2)
	assert.Equal(t, "pdf-text", res.Pages[0].Method)
	assert.Equal(t, "pdf-ocr", res.Pages[1].Method)
	assert.Equal(t, 2, res.Pages[1].Number)
	assert.Equal(t, "Laminator monitoring OK", res.Pages[1].Text)
	assert.Equal(t, 1, r.count("pdftoppm"))
}

func TestExtractor_ExtractText(t *testing.T) {
	e, r := newStubbed(nil)
	path := filepath.Join(t.TempDir(), "pages.txt")
	require.NoError(t, os.WriteFile(path, []byte("Temperature 23℃\fString length 1163\f"), 0o600))

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, res.Pages, 2)
	assert.Equal(t, "Temperature 23°C", res.Pages[0].Text)
	assert.Empty(t, r.calls)

	_, err = e.Extract(context.Background(), "sheet.docx")
	assert.Error(t, err)
}

func TestHeuristicConfidence(t *testing.T) {
	assert.Zero(t, heuristicConfidence("  \n "))
	low := heuristicConfidence(strings.Repeat("lorem ipsum ", 5))
	high := heuristicConfidence("IPQC Stringer Tabber Framing OK GS04875TG2312345678 18.5 mm " + strings.Repeat("x", 400))
	assert.Less(t, low, float32(TextLayerThreshold))
	assert.GreaterOrEqual(t, high, float32(TextLayerThreshold))
	assert.LessOrEqual(t, high, float32(1))
}
