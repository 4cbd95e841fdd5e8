package htmlpdf_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	htmlpdf "github.com/porticus-lab/go-native-html-pdf"
)

// chromeAvailable reports whether a Chrome/Chromium executable is in PATH.
func chromeAvailable() bool {
	for _, name := range []string{
		"chromium-browser", "chromium", "google-chrome",
		"google-chrome-stable", "chrome",
	} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

func skipIfNoChrome(t *testing.T) {
	t.Helper()
	if !chromeAvailable() {
		t.Skip("skipping: Chrome/Chromium not found in PATH")
	}
}

func newTestConverter(t *testing.T) *htmlpdf.Converter {
	t.Helper()
	skipIfNoChrome(t)
	dir := t.TempDir()
	c, err := htmlpdf.NewConverter(
		htmlpdf.WithNoSandbox(),
		htmlpdf.WithFilesDir(filepath.Join(dir, "files")),
		htmlpdf.WithCacheDir(filepath.Join(dir, "cache")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// isPDF checks whether data starts with the PDF magic number.
func isPDF(data []byte) bool {
	return len(data) > 4 && string(data[:5]) == "%PDF-"
}

func TestChrome_ConvertToBytes(t *testing.T) {
	c := newTestConverter(t)

	data, err := c.ConvertToBytes(context.Background(), "<html><body>hi</body></html>", nil)
	require.NoError(t, err)
	require.True(t, isPDF(data), "output is not a valid PDF")
	assert.GreaterOrEqual(t, len(data), 100, "PDF unexpectedly small")
}

func TestChrome_ConvertToFile(t *testing.T) {
	c := newTestConverter(t)

	src := filepath.Join(t.TempDir(), "test.html")
	require.NoError(t, os.WriteFile(src, []byte("<h1>From File</h1>"), 0o644))

	path, err := c.ConvertToFile(context.Background(), src, nil)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, isPDF(data), "output is not a valid PDF")
}

func TestChrome_BrokenImage(t *testing.T) {
	c := newTestConverter(t)

	html := `<html><body><img src="file:///nonexistent/broken.png"><p>after</p></body></html>`
	data, err := c.ConvertToBytes(context.Background(), html, &htmlpdf.Letter)
	require.NoError(t, err)
	assert.True(t, isPDF(data), "output is not a valid PDF")
}

func TestChrome_BackToBackBusy(t *testing.T) {
	c := newTestConverter(t)

	first := make(chan htmlpdf.Outcome, 1)
	second := make(chan htmlpdf.Outcome, 1)
	c.Submit(context.Background(), htmlpdf.BytesRequest("<p>one</p>", nil),
		htmlpdf.SinkFunc(func(o htmlpdf.Outcome) { first <- o }))
	c.Submit(context.Background(), htmlpdf.BytesRequest("<p>two</p>", nil),
		htmlpdf.SinkFunc(func(o htmlpdf.Outcome) { second <- o }))

	assert.ErrorIs(t, (<-second).Err, htmlpdf.ErrBusy)
	o := <-first
	require.NoError(t, o.Err)
	assert.True(t, isPDF(o.Result.Bytes()), "output is not a valid PDF")
}

func TestChrome_AllPageSizes(t *testing.T) {
	c := newTestConverter(t)

	sizes := []struct {
		name string
		size htmlpdf.PageSize
	}{
		{"A3", htmlpdf.A3},
		{"A4", htmlpdf.A4},
		{"A5", htmlpdf.A5},
		{"Letter", htmlpdf.Letter},
		{"Legal", htmlpdf.Legal},
		{"Tabloid", htmlpdf.Tabloid},
	}

	for _, s := range sizes {
		t.Run(s.name, func(t *testing.T) {
			res, err := c.Convert(context.Background(), htmlpdf.BytesRequest("<p>"+s.name+"</p>", &s.size))
			require.NoError(t, err)
			assert.True(t, isPDF(res.Bytes()), "output is not a valid PDF")
		})
	}
}

func TestChrome_CloseIdempotent(t *testing.T) {
	skipIfNoChrome(t)

	c, err := htmlpdf.NewConverter(htmlpdf.WithNoSandbox())
	require.NoError(t, err)

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestChrome_UsedAfterClose(t *testing.T) {
	skipIfNoChrome(t)

	c, err := htmlpdf.NewConverter(htmlpdf.WithNoSandbox())
	require.NoError(t, err)
	c.Close()

	_, err = c.ConvertToBytes(context.Background(), "<p>test</p>", nil)
	assert.ErrorIs(t, err, htmlpdf.ErrClosed)
}

func TestChrome_PackageLevel(t *testing.T) {
	skipIfNoChrome(t)

	dir := t.TempDir()
	data, err := htmlpdf.ConvertToBytes(
		context.Background(),
		"<p>Package-level function</p>",
		nil,
		htmlpdf.WithNoSandbox(),
		htmlpdf.WithCacheDir(dir),
	)
	require.NoError(t, err)
	assert.True(t, isPDF(data), "output is not a valid PDF")
}
