package htmlpdf

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePDF = []byte("%PDF-1.4 fake content for testing")

func newResult() *Result {
	return &Result{data: samplePDF, size: int64(len(samplePDF))}
}

func newFileResult(t *testing.T) *Result {
	t.Helper()
	path := filepath.Join(t.TempDir(), "TemporaryDocumentFile.pdf")
	require.NoError(t, os.WriteFile(path, samplePDF, 0o644))
	return &Result{path: path, size: int64(len(samplePDF))}
}

func TestResult_Bytes(t *testing.T) {
	assert.Equal(t, samplePDF, newResult().Bytes())
}

func TestResult_Base64(t *testing.T) {
	assert.Equal(t, base64.StdEncoding.EncodeToString(samplePDF), newResult().Base64())
}

func TestResult_Reader(t *testing.T) {
	reader := newResult().Reader()
	assert.Equal(t, len(samplePDF), reader.Len())

	buf := make([]byte, len(samplePDF))
	n, err := reader.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, buf[:n])
}

func TestResult_WriteTo(t *testing.T) {
	var buf bytes.Buffer
	n, err := newResult().WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(samplePDF)), n)
	assert.Equal(t, samplePDF, buf.Bytes())
}

func TestResult_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pdf")
	require.NoError(t, newResult().WriteToFile(path, 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, data)
}

func TestResult_Len(t *testing.T) {
	assert.Equal(t, len(samplePDF), newResult().Len())
}

func TestResult_ReaderMultipleCalls(t *testing.T) {
	r := newResult()
	assert.Equal(t, r.Reader().Len(), r.Reader().Len())
}

func TestResult_FileMode(t *testing.T) {
	r := newFileResult(t)
	require.NotEmpty(t, r.Path())
	assert.Equal(t, samplePDF, r.Bytes())
	assert.Equal(t, len(samplePDF), r.Len())

	require.NoError(t, os.Remove(r.Path()))
	assert.Nil(t, r.Bytes())
}

func TestOutcome_OK(t *testing.T) {
	assert.True(t, Outcome{Result: newResult()}.OK())
	assert.False(t, Outcome{Err: ErrBusy}.OK())
}
