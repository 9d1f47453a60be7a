package loader

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractfill/constants"
	"contractfill/internal/common"
)

type stubRunner struct {
	stdout string
	err    error
	calls  [][]string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	return []byte(s.stdout), nil, s.err
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contract.xyz")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	l := New(Config{}, nil)
	_, err := l.Load(context.Background(), path)
	require.ErrorIs(t, err, common.ErrUnsupportedDocument)
}

func TestLoad_MissingFile(t *testing.T) {
	l := New(Config{}, nil)
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestLoad_FileTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	l := New(Config{MaxFileSize: 4}, nil)
	_, err := l.Load(context.Background(), path)
	require.ErrorIs(t, err, common.ErrUnsupportedDocument)
}

func TestLoad_Text(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("Client: Acme Corp\r\nAmount: $1,200.00\r\n"), 0o644))

	l := New(Config{}, nil)
	res, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.TXT, res.Format)
	assert.Equal(t, "txt", res.Method)
	assert.Equal(t, "Client: Acme Corp\nAmount: $1,200.00", res.Text)
	assert.Equal(t, 1, res.Pages)
}

func TestLoad_Docx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.docx")
	writeDocx(t, path, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Service Agreement</w:t></w:r></w:p>
    <w:p><w:r><w:t>Client: Acme Corp</w:t></w:r></w:p>
    <w:p></w:p>
  </w:body>
</w:document>`)

	l := New(Config{}, nil)
	res, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "docx", res.Method)
	assert.Equal(t, "Service Agreement\nClient: Acme Corp", res.Text)
}

func TestLoad_DocxWithoutDocumentXML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.docx")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("other.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	l := New(Config{}, nil)
	_, err = l.Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document.xml")
}

func TestLoad_HTML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.html")
	page := `<html><head><title>Contract</title><script>ignored()</script></head>
<body>
  <nav>skip this</nav>
  <h1>Service Agreement</h1>
  <p>Client:   Acme Corp</p>
  <p style="display:none">hidden text</p>
</body></html>`
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))

	l := New(Config{}, nil)
	res, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "html", res.Method)
	assert.Contains(t, res.Text, "Service Agreement")
	assert.Contains(t, res.Text, "Client: Acme Corp")
	assert.NotContains(t, res.Text, "skip this")
	assert.NotContains(t, res.Text, "hidden text")
}

func TestLoad_ImageUsesTesseract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("fake-png"), 0o644))

	stub := &stubRunner{stdout: "Invoice 2024-03-30\nTotal 1,200.00 due from Acme Corp office\n"}
	l := New(Config{}, nil)
	l.runner = stub

	res, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Contains(t, res.Text, "Acme Corp")
	assert.Greater(t, res.Confidence, float32(0))

	require.Len(t, stub.calls, 1)
	assert.Equal(t, "tesseract", stub.calls[0][0])
	assert.Equal(t, path, stub.calls[0][1])
}

func TestHeuristicConfidence(t *testing.T) {
	assert.Equal(t, float32(0), heuristicConfidence("   "))

	strong := "Agreement effective 2024-03-30 between Acme Corp and Beta LLC for a total of 1,200.00 " +
		"payable within thirty days of the signature date by both named parties hereto"
	weak := "@@ ## %%"
	assert.Greater(t, heuristicConfidence(strong), heuristicConfidence(weak))
}

func TestPDFStreamTextDecode(t *testing.T) {
	stream := []byte("BT\n(Service) Tj\n(Agreement \\(v2\\)) Tj\nT*\n[(Total) -120 (1200.00)] TJ\nET")
	out := extractTextFromStream(stream)
	assert.Contains(t, out, "Service")
	assert.Contains(t, out, "Agreement (v2)")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "1200.00")
}

func writeDocx(t *testing.T, path, documentXML string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}
