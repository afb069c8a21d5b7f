package docx

import (
	"bytes"
	"testing"

	godocx "github.com/fumiama/go-docx"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	doc := godocx.New().WithDefaultTheme()
	for _, p := range paragraphs {
		doc.AddParagraph().AddText(p)
	}

	var buf bytes.Buffer
	_, err := doc.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExtractTextReturnsParagraphsInOrder(t *testing.T) {
	t.Parallel()

	data := buildDocx(t, "Quarterly inflation summary", "Prices rose 0.3 percent")

	text, err := New().ExtractText(data)
	require.NoError(t, err)
	require.Contains(t, text, "Quarterly inflation summary")
	require.Contains(t, text, "Prices rose 0.3 percent")
	require.Less(t,
		bytes.Index([]byte(text), []byte("Quarterly")),
		bytes.Index([]byte(text), []byte("Prices")),
	)
}

func TestExtractTextSkipsEmptyParagraphs(t *testing.T) {
	t.Parallel()

	data := buildDocx(t, "first", "", "second")

	text, err := New().ExtractText(data)
	require.NoError(t, err)
	require.NotContains(t, text, "\n\n")
}

func TestExtractTextRejectsNonArchiveBytes(t *testing.T) {
	t.Parallel()

	_, err := New().ExtractText([]byte("plain text, not a zip archive"))
	require.Error(t, err)
}
