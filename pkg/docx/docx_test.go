package docx

import (
	"bytes"
	"strings"
	"testing"

	godocx "github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amz-risk/docflow-cli/internal/render"
)

func buildDoc(t *testing.T, lines ...string) []byte {
	t.Helper()

	d := godocx.New().WithDefaultTheme()
	for _, line := range lines {
		d.AddParagraph().AddText(line)
	}

	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestOpenRenderRoundTrip(t *testing.T) {
	t.Parallel()

	data := buildDoc(t, "Hello {company_name}", "Signed on {today's date}")

	doc, err := Open(data)
	require.NoError(t, err)

	changed := render.Apply(doc, map[string]string{
		"company_name": "Acme Corp",
		"today's date": "August 31, 2026",
	})
	assert.Equal(t, 2, changed)

	out, err := doc.Bytes()
	require.NoError(t, err)

	reopened, err := Open(out)
	require.NoError(t, err)

	var all []string
	for _, p := range reopened.Body().Paragraphs() {
		all = append(all, strings.Join(p.Fragments(), ""))
	}
	joined := strings.Join(all, "\n")
	assert.Contains(t, joined, "Hello Acme Corp")
	assert.Contains(t, joined, "Signed on August 31, 2026")
	assert.NotContains(t, joined, "{company_name}")
}

func TestOpenRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Open([]byte("not a zip archive"))
	assert.Error(t, err)
}

func TestFragmentsPreserveRunBoundaries(t *testing.T) {
	t.Parallel()

	d := godocx.New().WithDefaultTheme()
	p := d.AddParagraph()
	p.AddText("Hello {")
	p.AddText("first_name")
	p.AddText("}")

	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)

	doc, err := Open(buf.Bytes())
	require.NoError(t, err)

	changed := render.Apply(doc, map[string]string{"first_name": "Dana"})
	assert.Equal(t, 1, changed)

	paras := doc.Body().Paragraphs()
	require.Len(t, paras, 1)
	assert.Equal(t, "Hello Dana", strings.Join(paras[0].Fragments(), ""))
}
