package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullCatalog = `
nda:
  candidate: item-nda-cand
  contractor: item-nda-cont
  corporate: item-nda-corp
proposal:
  Risk Assessment: item-prop-risk
  Penetration Testing: item-prop-pen
sow:
  Risk Assessment: item-sow-risk
msa: item-msa
subfolders:
  "01. NDA": item-sub-nda
  "04. SOWs": item-sub-sow
`

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadTemplates(t *testing.T) {
	t.Parallel()

	tpl, err := LoadTemplates(writeCatalog(t, fullCatalog))
	require.NoError(t, err)

	id, ok := tpl.NDATemplate("candidate")
	assert.True(t, ok)
	assert.Equal(t, "item-nda-cand", id)

	// Bucket and service-line lookups are case and whitespace insensitive.
	id, ok = tpl.NDATemplate("  Corporate ")
	assert.True(t, ok)
	assert.Equal(t, "item-nda-corp", id)

	id, ok = tpl.ProposalTemplate("risk assessment")
	assert.True(t, ok)
	assert.Equal(t, "item-prop-risk", id)

	_, ok = tpl.SOWTemplate("Penetration Testing")
	assert.False(t, ok)

	id, ok = tpl.SubfolderTemplate("01. NDA")
	assert.True(t, ok)
	assert.Equal(t, "item-sub-nda", id)

	_, ok = tpl.SubfolderTemplate("05. MSAs")
	assert.False(t, ok)

	assert.Equal(t, "item-msa", tpl.MSA)
}

func TestLoadTemplatesMissingEntries(t *testing.T) {
	t.Parallel()

	_, err := LoadTemplates(writeCatalog(t, `
nda:
  candidate: item-nda-cand
proposal:
  Risk Assessment: item-prop-risk
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nda.contractor")
	assert.Contains(t, err.Error(), "nda.corporate")
	assert.Contains(t, err.Error(), "msa")
	assert.Contains(t, err.Error(), "sow")
}

func TestLoadTemplatesMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadTemplates(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadTemplatesMalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := LoadTemplates(writeCatalog(t, "nda: [unclosed"))
	assert.Error(t, err)
}
