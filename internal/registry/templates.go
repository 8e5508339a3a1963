// Package registry loads the template catalog: the drive item IDs of the
// source documents each generation flow copies from.
package registry

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// NDA template buckets.
const (
	NDACandidate  = "candidate"
	NDAContractor = "contractor"
	NDACorporate  = "corporate"
)

// Templates maps document families to the drive item IDs of their
// source files.
type Templates struct {
	// NDA template item IDs keyed by bucket (candidate, contractor,
	// corporate).
	NDA map[string]string `yaml:"nda"`
	// Proposal and SOW template item IDs keyed by service line.
	Proposal map[string]string `yaml:"proposal"`
	SOW      map[string]string `yaml:"sow"`
	// MSA has a single template.
	MSA string `yaml:"msa"`
	// Subfolders maps client subfolder names ("01. NDA", ...) to the
	// drive item IDs of the folders they are provisioned from.
	Subfolders map[string]string `yaml:"subfolders"`
}

// LoadTemplates reads and validates the template catalog at path.
func LoadTemplates(path string) (*Templates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read template catalog")
	}

	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal template catalog")
	}

	t.NDA = normalizeKeys(t.NDA)
	t.Proposal = normalizeKeys(t.Proposal)
	t.SOW = normalizeKeys(t.SOW)
	t.MSA = strings.TrimSpace(t.MSA)

	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Templates) validate() error {
	var missing []string
	for _, bucket := range []string{NDACandidate, NDAContractor, NDACorporate} {
		if t.NDA[bucket] == "" {
			missing = append(missing, "nda."+bucket)
		}
	}
	if len(t.Proposal) == 0 {
		missing = append(missing, "proposal")
	}
	if len(t.SOW) == 0 {
		missing = append(missing, "sow")
	}
	if t.MSA == "" {
		missing = append(missing, "msa")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return eris.Errorf("registry: template catalog missing entries: %s", strings.Join(missing, ", "))
	}
	return nil
}

// NDATemplate resolves the template item ID for an NDA bucket.
func (t *Templates) NDATemplate(bucket string) (string, bool) {
	id, ok := t.NDA[normalize(bucket)]
	return id, ok
}

// ProposalTemplate resolves the template item ID for a proposal service line.
func (t *Templates) ProposalTemplate(line string) (string, bool) {
	id, ok := t.Proposal[normalize(line)]
	return id, ok
}

// SOWTemplate resolves the template item ID for an SOW service line.
func (t *Templates) SOWTemplate(line string) (string, bool) {
	id, ok := t.SOW[normalize(line)]
	return id, ok
}

// SubfolderTemplate resolves the drive folder a client subfolder is copied
// from, if the catalog provisions it by copy rather than plain creation.
func (t *Templates) SubfolderTemplate(name string) (string, bool) {
	id, ok := t.Subfolders[strings.TrimSpace(name)]
	return id, ok
}

func normalizeKeys(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[normalize(k)] = strings.TrimSpace(v)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
