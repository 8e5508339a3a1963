package docgen

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/amz-risk/docflow-cli/internal/model"
	"github.com/amz-risk/docflow-cli/internal/registry"
)

// ErrTemplateMissing reports a template lookup miss. The affected unit is
// skipped; other units are unaffected.
var ErrTemplateMissing = eris.New("docgen: no template for unit")

// Selector resolves template item IDs from the catalog.
type Selector struct {
	Templates *registry.Templates
}

// NDATemplateID maps a contact type to an NDA template. Selection is total:
// candidates get the candidate template, contractor-like types (contractor,
// employee, partner/producer) the contractor template, and everything else,
// including an unset type, the corporate template.
func (s *Selector) NDATemplateID(contactType string) (string, error) {
	bucket := registry.NDACorporate
	switch strings.ToLower(strings.TrimSpace(contactType)) {
	case "candidate":
		bucket = registry.NDACandidate
	case "contractor", "employee", "partner/producer":
		bucket = registry.NDAContractor
	}
	id, ok := s.Templates.NDATemplate(bucket)
	if !ok {
		return "", eris.Wrapf(ErrTemplateMissing, "nda bucket %q", bucket)
	}
	return id, nil
}

// ProposalTemplateID resolves a proposal template for a service line. An
// unknown line falls back to the default line's template.
func (s *Selector) ProposalTemplateID(line string) (string, error) {
	if id, ok := s.Templates.ProposalTemplate(line); ok {
		return id, nil
	}
	if id, ok := s.Templates.ProposalTemplate(model.FallbackServiceLine); ok {
		return id, nil
	}
	return "", eris.Wrapf(ErrTemplateMissing, "proposal service line %q", line)
}

// SOWTemplateID resolves an SOW template for a service line. Unlike
// proposals there is no fallback: a line with no SOW template skips the unit.
func (s *Selector) SOWTemplateID(line string) (string, error) {
	id, ok := s.Templates.SOWTemplate(line)
	if !ok {
		return "", eris.Wrapf(ErrTemplateMissing, "sow service line %q", line)
	}
	return id, nil
}

// MSATemplateID returns the single MSA template.
func (s *Selector) MSATemplateID() (string, error) {
	if s.Templates.MSA == "" {
		return "", eris.Wrap(ErrTemplateMissing, "msa")
	}
	return s.Templates.MSA, nil
}
