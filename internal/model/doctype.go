package model

// DocType identifies one of the four generated legal document kinds.
type DocType string

const (
	DocNDA      DocType = "nda"
	DocProposal DocType = "proposal"
	DocSOW      DocType = "sow"
	DocMSA      DocType = "msa"
)

// StatusField returns the CRM property that gates this document type.
func (d DocType) StatusField() string {
	return string(d) + "_status"
}

// AllDocTypes is the fixed processing order of a run: all NDA work completes
// before Proposal work begins, and so on.
var AllDocTypes = []DocType{DocNDA, DocProposal, DocSOW, DocMSA}

// FallbackServiceLine is used when a deal's service-line multi-select
// resolves to nothing.
const FallbackServiceLine = "Risk Assessment"
