package docgen

import (
	"time"

	"github.com/amz-risk/docflow-cli/internal/model"
)

// MatchMode selects the existence-check semantics for generated files.
type MatchMode int

const (
	// MatchExact requires a child with exactly the computed filename.
	MatchExact MatchMode = iota
	// MatchPrefix accepts any child whose name starts with the match key.
	// MSA filenames carry no service line, so the prefix is the right
	// dedupe granularity there.
	MatchPrefix
)

// Unit is one unit of work: an entity under one flow, with related records
// resolved (each independently optional) and, for deal flows, one service
// line.
type Unit struct {
	Company     model.Company
	Contact     model.Contact
	Deal        model.Deal
	Owner       model.Owner
	ServiceLine string
	// Day is the run's date; it stamps filenames and date fields.
	Day time.Time
}

// CompanyName returns the company display name, with the placeholder used
// for unnamed records.
func (u *Unit) CompanyName() string {
	if n := u.Company.Name(); n != "" {
		return n
	}
	return "Unknown Company"
}

// Label describes the unit in logs and notifications.
func (u *Unit) Label() string {
	if u.ServiceLine != "" {
		return u.CompanyName() + " / " + u.ServiceLine
	}
	return u.CompanyName()
}

// StatusPatch is one CRM write marking a document done.
type StatusPatch struct {
	ObjectType string
	ID         string
	Props      map[string]string
}

// Flow parameterizes the generation engine for one document type: which
// status fields gate it, where documents land, how files are named and
// matched, which template serves a unit, and which CRM records are patched
// on completion. Everything else is shared.
type Flow struct {
	Type model.DocType

	// Source is the CRM collection the driver iterates.
	Source string

	// Subfolder under a client folder. Vendor documents land in the
	// company's root folder directly.
	Subfolder string

	// ContactGate lets the primary contact's status request generation in
	// addition to the entity's own.
	ContactGate bool

	// PropagateOnExists patches status when the file is already present:
	// existence implies generated, however the file came to be.
	PropagateOnExists bool

	// ClientOnly excludes vendor/partner companies from the flow entirely.
	ClientOnly bool

	Match  MatchMode
	Fields Schema

	// EntityProps are fetched for the iterated collection; CompanyProps for
	// the associated company on deal flows; ContactProps for the primary
	// contact.
	EntityProps  []string
	CompanyProps []string
	ContactProps []string

	// FileName computes the deterministic target filename.
	FileName func(u *Unit) string
	// MatchKey is compared against folder entries per Match mode.
	MatchKey func(u *Unit) string
	Template func(s *Selector, u *Unit) (string, error)
	Patches  func(u *Unit) []StatusPatch
}

// EntityStatus returns the unit's own gating tag for this flow.
func (f Flow) EntityStatus(u *Unit) string {
	if f.Source == model.ObjectDeals {
		return u.Deal.Props.Get(f.Type.StatusField())
	}
	return u.Company.Props.Get(f.Type.StatusField())
}

// AllFlows returns the four flows in their fixed processing order.
func AllFlows(prefix string, contactGate bool) []Flow {
	return []Flow{
		NDAFlow(prefix, contactGate),
		ProposalFlow(prefix),
		SOWFlow(prefix),
		MSAFlow(prefix, contactGate),
	}
}

// NDAFlow generates one NDA per company, personalized for the primary
// contact.
func NDAFlow(prefix string, contactGate bool) Flow {
	return Flow{
		Type:              model.DocNDA,
		Source:            model.ObjectCompanies,
		Subfolder:         "01. NDA",
		ContactGate:       contactGate,
		PropagateOnExists: true,
		Match:             MatchExact,
		Fields:            ndaSchema,
		EntityProps:       []string{"name", "address", "city", "state_list", "zip", "company_category", "nda_status"},
		ContactProps:      []string{"firstname", "lastname", "email", "jobtitle", "contact_type", "nda_status"},
		FileName: func(u *Unit) string {
			label := NDATypeLabel(u.Contact.Props.Get("contact_type"))
			return NDAFileName(prefix, label, u.Contact.Props.Get("firstname"), u.Contact.Props.Get("lastname"), u.Day)
		},
		MatchKey: func(u *Unit) string {
			label := NDATypeLabel(u.Contact.Props.Get("contact_type"))
			return NDAFileName(prefix, label, u.Contact.Props.Get("firstname"), u.Contact.Props.Get("lastname"), u.Day)
		},
		Template: func(s *Selector, u *Unit) (string, error) {
			return s.NDATemplateID(u.Contact.Props.Get("contact_type"))
		},
		Patches: companyPatches(model.DocNDA),
	}
}

// ProposalFlow generates one proposal per deal and service line.
func ProposalFlow(prefix string) Flow {
	return Flow{
		Type:         model.DocProposal,
		Source:       model.ObjectDeals,
		Subfolder:    "02. Proposals",
		ClientOnly:   true,
		Match:        MatchExact,
		Fields:       proposalSchema,
		EntityProps:  []string{"dealname", "proposal_status", "proposal___service_line", "hubspot_owner_id"},
		CompanyProps: []string{"name", "address", "city", "state_list", "zip", "company_category"},
		ContactProps: []string{"firstname", "lastname", "email", "jobtitle"},
		FileName: func(u *Unit) string {
			return ProposalFileName(prefix, u.CompanyName(), u.ServiceLine, u.Day)
		},
		MatchKey: func(u *Unit) string {
			return ProposalFileName(prefix, u.CompanyName(), u.ServiceLine, u.Day)
		},
		Template: func(s *Selector, u *Unit) (string, error) {
			return s.ProposalTemplateID(u.ServiceLine)
		},
		Patches: dealPatches(model.DocProposal),
	}
}

// SOWFlow generates one statement of work per deal and service line.
func SOWFlow(prefix string) Flow {
	return Flow{
		Type:              model.DocSOW,
		Source:            model.ObjectDeals,
		Subfolder:         "04. SOWs",
		ClientOnly:        true,
		PropagateOnExists: true,
		Match:             MatchExact,
		Fields:            sowSchema,
		EntityProps:       []string{"dealname", "sow_status", "proposal___service_line", "hubspot_owner_id"},
		CompanyProps:      []string{"name", "address", "city", "state_list", "zip", "company_category"},
		ContactProps:      []string{"firstname", "lastname", "email", "jobtitle"},
		FileName: func(u *Unit) string {
			return SOWFileName(prefix, u.CompanyName(), u.ServiceLine, u.Day)
		},
		MatchKey: func(u *Unit) string {
			return SOWFileName(prefix, u.CompanyName(), u.ServiceLine, u.Day)
		},
		Template: func(s *Selector, u *Unit) (string, error) {
			return s.SOWTemplateID(u.ServiceLine)
		},
		Patches: dealPatches(model.DocSOW),
	}
}

// MSAFlow generates one master service agreement per company.
func MSAFlow(prefix string, contactGate bool) Flow {
	return Flow{
		Type:              model.DocMSA,
		Source:            model.ObjectCompanies,
		Subfolder:         "05. MSAs",
		ContactGate:       contactGate,
		PropagateOnExists: true,
		Match:             MatchPrefix,
		Fields:            msaSchema,
		EntityProps:       []string{"name", "address", "city", "state_list", "zip", "company_category", "msa_status"},
		ContactProps:      []string{"firstname", "lastname", "email", "jobtitle", "msa_status"},
		FileName: func(u *Unit) string {
			return MSAFileName(prefix, u.CompanyName(), u.Day)
		},
		MatchKey: func(u *Unit) string {
			return MSANamePrefix(prefix, u.CompanyName())
		},
		Template: func(s *Selector, u *Unit) (string, error) {
			return s.MSATemplateID()
		},
		Patches: companyPatches(model.DocMSA),
	}
}

// companyPatches marks both sides of the company/contact pair done. The
// contact patch is skipped when no contact resolved.
func companyPatches(d model.DocType) func(u *Unit) []StatusPatch {
	field := d.StatusField()
	return func(u *Unit) []StatusPatch {
		patches := []StatusPatch{{
			ObjectType: model.ObjectCompanies,
			ID:         u.Company.ID,
			Props:      map[string]string{field: model.TagGeneratedCompany},
		}}
		if u.Contact.ID != "" {
			patches = append(patches, StatusPatch{
				ObjectType: model.ObjectContacts,
				ID:         u.Contact.ID,
				Props:      map[string]string{field: model.TagGeneratedContact},
			})
		}
		return patches
	}
}

func dealPatches(d model.DocType) func(u *Unit) []StatusPatch {
	field := d.StatusField()
	return func(u *Unit) []StatusPatch {
		return []StatusPatch{{
			ObjectType: model.ObjectDeals,
			ID:         u.Deal.ID,
			Props:      map[string]string{field: model.TagGeneratedDeal},
		}}
	}
}
