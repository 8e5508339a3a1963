package model

import "strings"

// Status tag values observed in the CRM. The request tag is matched
// case-insensitively; the done tags keep the casing the CRM reports were
// built around (lowercase on companies, title case on contacts and deals).
const (
	TagGenerate         = "generate"
	TagGeneratedCompany = "generated"
	TagGeneratedContact = "Generated"
	TagGeneratedDeal    = "Generated"
)

// CRM object type identifiers as they appear in API paths.
const (
	ObjectCompanies = "companies"
	ObjectContacts  = "contacts"
	ObjectDeals     = "deals"
)

// Properties is a bag of named CRM attributes. Missing keys resolve to the
// empty string, never to a null marker.
type Properties map[string]string

// Get returns the trimmed value for key, or "" when absent.
func (p Properties) Get(key string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p[key])
}

// Company is a company record sourced from the CRM.
type Company struct {
	ID    string     `json:"id"`
	Props Properties `json:"properties"`
}

// Name returns the company display name.
func (c Company) Name() string { return c.Props.Get("name") }

// Contact is a contact record sourced from the CRM.
type Contact struct {
	ID    string     `json:"id"`
	Props Properties `json:"properties"`
}

// Deal is a deal record sourced from the CRM.
type Deal struct {
	ID    string     `json:"id"`
	Props Properties `json:"properties"`
}

// Name returns the deal display name.
func (d Deal) Name() string { return d.Props.Get("dealname") }

// Owner is a CRM owner (sales rep) resolved for personalization fields.
type Owner struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// FullName returns "First Last" with surrounding whitespace trimmed.
func (o Owner) FullName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

// RequestsGeneration reports whether a status tag asks for a document to be
// generated. The tag domain is free text; matching is case-insensitive and
// whitespace-tolerant, so "Generate " and " GENERATE" gate identically.
func RequestsGeneration(tag string) bool {
	return strings.EqualFold(strings.TrimSpace(tag), TagGenerate)
}

// Category classifies an entity's folder root: client folders get numbered
// per-document-type subfolders, vendor/partner folders do not.
type Category string

const (
	CategoryClient Category = "client"
	CategoryVendor Category = "vendor"
)

// CategoryOf maps the company category property to a folder category.
// Anything that is not explicitly vendor or partner is a client.
func CategoryOf(props Properties) Category {
	switch strings.ToLower(props.Get("company_category")) {
	case "vendor", "partner", "vendor/partner":
		return CategoryVendor
	default:
		return CategoryClient
	}
}
