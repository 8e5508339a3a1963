package hubspot

import "strings"

// Record is a CRM object (company, contact, or deal) as returned by the v3
// objects API. Property values are kept raw: most arrive as strings, but
// multi-select fields may arrive as a list of option records.
type Record struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
}

// Str returns the property as a trimmed string, or "" when absent or not a
// string value.
func (r Record) Str(key string) string {
	if r.Properties == nil {
		return ""
	}
	if s, ok := r.Properties[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Raw returns the property value as decoded, or nil when absent.
func (r Record) Raw(key string) any {
	if r.Properties == nil {
		return nil
	}
	return r.Properties[key]
}

// StrProps flattens all properties to trimmed strings, dropping values that
// are not strings. Useful for handing records to the field-map layer.
func (r Record) StrProps() map[string]string {
	out := make(map[string]string, len(r.Properties))
	for k, v := range r.Properties {
		if s, ok := v.(string); ok {
			out[k] = strings.TrimSpace(s)
		}
	}
	return out
}

// Owner is a CRM owner (sales rep).
type Owner struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// listResponse is one page of a paginated objects listing.
type listResponse struct {
	Results []Record `json:"results"`
	Paging  struct {
		Next struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

// associationsResponse lists related object ids.
type associationsResponse struct {
	Results []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"results"`
}

// propertiesResponse lists the property definitions of an object type.
type propertiesResponse struct {
	Results []struct {
		Name string `json:"name"`
	} `json:"results"`
}
