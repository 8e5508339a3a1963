package docgen

// Field is one placeholder token and its resolver over a unit of work.
// Tokens are bare names; the renderer supplies the brace delimiters.
type Field struct {
	Token   string
	Resolve func(u *Unit) string
}

// Schema is the ordered set of placeholder fields a document type renders.
// Every token always resolves; missing source data yields "", never a null
// marker.
type Schema []Field

// Build resolves the schema against a unit into the renderer's field map.
func (s Schema) Build(u *Unit) map[string]string {
	out := make(map[string]string, len(s))
	for _, f := range s {
		out[f.Token] = f.Resolve(u)
	}
	return out
}

func companyProp(key string) func(*Unit) string {
	return func(u *Unit) string { return u.Company.Props.Get(key) }
}

func contactProp(key string) func(*Unit) string {
	return func(u *Unit) string { return u.Contact.Props.Get(key) }
}

func serviceLine(u *Unit) string { return u.ServiceLine }

func dayField(u *Unit) string { return u.Day.Format(fieldDateLayout) }

func ownerName(u *Unit) string { return u.Owner.FullName() }

func ownerEmail(u *Unit) string { return u.Owner.Email }

var ndaSchema = Schema{
	{"name", companyProp("name")},
	{"address", companyProp("address")},
	{"city", companyProp("city")},
	{"state_list", companyProp("state_list")},
	{"zip", companyProp("zip")},
	{"email", contactProp("email")},
	{"firstname", contactProp("firstname")},
	{"lastname", contactProp("lastname")},
	{"jobtitle", contactProp("jobtitle")},
}

// The date token in the proposal and SOW templates spells its apostrophe
// the way the authoring tool does (U+2019), so the literal must match it
// byte for byte.
var proposalSchema = Schema{
	{"proposal___service_line", serviceLine},
	{"today’s date", dayField},
	{"firstname", contactProp("firstname")},
	{"lastname", contactProp("lastname")},
	{"email", contactProp("email")},
	{"name", companyProp("name")},
	{"address", companyProp("address")},
	{"city", companyProp("city")},
	{"state_list", companyProp("state_list")},
	{"zip", companyProp("zip")},
	{"amz_rep", ownerName},
	{"amz_rep_email", ownerEmail},
}

var sowSchema = Schema{
	{"proposal___service_line", serviceLine},
	{"today’s date", dayField},
	{"firstname", contactProp("firstname")},
	{"lastname", contactProp("lastname")},
	{"jobtitle", contactProp("jobtitle")},
	{"email", contactProp("email")},
	{"name", companyProp("name")},
	{"address", companyProp("address")},
	{"city", companyProp("city")},
	{"state_list", companyProp("state_list")},
	{"zip", companyProp("zip")},
	{"amz_rep", ownerName},
	{"amz_rep_email", ownerEmail},
}

var msaSchema = Schema{
	{"date", dayField},
	{"name", companyProp("name")},
	{"address", companyProp("address")},
	{"city", companyProp("city")},
	{"state_list", companyProp("state_list")},
	{"zip", companyProp("zip")},
	{"email", contactProp("email")},
	{"jobtitle", contactProp("jobtitle")},
	{"firstname", contactProp("firstname")},
	{"lastname", contactProp("lastname")},
}
