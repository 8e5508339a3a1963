package docgen

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Characters the storage backend rejects in item names.
const illegalNameChars = `"*:<>?/\|`

const (
	// fileDateLayout is the day-granular stamp in generated filenames; it
	// doubles as the idempotency key's date component.
	fileDateLayout = "20060102"
	// fieldDateLayout is the date format substituted into document bodies.
	fieldDateLayout = "2006-01-02"
)

var titleCaser = cases.Title(language.AmericanEnglish)

// SanitizeFolderName strips characters illegal in the storage backend's
// naming grammar, collapses whitespace runs, trims, and drops a trailing
// period. The result is the canonical folder key for the rest of the run.
func SanitizeFolderName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(illegalNameChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	return strings.TrimSuffix(out, ".")
}

// NDATypeLabel renders the contact type for the NDA filename. An unset type
// labels as Corporate, matching the fallback template bucket. The label is
// sanitized because one of the CRM option values carries a slash.
func NDATypeLabel(contactType string) string {
	t := strings.TrimSpace(contactType)
	if t == "" {
		return "Corporate"
	}
	return SanitizeFolderName(titleCaser.String(t))
}

// NDAFileName builds "<prefix> - <Type> NDA - <First_Last> - <YYYYMMDD>.docx".
func NDAFileName(prefix, typeLabel, firstName, lastName string, day time.Time) string {
	contact := strings.TrimSpace(firstName) + "_" + strings.TrimSpace(lastName)
	return fmt.Sprintf("%s - %s NDA - %s - %s.docx", prefix, typeLabel, contact, day.Format(fileDateLayout))
}

// ProposalFileName builds "<prefix> - <Company> - Proposal - <Line> - <YYYYMMDD>.docx".
func ProposalFileName(prefix, company, line string, day time.Time) string {
	return fmt.Sprintf("%s - %s - Proposal - %s - %s.docx", prefix, company, line, day.Format(fileDateLayout))
}

// SOWFileName builds "<prefix> - <Company> - SOW - <Line> - <YYYYMMDD>.docx".
func SOWFileName(prefix, company, line string, day time.Time) string {
	return fmt.Sprintf("%s - %s - SOW - %s - %s.docx", prefix, company, line, day.Format(fileDateLayout))
}

// MSANamePrefix is the prefix-match key for MSA existence checks: MSA
// filenames carry no service line, so any dated MSA for the company counts.
func MSANamePrefix(prefix, company string) string {
	return fmt.Sprintf("%s - MSA - %s", prefix, company)
}

// MSAFileName builds "<prefix> - MSA - <Company> - <YYYYMMDD>.docx".
func MSAFileName(prefix, company string, day time.Time) string {
	return fmt.Sprintf("%s - %s.docx", MSANamePrefix(prefix, company), day.Format(fileDateLayout))
}
