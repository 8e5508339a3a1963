package docgen

import (
	"strings"

	"github.com/amz-risk/docflow-cli/internal/model"
)

// NormalizeServiceLines converts the raw value of the service-line
// multi-select into an ordered list of distinct line names. Depending on the
// endpoint the CRM reports the field either as a list of option records or
// as a semicolon-delimited string; both normalize identically. An empty
// result falls back to the single default line.
func NormalizeServiceLines(raw any) []string {
	var lines []string
	switch v := raw.(type) {
	case nil:
	case []any:
		for _, item := range v {
			opt, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if val, ok := opt["value"].(string); ok {
				lines = append(lines, val)
			}
		}
	case []string:
		lines = v
	case string:
		lines = strings.Split(v, ";")
	}

	seen := make(map[string]struct{}, len(lines))
	var out []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		key := strings.ToLower(l)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}

	if len(out) == 0 {
		return []string{model.FallbackServiceLine}
	}
	return out
}
