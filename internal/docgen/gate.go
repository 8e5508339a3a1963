// Package docgen implements the document generation engine: the status
// gate, template selection, the remote copy poller, and the orchestration
// state machine instantiated once per document type.
package docgen

import "github.com/amz-risk/docflow-cli/internal/model"

// Decision is the status gate outcome for one unit of work.
type Decision int

const (
	DecisionSkip Decision = iota
	DecisionGenerate
)

// Decide maps an entity's status tag, and optionally its related contact's,
// to a gate decision. With contactGate set, either side of the pair
// requesting is enough. An absent contact contributes an empty tag, which
// never requests.
func Decide(entityStatus, contactStatus string, contactGate bool) Decision {
	if model.RequestsGeneration(entityStatus) {
		return DecisionGenerate
	}
	if contactGate && model.RequestsGeneration(contactStatus) {
		return DecisionGenerate
	}
	return DecisionSkip
}
