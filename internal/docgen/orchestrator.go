package docgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/amz-risk/docflow-cli/internal/model"
	"github.com/amz-risk/docflow-cli/internal/notify"
	"github.com/amz-risk/docflow-cli/internal/render"
	"github.com/amz-risk/docflow-cli/pkg/graph"
	"github.com/amz-risk/docflow-cli/pkg/hubspot"
)

// Outcome is the terminal state of one unit of work.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeExisted
	OutcomeGenerated
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeExisted:
		return "existed"
	case OutcomeGenerated:
		return "generated"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Engine runs the shared generation state machine for a unit: gate, folder
// resolution, existence check, copy-and-await, download, render, upload,
// status patch. One Engine serves a whole run and caches resolved folder
// ids; it is not safe for concurrent use.
type Engine struct {
	crm      hubspot.Client
	drive    graph.Client
	copier   *Copier
	selector *Selector
	notifier notify.Notifier
	openDoc  func(data []byte) (render.Document, error)

	clientsRootID string
	vendorsRootID string

	// folders caches resolved folder ids, keyed parentID+"/"+name.
	folders map[string]string
}

// EngineParams collects the collaborators an Engine needs.
type EngineParams struct {
	CRM          hubspot.Client
	Drive        graph.Client
	Copier       *Copier
	Selector     *Selector
	Notifier     notify.Notifier
	OpenDocument func(data []byte) (render.Document, error)

	ClientsRootID string
	VendorsRootID string
}

// NewEngine constructs an engine for one run.
func NewEngine(p EngineParams) *Engine {
	notifier := p.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Engine{
		crm:           p.CRM,
		drive:         p.Drive,
		copier:        p.Copier,
		selector:      p.Selector,
		notifier:      notifier,
		openDoc:       p.OpenDocument,
		clientsRootID: p.ClientsRootID,
		vendorsRootID: p.VendorsRootID,
		folders:       make(map[string]string),
	}
}

// Process runs one unit of work to its terminal state. A returned error
// accompanies only OutcomeFailed; other outcomes resolve cleanly.
func (e *Engine) Process(ctx context.Context, flow Flow, u *Unit) (Outcome, error) {
	contactStatus := ""
	if flow.ContactGate {
		contactStatus = u.Contact.Props.Get(flow.Type.StatusField())
	}
	if Decide(flow.EntityStatus(u), contactStatus, flow.ContactGate) == DecisionSkip {
		return OutcomeSkipped, nil
	}

	category := model.CategoryOf(u.Company.Props)
	if flow.ClientOnly && category == model.CategoryVendor {
		zap.L().Debug("docgen: vendor excluded from flow",
			zap.String("doc_type", string(flow.Type)),
			zap.String("company", u.CompanyName()),
		)
		return OutcomeSkipped, nil
	}

	rootID := e.clientsRootID
	if category == model.CategoryVendor {
		rootID = e.vendorsRootID
	}
	folderName := SanitizeFolderName(u.CompanyName())
	companyFolderID, err := e.findOrCreateFolder(ctx, rootID, folderName)
	if err != nil {
		return OutcomeFailed, eris.Wrapf(err, "docgen: resolve folder %q", folderName)
	}

	// Vendor documents land in the company folder itself.
	targetID := companyFolderID
	if category == model.CategoryClient && flow.Subfolder != "" {
		targetID, err = e.findOrCreateSubfolder(ctx, companyFolderID, flow.Subfolder)
		if err != nil {
			return OutcomeFailed, eris.Wrapf(err, "docgen: resolve subfolder %q", flow.Subfolder)
		}
	}

	name := flow.FileName(u)
	exists, err := e.exists(ctx, targetID, flow.MatchKey(u), flow.Match)
	if err != nil {
		return OutcomeFailed, eris.Wrap(err, "docgen: existence check")
	}
	if exists {
		// The document is there, however it came to be; both sides of the
		// status pair are considered satisfied.
		if flow.PropagateOnExists {
			e.applyPatches(ctx, flow, u)
		}
		zap.L().Info("docgen: document already present",
			zap.String("doc_type", string(flow.Type)),
			zap.String("unit", u.Label()),
		)
		return OutcomeExisted, nil
	}

	templateID, err := flow.Template(e.selector, u)
	if err != nil {
		if eris.Is(err, ErrTemplateMissing) {
			zap.L().Warn("docgen: no template for unit",
				zap.String("doc_type", string(flow.Type)),
				zap.String("unit", u.Label()),
			)
			return OutcomeSkipped, nil
		}
		return OutcomeFailed, err
	}

	item, err := e.copier.CopyAndAwait(ctx, templateID, targetID, name)
	if err != nil {
		subject := docLabel(flow.Type) + " Copy Failed"
		if eris.Is(err, ErrCopyTimeout) {
			subject = docLabel(flow.Type) + " Copy Timeout"
		}
		e.notifier.Notify(ctx, subject,
			fmt.Sprintf("Copy of %q did not complete for %s", name, u.Label()),
			map[string]any{"company": u.CompanyName(), "file": name},
		)
		return OutcomeFailed, err
	}

	data, err := e.drive.Download(ctx, item.ID)
	if err != nil {
		return OutcomeFailed, eris.Wrapf(err, "docgen: download %q", name)
	}
	doc, err := e.openDoc(data)
	if err != nil {
		return OutcomeFailed, eris.Wrapf(err, "docgen: open %q", name)
	}
	render.Apply(doc, flow.Fields.Build(u))
	out, err := doc.Bytes()
	if err != nil {
		return OutcomeFailed, eris.Wrapf(err, "docgen: serialize %q", name)
	}
	if err := e.drive.Upload(ctx, targetID, name, out); err != nil {
		e.notifier.Notify(ctx, docLabel(flow.Type)+" Upload Failed",
			fmt.Sprintf("Upload of %q failed for %s", name, u.Label()),
			map[string]any{"company": u.CompanyName(), "file": name},
		)
		return OutcomeFailed, eris.Wrapf(err, "docgen: upload %q", name)
	}

	// The uploaded document is the durable artifact; status is best-effort
	// bookkeeping and a failed patch does not undo the upload.
	e.applyPatches(ctx, flow, u)

	zap.L().Info("docgen: document generated",
		zap.String("doc_type", string(flow.Type)),
		zap.String("unit", u.Label()),
		zap.String("file", name),
	)
	return OutcomeGenerated, nil
}

func (e *Engine) applyPatches(ctx context.Context, flow Flow, u *Unit) {
	for _, p := range flow.Patches(u) {
		if err := e.crm.Update(ctx, p.ObjectType, p.ID, p.Props); err != nil {
			zap.L().Error("docgen: status patch failed",
				zap.String("doc_type", string(flow.Type)),
				zap.String("object_type", p.ObjectType),
				zap.String("id", p.ID),
				zap.Error(err),
			)
			e.notifier.Notify(ctx, docLabel(flow.Type)+" Status Update Failed",
				fmt.Sprintf("Status patch failed for %s %s (%s)", p.ObjectType, p.ID, u.Label()),
				map[string]any{"object_type": p.ObjectType, "id": p.ID},
			)
		}
	}
}

// exists reports whether a child of folderID matches key under the given
// match mode.
func (e *Engine) exists(ctx context.Context, folderID, key string, mode MatchMode) (bool, error) {
	children, err := e.drive.ListChildren(ctx, folderID)
	if err != nil {
		return false, err
	}
	for _, c := range children {
		if mode == MatchPrefix && strings.HasPrefix(c.Name, key) {
			return true, nil
		}
		if mode == MatchExact && c.Name == key {
			return true, nil
		}
	}
	return false, nil
}

// findOrCreateFolder resolves a folder by exact name under a parent,
// creating it when absent. Lookup is idempotent within the run via the
// folder cache.
func (e *Engine) findOrCreateFolder(ctx context.Context, parentID, name string) (string, error) {
	key := parentID + "/" + name
	if id, ok := e.folders[key]; ok {
		return id, nil
	}

	if id, err := e.findFolder(ctx, parentID, name); err != nil {
		return "", err
	} else if id != "" {
		e.folders[key] = id
		return id, nil
	}

	id, err := e.drive.CreateFolder(ctx, parentID, name)
	if err != nil {
		if eris.Is(err, graph.ErrFolderConflict) {
			// Someone else created it between the list and the create.
			if id, ferr := e.findFolder(ctx, parentID, name); ferr == nil && id != "" {
				e.folders[key] = id
				return id, nil
			}
		}
		return "", err
	}
	e.folders[key] = id
	return id, nil
}

// findOrCreateSubfolder lazily provisions a document-type subfolder under a
// client folder. When the catalog carries a template folder for the name,
// the subfolder is materialized by copy, like a file; otherwise it is
// created empty.
func (e *Engine) findOrCreateSubfolder(ctx context.Context, clientFolderID, name string) (string, error) {
	key := clientFolderID + "/" + name
	if id, ok := e.folders[key]; ok {
		return id, nil
	}

	if id, err := e.findFolder(ctx, clientFolderID, name); err != nil {
		return "", err
	} else if id != "" {
		e.folders[key] = id
		return id, nil
	}

	if templateID, ok := e.selector.Templates.SubfolderTemplate(name); ok {
		item, err := e.copier.CopyAndAwait(ctx, templateID, clientFolderID, name)
		if err != nil {
			return "", err
		}
		e.folders[key] = item.ID
		return item.ID, nil
	}

	id, err := e.drive.CreateFolder(ctx, clientFolderID, name)
	if err != nil {
		return "", err
	}
	e.folders[key] = id
	return id, nil
}

func (e *Engine) findFolder(ctx context.Context, parentID, name string) (string, error) {
	children, err := e.drive.ListChildren(ctx, parentID)
	if err != nil {
		return "", err
	}
	for _, c := range children {
		if c.Folder && c.Name == name {
			return c.ID, nil
		}
	}
	return "", nil
}

func docLabel(d model.DocType) string {
	if d == model.DocProposal {
		return "Proposal"
	}
	return strings.ToUpper(string(d))
}
