package docgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/amz-risk/docflow-cli/internal/notify"
	"github.com/amz-risk/docflow-cli/internal/registry"
	"github.com/amz-risk/docflow-cli/internal/render"
	"github.com/amz-risk/docflow-cli/internal/resilience"
	"github.com/amz-risk/docflow-cli/pkg/graph"
	"github.com/amz-risk/docflow-cli/pkg/hubspot"
)

const (
	clientsRootID = "clients-root"
	vendorsRootID = "vendors-root"
)

// fakeDrive is an in-memory drive tree. Copies can be configured to
// materialize after a number of listings, to fail outright, or to never
// appear.
type fakeDrive struct {
	nextID   int
	children map[string][]graph.DriveItem
	contents map[string][]byte
	uploads  map[string][]byte

	// copyDelay is the number of listings of the target folder before a
	// pending copy materializes. Values past the poll bound simulate a copy
	// that never completes.
	copyDelay int
	copyErr   error
	authErr   error
	uploadErr error

	// folderTemplates marks template item ids whose copies are folders.
	folderTemplates map[string]bool

	pending     []*pendingCopy
	copyCalls   int
	createCalls []string
}

type pendingCopy struct {
	parentID  string
	item      graph.DriveItem
	remaining int
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{
		children: map[string][]graph.DriveItem{
			clientsRootID: nil,
			vendorsRootID: nil,
		},
		contents:        make(map[string][]byte),
		uploads:         make(map[string][]byte),
		folderTemplates: make(map[string]bool),
	}
}

func (d *fakeDrive) newID(prefix string) string {
	d.nextID++
	return fmt.Sprintf("%s%d", prefix, d.nextID)
}

func (d *fakeDrive) addFolder(parentID, name string) string {
	id := d.newID("f")
	d.children[parentID] = append(d.children[parentID], graph.DriveItem{ID: id, Name: name, Folder: true})
	return id
}

func (d *fakeDrive) addFile(parentID, name string, data []byte) string {
	id := d.newID("i")
	d.children[parentID] = append(d.children[parentID], graph.DriveItem{ID: id, Name: name})
	d.contents[id] = data
	return id
}

// folderID finds a folder by name under a parent, or "".
func (d *fakeDrive) folderID(parentID, name string) string {
	for _, c := range d.children[parentID] {
		if c.Folder && c.Name == name {
			return c.ID
		}
	}
	return ""
}

func (d *fakeDrive) Authenticate(ctx context.Context) error { return d.authErr }

func (d *fakeDrive) ListChildren(ctx context.Context, itemID string) ([]graph.DriveItem, error) {
	var still []*pendingCopy
	for _, p := range d.pending {
		if p.parentID == itemID {
			p.remaining--
			if p.remaining <= 0 {
				d.children[itemID] = append(d.children[itemID], p.item)
				continue
			}
		}
		still = append(still, p)
	}
	d.pending = still

	out := make([]graph.DriveItem, len(d.children[itemID]))
	copy(out, d.children[itemID])
	return out, nil
}

func (d *fakeDrive) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	for _, c := range d.children[parentID] {
		if c.Name == name {
			return "", graph.ErrFolderConflict
		}
	}
	d.createCalls = append(d.createCalls, parentID+"/"+name)
	return d.addFolder(parentID, name), nil
}

func (d *fakeDrive) Copy(ctx context.Context, itemID, targetParentID, newName string) error {
	if d.copyErr != nil {
		return d.copyErr
	}
	d.copyCalls++

	item := graph.DriveItem{Name: newName, Folder: d.folderTemplates[itemID]}
	if item.Folder {
		item.ID = d.newID("f")
	} else {
		item.ID = d.newID("c")
		d.contents[item.ID] = d.contents[itemID]
	}

	if d.copyDelay <= 0 {
		d.children[targetParentID] = append(d.children[targetParentID], item)
		return nil
	}
	d.pending = append(d.pending, &pendingCopy{parentID: targetParentID, item: item, remaining: d.copyDelay})
	return nil
}

func (d *fakeDrive) Download(ctx context.Context, itemID string) ([]byte, error) {
	data, ok := d.contents[itemID]
	if !ok {
		return nil, eris.Errorf("no content for item %s", itemID)
	}
	return data, nil
}

func (d *fakeDrive) Upload(ctx context.Context, parentID, name string, data []byte) error {
	if d.uploadErr != nil {
		return d.uploadErr
	}
	d.uploads[parentID+"/"+name] = data
	for _, c := range d.children[parentID] {
		if c.Name == name {
			d.contents[c.ID] = data
			return nil
		}
	}
	d.addFile(parentID, name, data)
	return nil
}

// fakeCRM serves records from memory and logs status patches.
type fakeCRM struct {
	companies []hubspot.Record
	deals     []hubspot.Record
	records   map[string]hubspot.Record // "contacts/7" → record
	assoc     map[string][]string       // "deals/9/companies" → ids
	owners    map[string]hubspot.Owner

	patches  []patchCall
	patchErr error
	listErr  error
}

type patchCall struct {
	objectType string
	id         string
	props      map[string]string
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		records: make(map[string]hubspot.Record),
		assoc:   make(map[string][]string),
		owners:  make(map[string]hubspot.Owner),
	}
}

func (c *fakeCRM) Properties(ctx context.Context, objectType string) ([]string, error) {
	return nil, nil
}

func (c *fakeCRM) ListAll(ctx context.Context, objectType string, properties []string) ([]hubspot.Record, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	switch objectType {
	case "companies":
		return c.companies, nil
	case "deals":
		return c.deals, nil
	}
	return nil, nil
}

func (c *fakeCRM) Get(ctx context.Context, objectType, id string, properties []string) (*hubspot.Record, error) {
	rec, ok := c.records[objectType+"/"+id]
	if !ok {
		return nil, eris.Errorf("no %s record %s", objectType, id)
	}
	return &rec, nil
}

func (c *fakeCRM) Update(ctx context.Context, objectType, id string, properties map[string]string) error {
	if c.patchErr != nil {
		return c.patchErr
	}
	c.patches = append(c.patches, patchCall{objectType: objectType, id: id, props: properties})
	return nil
}

func (c *fakeCRM) Associations(ctx context.Context, fromType, id, toType string) ([]string, error) {
	return c.assoc[fromType+"/"+id+"/"+toType], nil
}

func (c *fakeCRM) Owner(ctx context.Context, ownerID string) (*hubspot.Owner, error) {
	o, ok := c.owners[ownerID]
	if !ok {
		return nil, eris.Errorf("no owner %s", ownerID)
	}
	return &o, nil
}

// fakeNotifier records notification events.
type fakeNotifier struct {
	events []notifyEvent
}

type notifyEvent struct {
	subject string
	body    string
}

func (n *fakeNotifier) Notify(ctx context.Context, subject, body string, details map[string]any) {
	n.events = append(n.events, notifyEvent{subject: subject, body: body})
}

func (n *fakeNotifier) subjects() []string {
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.subject
	}
	return out
}

var _ notify.Notifier = (*fakeNotifier)(nil)

// memDoc is a one-paragraph-per-line in-memory document for the render step.
type memDoc struct {
	paras []*memPara
}

type memPara struct {
	frags []string
}

func (p *memPara) Fragments() []string { return append([]string(nil), p.frags...) }

func (p *memPara) SetFragment(i int, text string) {
	if i >= 0 && i < len(p.frags) {
		p.frags[i] = text
	}
}

type memPart struct {
	paras []*memPara
}

func (p memPart) Paragraphs() []render.Paragraph {
	out := make([]render.Paragraph, len(p.paras))
	for i, para := range p.paras {
		out[i] = para
	}
	return out
}

func (p memPart) Tables() []render.Table { return nil }

func (d *memDoc) Body() render.Part      { return memPart{paras: d.paras} }
func (d *memDoc) Headers() []render.Part { return nil }
func (d *memDoc) Footers() []render.Part { return nil }

func (d *memDoc) Bytes() ([]byte, error) {
	lines := make([]string, len(d.paras))
	for i, p := range d.paras {
		lines[i] = strings.Join(p.frags, "")
	}
	return []byte(strings.Join(lines, "\n")), nil
}

func openMemDoc(data []byte) (render.Document, error) {
	doc := &memDoc{}
	for _, line := range strings.Split(string(data), "\n") {
		doc.paras = append(doc.paras, &memPara{frags: []string{line}})
	}
	return doc, nil
}

// testTemplates builds a catalog with normalized keys, the way LoadTemplates
// stores them.
func testTemplates() *registry.Templates {
	return &registry.Templates{
		NDA: map[string]string{
			"candidate":  "tpl-nda-cand",
			"contractor": "tpl-nda-cont",
			"corporate":  "tpl-nda-corp",
		},
		Proposal: map[string]string{
			"risk assessment": "tpl-prop-risk",
			"training":        "tpl-prop-train",
			"recruiting":      "tpl-prop-recr",
		},
		SOW: map[string]string{
			"risk assessment": "tpl-sow-risk",
			"training":        "tpl-sow-train",
		},
		MSA:        "tpl-msa",
		Subfolders: map[string]string{},
	}
}

func instantPoll() resilience.PollConfig {
	return resilience.PollConfig{
		MaxAttempts: 10,
		Interval:    time.Millisecond,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}
}

func newTestEngine(crm *fakeCRM, drive *fakeDrive, n notify.Notifier, templates *registry.Templates) *Engine {
	if templates == nil {
		templates = testTemplates()
	}
	return NewEngine(EngineParams{
		CRM:           crm,
		Drive:         drive,
		Copier:        NewCopier(drive, instantPoll()),
		Selector:      &Selector{Templates: templates},
		Notifier:      n,
		OpenDocument:  openMemDoc,
		ClientsRootID: clientsRootID,
		VendorsRootID: vendorsRootID,
	})
}

var testDay = time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
