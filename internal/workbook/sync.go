package workbook

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/amz-risk/docflow-cli/internal/config"
	"github.com/amz-risk/docflow-cli/internal/model"
	"github.com/amz-risk/docflow-cli/pkg/graph"
	"github.com/amz-risk/docflow-cli/pkg/hubspot"
)

// sheetKeys maps each synced object type to the column that identifies a
// row across runs.
var sheetKeys = map[string]string{
	model.ObjectContacts:  "email",
	model.ObjectCompanies: "name",
	model.ObjectDeals:     "dealname",
}

// syncOrder keeps sheet order stable across runs.
var syncOrder = []string{model.ObjectContacts, model.ObjectCompanies, model.ObjectDeals}

// Syncer refreshes the workbook from the CRM: discover properties, fetch
// every record of the three object types, merge into the existing workbook,
// and upload it back to the clients folder.
type Syncer struct {
	crm   hubspot.Client
	drive graph.Client
	cfg   config.DriveConfig
}

// NewSyncer builds a syncer over the configured drive locations.
func NewSyncer(crm hubspot.Client, drive graph.Client, cfg config.DriveConfig) *Syncer {
	return &Syncer{crm: crm, drive: drive, cfg: cfg}
}

type collection struct {
	columns []string
	records []map[string]string
}

// Sync runs one full refresh. The three collections are fetched
// concurrently; the merge itself is sequential.
func (s *Syncer) Sync(ctx context.Context) error {
	if err := s.drive.Authenticate(ctx); err != nil {
		return eris.Wrap(err, "workbook: authenticate storage")
	}

	fetched := make(map[string]*collection, len(syncOrder))
	g, gctx := errgroup.WithContext(ctx)
	for _, objectType := range syncOrder {
		objectType := objectType
		// Resolve outside the goroutine; the map is not safe for
		// concurrent access with the next iteration's write.
		col := &collection{}
		fetched[objectType] = col
		g.Go(func() error {
			return s.fetch(gctx, objectType, col)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	existing, err := s.download(ctx)
	if err != nil {
		return err
	}
	wb, err := Open(existing)
	if err != nil {
		return err
	}

	for _, objectType := range syncOrder {
		col := fetched[objectType]
		spec := SheetSpec{Name: objectType, UniqueKey: sheetKeys[objectType], Columns: col.columns}
		if err := wb.MergeSheet(spec, col.records); err != nil {
			return err
		}
		zap.L().Info("workbook: sheet merged",
			zap.String("sheet", objectType),
			zap.Int("records", len(col.records)),
		)
	}

	data, err := wb.Bytes()
	if err != nil {
		return err
	}
	if err := s.drive.Upload(ctx, s.cfg.ClientsFolderID, s.cfg.WorkbookName, data); err != nil {
		return eris.Wrap(err, "workbook: upload")
	}
	zap.L().Info("workbook: uploaded", zap.String("name", s.cfg.WorkbookName))
	return nil
}

func (s *Syncer) fetch(ctx context.Context, objectType string, out *collection) error {
	props, err := s.crm.Properties(ctx, objectType)
	if err != nil {
		return eris.Wrapf(err, "workbook: discover %s properties", objectType)
	}
	recs, err := s.crm.ListAll(ctx, objectType, props)
	if err != nil {
		return eris.Wrapf(err, "workbook: fetch %s", objectType)
	}

	out.columns = props
	out.records = make([]map[string]string, 0, len(recs))
	for _, rec := range recs {
		row := make(map[string]string, len(props))
		for _, p := range props {
			row[p] = flatten(rec.Raw(p))
		}
		out.records = append(out.records, row)
	}
	return nil
}

// flatten renders a raw property value for a cell. Multi-select fields
// arrive as option record lists and join to "a; b"; absent values render
// empty, never as a null marker.
func flatten(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []any:
		var parts []string
		for _, item := range val {
			if opt, ok := item.(map[string]any); ok {
				if s, ok := opt["value"].(string); ok && s != "" {
					parts = append(parts, s)
				}
				continue
			}
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func (s *Syncer) download(ctx context.Context) ([]byte, error) {
	if s.cfg.WorkbookItemID == "" {
		return nil, nil
	}
	data, err := s.drive.Download(ctx, s.cfg.WorkbookItemID)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: download existing")
	}
	return data, nil
}
