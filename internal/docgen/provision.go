package docgen

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/amz-risk/docflow-cli/internal/model"
	"github.com/amz-risk/docflow-cli/pkg/hubspot"
)

// ClientSubfolders is the canonical folder layout every client folder
// carries, in display order.
var ClientSubfolders = []string{
	"01. NDA",
	"02. Proposals",
	"03. Contracts",
	"04. SOWs",
	"05. MSAs",
}

// ProvisionSummary tallies one provisioning pass.
type ProvisionSummary struct {
	Companies int
	Failed    int
}

// Provisioner front-loads the client folder layout so generation runs find
// the structure already in place. Vendor and partner companies keep their
// documents in the root folder and are left alone.
type Provisioner struct {
	crm    hubspot.Client
	engine *Engine
}

func NewProvisioner(crm hubspot.Client, engine *Engine) *Provisioner {
	return &Provisioner{crm: crm, engine: engine}
}

// Provision walks every client-category company and ensures its folder and
// the standard subfolders exist. Per-company failures are logged and
// counted; only a storage auth failure aborts the pass.
func (p *Provisioner) Provision(ctx context.Context) (*ProvisionSummary, error) {
	if err := p.engine.drive.Authenticate(ctx); err != nil {
		return nil, eris.Wrap(err, "docgen: authenticate storage")
	}

	recs, err := p.crm.ListAll(ctx, model.ObjectCompanies, []string{"name", "company_category"})
	if err != nil {
		return nil, eris.Wrap(err, "docgen: list companies")
	}

	sum := &ProvisionSummary{}
	for _, rec := range recs {
		props := model.Properties(rec.StrProps())
		if model.CategoryOf(props) != model.CategoryClient {
			continue
		}
		name := SanitizeFolderName(props.Get("name"))
		if name == "" {
			continue
		}
		sum.Companies++
		if err := p.provisionCompany(ctx, name); err != nil {
			sum.Failed++
			zap.L().Error("docgen: provision company",
				zap.String("company", name),
				zap.Error(err),
			)
		}
	}

	zap.L().Info("docgen: provisioning complete",
		zap.Int("companies", sum.Companies),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

func (p *Provisioner) provisionCompany(ctx context.Context, name string) error {
	folderID, err := p.engine.findOrCreateFolder(ctx, p.engine.clientsRootID, name)
	if err != nil {
		return eris.Wrapf(err, "resolve folder %q", name)
	}
	for _, sub := range ClientSubfolders {
		if _, err := p.engine.findOrCreateSubfolder(ctx, folderID, sub); err != nil {
			return eris.Wrapf(err, "resolve subfolder %q", sub)
		}
	}
	return nil
}
