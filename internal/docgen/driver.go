package docgen

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/amz-risk/docflow-cli/internal/model"
	"github.com/amz-risk/docflow-cli/pkg/graph"
	"github.com/amz-risk/docflow-cli/pkg/hubspot"
)

// UnitResult records the terminal state of one unit of work.
type UnitResult struct {
	Flow        model.DocType
	Company     string
	ServiceLine string
	Outcome     Outcome
	Err         error
}

// Summary aggregates one full generation run.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time

	Generated int
	Existed   int
	Skipped   int
	Failed    int
	Failures  []UnitResult
}

// Driver iterates the CRM collections and feeds units through the engine in
// the fixed flow order. All work of one flow completes before the next flow
// starts, so later flows observe earlier folder and status side effects.
type Driver struct {
	crm    hubspot.Client
	drive  graph.Client
	engine *Engine
	flows  []Flow
	now    func() time.Time
}

// NewDriver constructs a driver over the given flows.
func NewDriver(crm hubspot.Client, drive graph.Client, engine *Engine, flows []Flow) *Driver {
	return &Driver{crm: crm, drive: drive, engine: engine, flows: flows, now: time.Now}
}

// Run executes every flow against its collection. Failures are isolated per
// unit; only a storage authentication failure aborts the run.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{RunID: uuid.NewString(), Started: d.now()}

	if err := d.drive.Authenticate(ctx); err != nil {
		return nil, eris.Wrap(err, "docgen: authenticate storage")
	}

	for _, flow := range d.flows {
		units, err := d.resolveUnits(ctx, flow, sum.Started)
		if err != nil {
			zap.L().Error("docgen: listing collection failed",
				zap.String("doc_type", string(flow.Type)),
				zap.Error(err),
			)
			sum.Failed++
			sum.Failures = append(sum.Failures, UnitResult{Flow: flow.Type, Outcome: OutcomeFailed, Err: err})
			continue
		}

		for _, u := range units {
			outcome, perr := d.engine.Process(ctx, flow, u)
			switch outcome {
			case OutcomeGenerated:
				sum.Generated++
			case OutcomeExisted:
				sum.Existed++
			case OutcomeSkipped:
				sum.Skipped++
			case OutcomeFailed:
				sum.Failed++
				sum.Failures = append(sum.Failures, UnitResult{
					Flow:        flow.Type,
					Company:     u.CompanyName(),
					ServiceLine: u.ServiceLine,
					Outcome:     outcome,
					Err:         perr,
				})
			}
		}
	}

	sum.Finished = d.now()
	zap.L().Info("docgen: run complete",
		zap.String("run_id", sum.RunID),
		zap.Int("generated", sum.Generated),
		zap.Int("existed", sum.Existed),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

func (d *Driver) resolveUnits(ctx context.Context, flow Flow, day time.Time) ([]*Unit, error) {
	if flow.Source == model.ObjectDeals {
		return d.dealUnits(ctx, flow, day)
	}
	return d.companyUnits(ctx, flow, day)
}

func (d *Driver) companyUnits(ctx context.Context, flow Flow, day time.Time) ([]*Unit, error) {
	recs, err := d.crm.ListAll(ctx, model.ObjectCompanies, flow.EntityProps)
	if err != nil {
		return nil, eris.Wrap(err, "docgen: list companies")
	}

	units := make([]*Unit, 0, len(recs))
	for _, rec := range recs {
		u := &Unit{
			Company: model.Company{ID: rec.ID, Props: rec.StrProps()},
			Contact: d.primaryContact(ctx, rec.ID, flow.ContactProps),
			Day:     day,
		}
		units = append(units, u)
	}
	return units, nil
}

func (d *Driver) dealUnits(ctx context.Context, flow Flow, day time.Time) ([]*Unit, error) {
	recs, err := d.crm.ListAll(ctx, model.ObjectDeals, flow.EntityProps)
	if err != nil {
		return nil, eris.Wrap(err, "docgen: list deals")
	}

	var units []*Unit
	for _, rec := range recs {
		deal := model.Deal{ID: rec.ID, Props: rec.StrProps()}

		// Deals that will gate out anyway skip the association lookups.
		if !model.RequestsGeneration(deal.Props.Get(flow.Type.StatusField())) {
			units = append(units, &Unit{Deal: deal, Day: day})
			continue
		}

		companyIDs, err := d.crm.Associations(ctx, model.ObjectDeals, deal.ID, model.ObjectCompanies)
		if err != nil || len(companyIDs) == 0 {
			zap.L().Warn("docgen: deal has no associated company",
				zap.String("deal_id", deal.ID),
				zap.Error(err),
			)
			continue
		}
		companyRec, err := d.crm.Get(ctx, model.ObjectCompanies, companyIDs[0], flow.CompanyProps)
		if err != nil {
			zap.L().Warn("docgen: fetching deal company failed",
				zap.String("deal_id", deal.ID),
				zap.Error(err),
			)
			continue
		}
		company := model.Company{ID: companyRec.ID, Props: companyRec.StrProps()}
		contact := d.primaryContact(ctx, company.ID, flow.ContactProps)
		owner := d.dealOwner(ctx, deal)

		for _, line := range NormalizeServiceLines(rec.Raw("proposal___service_line")) {
			units = append(units, &Unit{
				Deal:        deal,
				Company:     company,
				Contact:     contact,
				Owner:       owner,
				ServiceLine: line,
				Day:         day,
			})
		}
	}
	return units, nil
}

// primaryContact resolves the first associated contact. Absence or a lookup
// failure degrades to a zero contact, never an error.
func (d *Driver) primaryContact(ctx context.Context, companyID string, props []string) model.Contact {
	ids, err := d.crm.Associations(ctx, model.ObjectCompanies, companyID, model.ObjectContacts)
	if err != nil {
		zap.L().Warn("docgen: listing contact associations failed",
			zap.String("company_id", companyID),
			zap.Error(err),
		)
		return model.Contact{}
	}
	if len(ids) == 0 {
		return model.Contact{}
	}
	rec, err := d.crm.Get(ctx, model.ObjectContacts, ids[0], props)
	if err != nil {
		zap.L().Warn("docgen: fetching primary contact failed",
			zap.String("contact_id", ids[0]),
			zap.Error(err),
		)
		return model.Contact{}
	}
	return model.Contact{ID: rec.ID, Props: rec.StrProps()}
}

func (d *Driver) dealOwner(ctx context.Context, deal model.Deal) model.Owner {
	ownerID := deal.Props.Get("hubspot_owner_id")
	if ownerID == "" {
		return model.Owner{}
	}
	o, err := d.crm.Owner(ctx, ownerID)
	if err != nil {
		zap.L().Warn("docgen: fetching deal owner failed",
			zap.String("owner_id", ownerID),
			zap.Error(err),
		)
		return model.Owner{}
	}
	return model.Owner{ID: o.ID, FirstName: o.FirstName, LastName: o.LastName, Email: o.Email}
}
