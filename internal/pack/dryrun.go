package pack

import "context"

// DryRunBackend is the registry name of DryRun.
const DryRunBackend = "dryrun"

// DryRun groups units exactly like Archive but writes nothing.
type DryRun struct{}

func (DryRun) Name() string { return DryRunBackend }

func (d DryRun) Pack(ctx context.Context, req Request) (*Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	units, err := Group(req)
	if err != nil {
		return nil, err
	}
	return &Manifest{BuildID: req.BuildID, Backend: d.Name(), Platform: req.Platform, Units: units}, nil
}
