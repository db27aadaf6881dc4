package runner

import (
	"context"
	"log/slog"

	"github.com/me/xbench/pkg/model"
)

// Deployer dispatches a load to a non-local node. Remote transport is not
// part of this core; the shipped implementation records the placement and
// skips.
type Deployer interface {
	Deploy(ctx context.Context, node string, load *model.Load) error
}

// StubDeployer logs and skips remote dispatch.
type StubDeployer struct {
	logger *slog.Logger
}

// NewStubDeployer creates a StubDeployer.
func NewStubDeployer(logger *slog.Logger) *StubDeployer {
	return &StubDeployer{logger: logger.With("component", "deployer")}
}

// Deploy records the intended placement. Remote execution is handled by an
// external collaborator in the full system.
func (d *StubDeployer) Deploy(ctx context.Context, node string, load *model.Load) error {
	d.logger.Warn("remote dispatch not implemented, skipping", "node", node, "workload", load.Workload)
	return nil
}
