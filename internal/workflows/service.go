// SPDX-License-Identifier: Apache-2.0

package workflows

import (
	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"

	"github.com/arfelious/omen-fan-control/internal/config"
	"github.com/arfelious/omen-fan-control/internal/core"
	"github.com/arfelious/omen-fan-control/internal/workflows/steps"
	"github.com/arfelious/omen-fan-control/pkg/systemd"
)

func serviceManager() *systemd.Manager {
	return systemd.NewManager(config.Get().Service.UnitName, systemd.WithLogger(logx.As()))
}

// NewServiceInstallWorkflow installs, enables and starts the fan control
// systemd unit.
func NewServiceInstallWorkflow(in core.UserInputs[core.DriverInputs]) (*automa.WorkflowBuilder, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return automa.NewWorkflowBuilder().WithId("service-install").
		WithExecutionMode(in.Common.ExecutionOptions.ExecutionMode).Steps(
		CheckPrivilegesStep(),
		steps.InstallServiceStep(serviceManager()),
	), nil
}

// NewServiceRemoveWorkflow stops, disables and removes the fan control
// systemd unit.
func NewServiceRemoveWorkflow(in core.UserInputs[core.DriverInputs]) (*automa.WorkflowBuilder, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return automa.NewWorkflowBuilder().WithId("service-remove").
		WithExecutionMode(in.Common.ExecutionOptions.ExecutionMode).Steps(
		CheckPrivilegesStep(),
		steps.RemoveServiceStep(serviceManager()),
	), nil
}
