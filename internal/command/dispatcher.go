package command

import "log/slog"

// ControllerActions is the controller surface the dispatcher drives.
type ControllerActions interface {
	Connect()
	Disconnect()
	StartJob()
	Hold()
	Resume()
	Abort()
	EStop()
}

// Dispatcher resolves command text to controller actions. A nil controller
// is a deliberate no-op target: commands are acknowledged and logged, which
// mirrors an operator console with no device attached.
type Dispatcher struct {
	logger     *slog.Logger
	controller ControllerActions
}

func NewDispatcher(logger *slog.Logger, controller ControllerActions) *Dispatcher {
	return &Dispatcher{logger: logger, controller: controller}
}

// Dispatch parses and executes one command line. Syntax errors are returned
// to the caller; state-dependent applicability is the controller's concern
// and never surfaces here.
func (d *Dispatcher) Dispatch(line string) error {
	cmd, err := Parse(line)
	if err != nil {
		return err
	}

	if d.controller == nil {
		d.logger.Info("no controller attached, command dropped", "cmd", cmd.String())
		return nil
	}

	switch cmd {
	case Connect:
		d.controller.Connect()
	case Disconnect:
		d.controller.Disconnect()
	case Start:
		d.controller.StartJob()
	case Hold:
		d.controller.Hold()
	case Resume:
		d.controller.Resume()
	case Abort:
		d.controller.Abort()
	case EStop:
		d.controller.EStop()
	}
	return nil
}
