package valve

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"damwatch/internal/types"
)

// StatusSource reads the firmware status and operator control slots.
type StatusSource interface {
	Status(ctx context.Context) (*types.ValveStatus, error)
	Control(ctx context.Context) (*types.ValveControl, error)
}

// ControlSink persists operator control intent.
type ControlSink interface {
	UpdateControl(ctx context.Context, control types.ValveControl) error
}

// Service projects valve state for callers and records operator control.
type Service struct {
	source StatusSource
	sink   ControlSink
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewService wires a valve service. clock defaults to the real clock when
// nil.
func NewService(source StatusSource, sink ControlSink, clock clockwork.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, sink: sink, clock: clock, logger: logger}
}

// View returns the reconciled valve view. Store read failures degrade to the
// corresponding nil input rather than failing the whole view: a dashboard
// that cannot show the valve at all is worse than one showing the safe
// default.
func (s *Service) View(ctx context.Context) types.ValveView {
	status, err := s.source.Status(ctx)
	if err != nil {
		s.logger.Warn("reading valve status failed, projecting default", "error", err)
		status = nil
	}

	control, err := s.source.Control(ctx)
	if err != nil {
		s.logger.Warn("reading valve control failed, projecting default", "error", err)
		control = nil
	}

	return Reconcile(status, control)
}

// ApplyControl records operator control intent. Empty mode defaults to AUTO
// and empty command to NONE; validation of the allowed values happens at the
// API edge before this is called.
func (s *Service) ApplyControl(ctx context.Context, mode, manualCommand string) (types.ValveControl, error) {
	if mode == "" {
		mode = types.ModeAuto
	}
	if manualCommand == "" {
		manualCommand = types.CommandNone
	}

	control := types.ValveControl{
		Mode:          mode,
		ManualCommand: manualCommand,
		UpdatedAt:     s.clock.Now().UTC().Format(time.RFC3339),
	}
	if err := s.sink.UpdateControl(ctx, control); err != nil {
		return types.ValveControl{}, err
	}

	s.logger.Info("valve control updated", "mode", mode, "manualCommand", manualCommand)
	return control, nil
}
