// Package valve reconciles firmware-reported valve status with operator
// control intent into the single view the dashboard consumes. The firmware
// owns actuation; this package never commands the valve directly, it only
// records intent and projects state.
package valve

import (
	"damwatch/internal/types"
)

// Reconcile merges a firmware status and an operator control record into the
// caller-facing view. Either input may be nil.
//
// A missing status projects as a closed valve at a safe level, the state a
// freshly installed dam reports before its first firmware write. A boot-time
// closed valve also displays SAFE_LEVEL: BOOT only carries information when
// the valve came up open.
func Reconcile(status *types.ValveStatus, control *types.ValveControl) types.ValveView {
	view := types.ValveView{
		State:  types.ValveClosed,
		Reason: types.ReasonSafeLevel,
		Mode:   types.ModeAuto,
	}

	if status != nil {
		if status.State != "" {
			view.State = status.State
		}
		view.Reason = reasonFor(status, view.State)
		view.Timestamp = types.FormatTimestamp(status.Timestamp)
	}

	if control != nil && control.Mode != "" {
		view.Mode = control.Mode
	}

	return view
}

func reasonFor(status *types.ValveStatus, state string) string {
	reason := status.Reason
	if reason == "" {
		reason = status.LastChangeReason
	}
	if reason == "" {
		return types.ReasonSafeLevel
	}
	if reason == types.ReasonBoot && state == types.ValveClosed {
		return types.ReasonSafeLevel
	}
	return reason
}
