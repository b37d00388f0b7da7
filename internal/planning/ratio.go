package planning

import (
	"math"

	"mineplan/internal/core"
)

// StrippingRatio divides overburden by ore. A zero ore figure or a
// non-finite result is a ComputationError, never NaN or Inf.
func StrippingRatio(ob, ore float64) (float64, error) {
	if ore == 0 {
		return 0, &core.ComputationError{Field: "srTarget", Cause: "ore target is zero"}
	}
	sr := ob / ore
	if math.IsNaN(sr) || math.IsInf(sr, 0) {
		return 0, &core.ComputationError{Field: "srTarget", Cause: "result is not a finite number"}
	}
	return sr, nil
}
