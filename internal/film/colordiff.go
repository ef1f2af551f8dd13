package film

import (
	"log/slog"
	"sync"

	"golang.org/x/sys/cpu"

	"github.com/cwbudde/lumenforge/internal/core"
)

// kernelName records which colour-difference implementation the adaptive
// scan would dispatch to on this CPU. Only the portable scalar kernel is
// implemented here: the vectorised counterparts need hand-written
// AVX2/NEON assembly bodies that are not available to generalise from, so
// the runtime feature probe is kept (and logged once, the first time the
// scan runs) without a matching fast-path body. See DESIGN.md for why this
// stays a deliberate stdlib fallback rather than a half-finished intrinsic.
var (
	kernelOnce sync.Once
	kernelName string
)

func selectKernel() string {
	switch {
	case cpu.X86.HasAVX2:
		return "avx2-scalar-fallback"
	case cpu.ARM64.HasASIMD:
		return "neon-scalar-fallback"
	default:
		return "scalar"
	}
}

func logKernelChoice() {
	kernelOnce.Do(func() {
		kernelName = selectKernel()
		slog.Debug("film: colour-difference kernel selected", "kernel", kernelName)
	})
}

// colorDiffGE reports whether two normalised colours differ by at least
// threshold under the configured metric (luminance-only or per-channel
// max), the hot per-pair test the adaptive neighbourhood scan runs
// millions of times per pass.
func colorDiffGE(a, b core.Rgba, useColour bool, threshold float64) bool {
	logKernelChoice()
	return a.ColorDifference(b, useColour) >= threshold
}
