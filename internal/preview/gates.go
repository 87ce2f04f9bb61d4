package preview

import "git.home.luguber.info/inful/specpreview/internal/health"

// LiveRenderer reports the live-render preference.
type LiveRenderer interface {
	LiveRender() bool
}

// ChangeGate defers rebuilds while live render is off. A forced change or
// the first build always passes.
type ChangeGate struct {
	Prefs LiveRenderer
}

// Allow reports whether a change may proceed. When it blocks, pc is marked
// dirty and its status becomes StatusUnsaved.
func (g ChangeGate) Allow(pc *PipelineContext, force bool) bool {
	if !g.Prefs.LiveRender() && !force && pc.HasPriorResult() {
		pc.Dirty = true
		pc.Status = StatusUnsaved
		return false
	}
	return true
}

// HealthGate drops changes while the build backend is unhealthy. It never
// touches pipeline state.
type HealthGate struct {
	Checker health.Checker
}

func (g HealthGate) Allow() bool {
	return g.Checker.IsHealthy()
}
