package bloom

import (
	"slices"

	"go.uber.org/zap"
)

// bufferingOccurrence records the callers waiting on one list.
type bufferingOccurrence struct {
	list      *AssetList
	callbacks []func(ListResult)
	overlay   bool
	started   float64
	done      bool
}

// WaitOptions configures WaitForAssetList.
type WaitOptions struct {
	// ShowOverlay asks for the buffering overlay while the list is pending.
	ShowOverlay bool
	// LoadPreceding starts loading every list that staggered-precedes the
	// requested one, then the list itself, one at a time.
	LoadPreceding bool
}

// DefaultWaitOptions returns the options used by Game.WaitForAssetList.
func (am *AssetManager) DefaultWaitOptions() WaitOptions {
	return WaitOptions{ShowOverlay: am.showOverlay, LoadPreceding: true}
}

// AssetListAvailable reports whether the named list has finished loading.
// If it has not, cb is registered to run once it does and loading of the
// list (and the lists before it) is started. No overlay is requested.
func (am *AssetManager) AssetListAvailable(name string, cb func(ListResult)) bool {
	return am.WaitForAssetList(name, cb, WaitOptions{LoadPreceding: true})
}

// WaitForAssetList reports whether the named list has finished loading. If
// it has not, cb joins the list's buffering occurrence and runs exactly once,
// in registration order with the other waiters, on the first buffering check
// after the list completes. Unknown lists log an error and return false.
func (am *AssetManager) WaitForAssetList(name string, cb func(ListResult), opts WaitOptions) bool {
	l, ok := am.lists[name]
	if !ok {
		am.log.Error("unknown asset list", zap.String("list", name))
		return false
	}
	if l.state.Complete() && am.testDelay <= 0 {
		return true
	}

	occ := am.occurrence(l)
	if cb != nil {
		occ.callbacks = append(occ.callbacks, cb)
	}
	if opts.ShowOverlay && !occ.overlay {
		occ.overlay = true
		am.log.Info("buffering", zap.String("list", name))
	}

	if opts.LoadPreceding {
		am.promote(am.preceding(l))
	} else {
		am.enqueue(l)
	}
	am.startNext()
	return false
}

func (am *AssetManager) occurrence(l *AssetList) *bufferingOccurrence {
	for _, occ := range am.buffering {
		if occ.list == l && !occ.done {
			return occ
		}
	}
	occ := &bufferingOccurrence{list: l, started: am.clock}
	am.buffering = append(am.buffering, occ)
	return occ
}

// preceding returns the staggered lists up to and including l. A list
// outside the staggered order stands alone.
func (am *AssetManager) preceding(l *AssetList) []*AssetList {
	idx := am.staggerIndex(l.Name)
	if idx < 0 {
		return []*AssetList{l}
	}
	out := make([]*AssetList, 0, idx+1)
	for _, name := range am.order[:idx+1] {
		if pl, ok := am.lists[name]; ok {
			out = append(out, pl)
		}
	}
	return out
}

// CheckBuffering completes every occurrence whose list has finished:
// its callbacks run once, in registration order.
func (am *AssetManager) CheckBuffering() {
	pending := am.buffering
	am.buffering = nil
	var kept []*bufferingOccurrence
	for _, occ := range pending {
		if !occ.done && occ.list.state.Complete() && am.clock-occ.started >= am.testDelay {
			occ.done = true
			res := occ.list.result()
			cbs := occ.callbacks
			occ.callbacks = nil
			am.log.Debug("buffering complete", zap.String("list", occ.list.Name),
				zap.Int("waiters", len(cbs)), zap.Bool("errors", res.Errors))
			for _, cb := range cbs {
				cb(res)
			}
		}
		if !occ.done {
			kept = append(kept, occ)
		}
	}
	// Waits registered by the callbacks above.
	am.buffering = append(kept, am.buffering...)
}

// Buffering reports whether any outstanding wait asked for the overlay.
func (am *AssetManager) Buffering() bool {
	for _, occ := range am.buffering {
		if !occ.done && occ.overlay {
			return true
		}
	}
	return false
}

// Waiting returns the number of outstanding buffering occurrences.
func (am *AssetManager) Waiting() int {
	return len(am.buffering)
}

// Update advances the manager clock, applies finished loads, and runs the
// buffering check. Call once per tick.
func (am *AssetManager) Update(dt float64) {
	am.clock += dt
	am.Poll()
	am.CheckBuffering()
}

// LoadAssetList loads the named list ahead of any staggered list still
// queued. cb runs when it completes; immediately when it already has.
func (am *AssetManager) LoadAssetList(name string, cb func(ListResult)) {
	l, ok := am.lists[name]
	if !ok {
		am.log.Error("unknown asset list", zap.String("list", name))
		return
	}
	if l.state.Complete() {
		if cb != nil {
			cb(l.result())
		}
		return
	}
	if cb != nil {
		l.callbacks = append(l.callbacks, cb)
	}
	am.promote([]*AssetList{l})
	am.startNext()
}

// --- Staggered loading ---

// SetLoadingOrder sets the staggered order. The order always starts with
// "required"; an order that does not is fixed up with a warning.
func (am *AssetManager) SetLoadingOrder(order []string) {
	if len(order) == 0 || order[0] != "required" {
		am.log.Warn("loading order must start with \"required\"", zap.Strings("order", order))
		rest := slices.DeleteFunc(slices.Clone(order), func(s string) bool { return s == "required" })
		order = append([]string{"required"}, rest...)
	}
	am.order = slices.Clone(order)
}

// LoadingOrder returns the staggered order.
func (am *AssetManager) LoadingOrder() []string {
	return slices.Clone(am.order)
}

// StartStaggeredLoading queues every list of the staggered order and starts
// loading them one at a time.
func (am *AssetManager) StartStaggeredLoading() {
	if am.staggered {
		am.log.Debug("staggered loading already started")
		return
	}
	am.staggered = true
	for _, name := range am.order {
		l, ok := am.lists[name]
		if !ok {
			am.log.Warn("staggered order names an unknown list", zap.String("list", name))
			continue
		}
		am.enqueue(l)
	}
	am.startNext()
}

// --- Politeness ---

// SetPoliteness withholds the staggered list at index level (0 is
// "required", so 0 disables withholding) until the first user interaction.
// -1 disables politeness permanently: later calls are ignored.
func (am *AssetManager) SetPoliteness(level int) {
	if am.politeness == -1 {
		if level != -1 {
			am.log.Warn("politeness permanently disabled, ignoring", zap.Int("politeness", level))
		}
		return
	}
	if level < -1 {
		am.log.Warn("invalid politeness level, using 0", zap.Int("politeness", level))
		level = 0
	}
	am.politeness = level
	if p := am.pendingNext; p != nil {
		am.pendingNext = nil
		p()
	}
}

// Politeness returns the politeness level.
func (am *AssetManager) Politeness() int {
	return am.politeness
}

// NotifyUserInteraction releases a load withheld by politeness. Only the
// first call has an effect.
func (am *AssetManager) NotifyUserInteraction() {
	if am.interacted {
		return
	}
	am.interacted = true
	if p := am.pendingNext; p != nil {
		am.pendingNext = nil
		am.log.Debug("first interaction releases withheld load")
		p()
	}
}
