package bloom

import (
	"context"
	"image"
	"path"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/font/opentype"
	"golang.org/x/sync/errgroup"
)

// ListState is the loading state of an asset list.
type ListState uint8

const (
	ListNotRequested ListState = iota
	ListQueued
	ListLoading
	ListLoaded
	ListErrored // finished with at least one failed asset
)

func (s ListState) String() string {
	switch s {
	case ListNotRequested:
		return "not-requested"
	case ListQueued:
		return "queued"
	case ListLoading:
		return "loading"
	case ListLoaded:
		return "loaded"
	case ListErrored:
		return "errored"
	}
	return "unknown"
}

// Complete reports whether a list in this state has finished loading,
// successfully or not.
func (s ListState) Complete() bool {
	return s == ListLoaded || s == ListErrored
}

// ListResult is passed to completion callbacks. Lists with failed assets
// still complete; Errors tells the caller to inspect Failed.
type ListResult struct {
	Name     string
	Errors   bool
	Failed   []error
	Loaded   int
	Duration time.Duration
}

// AssetList is a named, ordered set of assets loaded as a unit.
type AssetList struct {
	Name   string
	Assets []AssetDescriptor

	state     ListState
	urgent    bool // requested explicitly; never withheld by politeness
	failed    []error
	loaded    int
	bytes     int64
	started   time.Time
	duration  time.Duration
	callbacks []func(ListResult)
}

// State returns the list's loading state.
func (l *AssetList) State() ListState {
	return l.state
}

func (l *AssetList) result() ListResult {
	return ListResult{
		Name:     l.Name,
		Errors:   len(l.failed) > 0,
		Failed:   slices.Clone(l.failed),
		Loaded:   l.loaded,
		Duration: l.duration,
	}
}

type listDone struct {
	list   *AssetList
	descs  []AssetDescriptor
	assets []*Asset
	errs   []error
}

// AssetManager schedules asset-list loading and owns the loaded assets and
// the sprite-sheet registry.
//
// Fetches run on goroutines; their results are applied by Poll (or Update)
// on the caller's goroutine, so every state transition is observed on a
// tick. At most one list is loading at a time.
type AssetManager struct {
	fetcher Fetcher
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	results chan listDone

	concurrency int
	lang        string
	testDelay   float64
	showOverlay bool

	lists     map[string]*AssetList
	declared  []string
	order     []string
	staggered bool
	queue     []*AssetList
	loading   *AssetList

	politeness  int
	interacted  bool
	pendingNext func()

	assets      map[string]*Asset
	sheets      *SheetRegistry
	localized   map[string]bool
	sheetImages map[string]*Asset
	fileImages  map[string]*Asset

	clock     float64
	buffering []*bufferingOccurrence
}

// NewAssetManager creates a manager fetching through f. cfg may be nil.
func NewAssetManager(f Fetcher, cfg *Config, log *zap.Logger) *AssetManager {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	am := &AssetManager{
		fetcher:     f,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
		results:     make(chan listDone, 4),
		concurrency: cfg.Loading.FetchConcurrency,
		lang:        cfg.Loading.Language,
		testDelay:   cfg.Buffering.TestDelay.Seconds(),
		showOverlay: cfg.Buffering.ShowOverlay,
		lists:       make(map[string]*AssetList),
		assets:      make(map[string]*Asset),
		sheets:      NewSheetRegistry(log),
		localized:   make(map[string]bool),
		sheetImages: make(map[string]*Asset),
		fileImages:  make(map[string]*Asset),
	}
	if am.concurrency <= 0 {
		am.concurrency = 1
	}
	if am.testDelay > 0 {
		log.Warn("test buffering enabled", zap.Float64("delay", am.testDelay))
	}
	am.SetLoadingOrder(cfg.Loading.Order)
	am.SetPoliteness(cfg.Loading.Politeness)
	return am
}

// Close cancels in-flight fetches.
func (am *AssetManager) Close() {
	am.cancel()
}

// AddList declares an asset list. Redeclaring a list that has not been
// requested replaces it; otherwise the call is ignored.
func (am *AssetManager) AddList(name string, assets []AssetDescriptor) *AssetList {
	if l, ok := am.lists[name]; ok {
		if l.state != ListNotRequested {
			am.log.Warn("asset list already requested, ignoring redeclaration", zap.String("list", name))
			return l
		}
		l.Assets = slices.Clone(assets)
		return l
	}
	l := &AssetList{Name: name, Assets: slices.Clone(assets)}
	am.lists[name] = l
	am.declared = append(am.declared, name)
	return l
}

// AddManifest declares every list of m.
func (am *AssetManager) AddManifest(m *Manifest) {
	for _, l := range m.Lists {
		am.AddList(l.Name, l.Assets)
	}
}

// List returns the named list, or nil.
func (am *AssetManager) List(name string) *AssetList {
	return am.lists[name]
}

// State returns the loading state of the named list. Unknown lists report
// ListNotRequested.
func (am *AssetManager) State(name string) ListState {
	if l, ok := am.lists[name]; ok {
		return l.state
	}
	am.log.Debug("state of unknown asset list", zap.String("list", name))
	return ListNotRequested
}

// Loading returns the name of the list currently loading, or "".
func (am *AssetManager) Loading() string {
	if am.loading == nil {
		return ""
	}
	return am.loading.Name
}

// Language returns the active language code.
func (am *AssetManager) Language() string {
	return am.lang
}

// SetLanguage changes the language used to resolve localized sheets.
func (am *AssetManager) SetLanguage(code string) {
	am.lang = code
}

// Sheets returns the sprite-sheet registry.
func (am *AssetManager) Sheets() *SheetRegistry {
	return am.sheets
}

// --- Scheduling ---

func (am *AssetManager) staggerIndex(name string) int {
	return slices.Index(am.order, name)
}

func (am *AssetManager) withheld(l *AssetList) bool {
	return am.politeness > 0 && !am.interacted && !l.urgent &&
		am.staggerIndex(l.Name) == am.politeness
}

// enqueue appends l to the queue if it has not been requested.
func (am *AssetManager) enqueue(l *AssetList) {
	if l.state != ListNotRequested {
		return
	}
	l.state = ListQueued
	am.queue = append(am.queue, l)
}

// promote marks lists urgent and moves them, in the given order, ahead of
// everything else queued.
func (am *AssetManager) promote(lists []*AssetList) {
	front := make([]*AssetList, 0, len(lists)+len(am.queue))
	for _, l := range lists {
		l.urgent = true
		switch l.state {
		case ListNotRequested:
			l.state = ListQueued
			front = append(front, l)
		case ListQueued:
			front = append(front, l)
		}
	}
	for _, l := range am.queue {
		if !slices.Contains(front, l) {
			front = append(front, l)
		}
	}
	am.queue = front
}

// startNext begins loading the head of the queue unless a list is already
// loading or politeness withholds the head.
func (am *AssetManager) startNext() {
	if am.loading != nil || len(am.queue) == 0 {
		return
	}
	next := am.queue[0]
	if am.withheld(next) {
		if am.pendingNext == nil {
			am.log.Info("withholding asset list until first interaction",
				zap.String("list", next.Name), zap.Int("politeness", am.politeness))
		}
		am.pendingNext = am.startNext
		return
	}
	am.queue[0] = nil
	am.queue = am.queue[1:]
	am.loadList(next)
}

func (am *AssetManager) loadList(l *AssetList) {
	l.state = ListLoading
	l.started = time.Now()
	am.loading = l
	am.log.Info("loading asset list", zap.String("list", l.Name), zap.Int("assets", len(l.Assets)))

	descs := slices.Clone(l.Assets)
	fetcher := am.fetcher
	limit := am.concurrency
	go func() {
		assets := make([]*Asset, len(descs))
		errs := make([]error, len(descs))
		g, ctx := errgroup.WithContext(am.ctx)
		g.SetLimit(limit)
		for i, d := range descs {
			g.Go(func() error {
				// A failed asset never cancels its siblings.
				assets[i], errs[i] = fetcher.Fetch(ctx, d)
				return nil
			})
		}
		_ = g.Wait()
		select {
		case am.results <- listDone{list: l, descs: descs, assets: assets, errs: errs}:
		case <-am.ctx.Done():
		}
	}()
}

// Poll applies every finished list load without blocking: assets are
// stored, sheets registered, bound to their images and merged, list
// callbacks run, and the next queued list starts.
func (am *AssetManager) Poll() {
	for {
		select {
		case r := <-am.results:
			am.finishList(r)
		default:
			return
		}
	}
}

func (am *AssetManager) finishList(r listDone) {
	l := r.list
	for i, d := range r.descs {
		if err := r.errs[i]; err != nil {
			l.failed = append(l.failed, err)
			am.log.Warn("asset failed to load",
				zap.String("list", l.Name), zap.String("asset", d.ID), zap.Error(err))
			continue
		}
		a := r.assets[i]
		if a == nil {
			continue
		}
		am.store(d, a)
		l.loaded++
		l.bytes += a.Bytes
	}
	am.bindSheets()
	am.sheets.MergeSubsheets()

	l.duration = time.Since(l.started)
	if len(l.failed) > 0 {
		l.state = ListErrored
		am.log.Warn("asset list loaded with errors", zap.String("list", l.Name),
			zap.Int("failed", len(l.failed)), zap.Duration("took", l.duration))
	} else {
		l.state = ListLoaded
		am.log.Info("asset list loaded", zap.String("list", l.Name),
			zap.Int("assets", l.loaded), zap.Int64("bytes", l.bytes), zap.Duration("took", l.duration))
	}
	if am.loading == l {
		am.loading = nil
	}

	res := l.result()
	cbs := l.callbacks
	l.callbacks = nil
	for _, cb := range cbs {
		cb(res)
	}
	am.startNext()
}

func (am *AssetManager) store(d AssetDescriptor, a *Asset) {
	if a.ID == "" {
		a.ID = d.ID
	}
	if _, dup := am.assets[a.ID]; dup {
		am.log.Debug("replacing asset", zap.String("asset", a.ID))
	}
	am.assets[a.ID] = a
	if a.Sheet != nil {
		am.sheets.Register(a.Sheet)
		if d.Localize {
			am.localized[a.Sheet.Name] = true
		}
	}
	if a.Image != nil {
		if d.Sheet != "" {
			am.sheetImages[d.Sheet] = a
		}
		am.fileImages[path.Base(d.URL)] = a
	}
}

// bindSheets attaches loaded images to sheets that lack one: by the image
// descriptor's sheet name first, then by the sheet's meta image filename.
func (am *AssetManager) bindSheets() {
	for name, s := range am.sheets.sheets {
		if s.Image != nil {
			continue
		}
		if a, ok := am.sheetImages[name]; ok {
			s.Image = a.Image
			continue
		}
		if s.ImageName != "" {
			if a, ok := am.fileImages[path.Base(s.ImageName)]; ok {
				s.Image = a.Image
			}
		}
	}
}

// --- Lookups ---

// Asset returns the loaded asset with the given id. A missing asset logs a
// diagnostic and returns nil.
func (am *AssetManager) Asset(id string) *Asset {
	a, ok := am.assets[id]
	if !ok {
		am.log.Warn("asset not found", zap.String("asset", id))
		return nil
	}
	return a
}

// Image returns the decoded image asset with the given id, or nil.
func (am *AssetManager) Image(id string) image.Image {
	a := am.Asset(id)
	if a == nil {
		return nil
	}
	if a.Image == nil {
		am.log.Warn("asset is not an image", zap.String("asset", id), zap.Stringer("kind", a.Kind))
	}
	return a.Image
}

// Font returns the parsed font asset with the given id, or nil (also when
// the font load timed out).
func (am *AssetManager) Font(id string) *opentype.Font {
	a := am.Asset(id)
	if a == nil {
		return nil
	}
	return a.Font
}

// Sheet returns the named sprite sheet, preferring the variant for the
// active language when the sheet was declared localized.
func (am *AssetManager) Sheet(name string) *Sheet {
	return am.sheets.Resolve(name, am.localized[name], am.lang)
}

// Frame returns a frame of the named sheet.
func (am *AssetManager) Frame(sheet, frame string) (Frame, bool) {
	s := am.Sheet(sheet)
	if s == nil {
		return Frame{}, false
	}
	return s.Frame(frame)
}

// Sprite creates a node drawing a frame of the named sheet.
func (am *AssetManager) Sprite(name, sheet, frame string) *Node {
	return NewSprite(name, am.Sheet(sheet), frame)
}

// --- Footprint ---

// ListFootprint summarizes one list for diagnostics.
type ListFootprint struct {
	Name     string
	State    ListState
	Assets   int
	Loaded   int
	Failed   int
	Bytes    int64
	Duration time.Duration
}

// Footprint reports every declared list in declaration order.
func (am *AssetManager) Footprint() []ListFootprint {
	out := make([]ListFootprint, 0, len(am.declared))
	for _, name := range am.declared {
		l := am.lists[name]
		out = append(out, ListFootprint{
			Name:     l.Name,
			State:    l.state,
			Assets:   len(l.Assets),
			Loaded:   l.loaded,
			Failed:   len(l.failed),
			Bytes:    l.bytes,
			Duration: l.duration,
		})
	}
	return out
}

// TotalBytes returns the estimated footprint of every loaded asset.
func (am *AssetManager) TotalBytes() int64 {
	var n int64
	for _, a := range am.assets {
		n += a.Bytes
	}
	return n
}
