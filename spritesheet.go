package bloom

import (
	"encoding/json"
	"fmt"
	"image"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Frame is a packed sub-image rectangle within a sheet image.
type Frame struct {
	X, Y, W, H       int  // packed rectangle within the sheet image
	OffsetX, OffsetY int  // trim offset within the untrimmed source
	SourceW, SourceH int  // untrimmed size as authored
	Rotated          bool // stored 90 degrees clockwise
}

// Sheet maps frame names to packed rectangles of one image. A subsheet names
// the sheet it was packed into (Parent) and its origin within it.
type Sheet struct {
	Name      string
	ImageName string
	Image     image.Image
	Frames    map[string]Frame

	Parent           string
	OriginX, OriginY int

	log *zap.Logger
}

// Frame returns the named frame. A missing frame logs a diagnostic.
func (s *Sheet) Frame(name string) (Frame, bool) {
	f, ok := s.Frames[name]
	if !ok && s.log != nil {
		s.log.Warn("sheet frame not found", zap.String("sheet", s.Name), zap.String("frame", name))
	}
	return f, ok
}

// SheetKey trims a URL or path down to the registry key: the base filename
// without extension.
func SheetKey(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	base := path.Base(url)
	return strings.TrimSuffix(base, path.Ext(base))
}

// --- JSON structure types ---

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Frame            jsonRect `json:"frame"`
	Rotated          bool     `json:"rotated"`
	Trimmed          bool     `json:"trimmed"`
	SpriteSourceSize jsonRect `json:"spriteSourceSize"`
	SourceSize       jsonSize `json:"sourceSize"`
}

type jsonMeta struct {
	Image      string   `json:"image"`
	Size       jsonSize `json:"size"`
	SubsheetOf string   `json:"subsheetOf"`
	Origin     jsonRect `json:"origin"`
}

// ParseSheet parses TexturePacker JSON. Both the hash format ("frames" object)
// and the array format ("frames" list of {"filename", ...}) are supported.
// The meta block may carry "subsheetOf" and "origin" {"x", "y"} to mark a
// subsheet.
func ParseSheet(name string, data []byte) (*Sheet, error) {
	var probe struct {
		Frames json.RawMessage `json:"frames"`
		Meta   jsonMeta        `json:"meta"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse sheet %s: %w", name, err)
	}
	if probe.Frames == nil {
		return nil, fmt.Errorf("parse sheet %s: no \"frames\" key", name)
	}
	s := &Sheet{
		Name:      name,
		ImageName: probe.Meta.Image,
		Frames:    make(map[string]Frame),
		Parent:    probe.Meta.SubsheetOf,
		OriginX:   probe.Meta.Origin.X,
		OriginY:   probe.Meta.Origin.Y,
	}

	trimmed := strings.TrimSpace(string(probe.Frames))
	if strings.HasPrefix(trimmed, "[") {
		var frames []struct {
			Filename string `json:"filename"`
			jsonFrame
		}
		if err := json.Unmarshal(probe.Frames, &frames); err != nil {
			return nil, fmt.Errorf("parse sheet %s frames: %w", name, err)
		}
		for _, f := range frames {
			s.Frames[f.Filename] = toFrame(f.jsonFrame)
		}
		return s, nil
	}

	var frames map[string]jsonFrame
	if err := json.Unmarshal(probe.Frames, &frames); err != nil {
		return nil, fmt.Errorf("parse sheet %s frames: %w", name, err)
	}
	for fname, f := range frames {
		s.Frames[fname] = toFrame(f)
	}
	return s, nil
}

func toFrame(f jsonFrame) Frame {
	fr := Frame{
		X:       f.Frame.X,
		Y:       f.Frame.Y,
		W:       f.Frame.W,
		H:       f.Frame.H,
		OffsetX: f.SpriteSourceSize.X,
		OffsetY: f.SpriteSourceSize.Y,
		SourceW: f.SourceSize.W,
		SourceH: f.SourceSize.H,
		Rotated: f.Rotated,
	}
	if fr.SourceW == 0 && fr.SourceH == 0 {
		fr.SourceW, fr.SourceH = fr.W, fr.H
	}
	return fr
}

// SheetRegistry holds sheet descriptors keyed by trimmed filename.
type SheetRegistry struct {
	sheets map[string]*Sheet
	log    *zap.Logger
}

// NewSheetRegistry creates an empty registry.
func NewSheetRegistry(log *zap.Logger) *SheetRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	return &SheetRegistry{sheets: make(map[string]*Sheet), log: log}
}

// Register stores s under its name; last write wins.
func (r *SheetRegistry) Register(s *Sheet) {
	if _, exists := r.sheets[s.Name]; exists {
		r.log.Debug("replacing sheet descriptor", zap.String("sheet", s.Name))
	}
	s.log = r.log
	r.sheets[s.Name] = s
}

// Get returns the named sheet or nil.
func (r *SheetRegistry) Get(name string) *Sheet {
	return r.sheets[name]
}

// Len returns the number of registered sheets.
func (r *SheetRegistry) Len() int {
	return len(r.sheets)
}

// MergeSubsheet folds the named subsheet into its parent: every frame is
// offset by the subsheet's origin and copied into the parent, and the
// subsheet is dropped from the registry. Merging an already-merged (or
// unknown) subsheet logs a warning and is a no-op.
func (r *SheetRegistry) MergeSubsheet(name string) bool {
	sub, ok := r.sheets[name]
	if !ok {
		r.log.Warn("subsheet not registered or already merged", zap.String("sheet", name))
		return false
	}
	if sub.Parent == "" {
		r.log.Warn("sheet is not a subsheet", zap.String("sheet", name))
		return false
	}
	parent, ok := r.sheets[sub.Parent]
	if !ok {
		r.log.Error("subsheet parent not registered",
			zap.String("sheet", name), zap.String("parent", sub.Parent))
		return false
	}
	for fname, f := range sub.Frames {
		f.X += sub.OriginX
		f.Y += sub.OriginY
		if _, clash := parent.Frames[fname]; clash {
			r.log.Warn("subsheet frame overrides parent frame",
				zap.String("sheet", name), zap.String("frame", fname))
		}
		parent.Frames[fname] = f
	}
	delete(r.sheets, name)
	return true
}

// MergeSubsheets merges every registered subsheet whose parent is present.
func (r *SheetRegistry) MergeSubsheets() int {
	var names []string
	for name, s := range r.sheets {
		if s.Parent != "" {
			if _, ok := r.sheets[s.Parent]; ok {
				names = append(names, name)
			}
		}
	}
	merged := 0
	for _, name := range names {
		if r.MergeSubsheet(name) {
			merged++
		}
	}
	return merged
}

// Resolve returns the descriptor for name. When localized is set and lang is
// not English, the descriptor suffixed with the language code ("ui_fr") is
// preferred, falling back to the unsuffixed one. If neither exists an error
// is logged and nil returned.
func (r *SheetRegistry) Resolve(name string, localized bool, lang string) *Sheet {
	if localized {
		if suffix := languageSuffix(lang); suffix != "" {
			if s, ok := r.sheets[name+"_"+suffix]; ok {
				return s
			}
			r.log.Debug("no localized sheet, using default",
				zap.String("sheet", name), zap.String("lang", suffix))
		}
	}
	if s, ok := r.sheets[name]; ok {
		return s
	}
	r.log.Error("sheet descriptor not found", zap.String("sheet", name), zap.String("lang", lang))
	return nil
}

// languageSuffix normalizes a BCP-47 code to its base language ("pt-BR" ->
// "pt"). English and unparseable codes yield "".
func languageSuffix(code string) string {
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	s := base.String()
	if s == "en" || s == "und" {
		return ""
	}
	return s
}
