package bloom

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const hashSheetJSON = `{
  "frames": {
    "btn": {
      "frame": {"x": 0, "y": 0, "w": 40, "h": 20},
      "rotated": false,
      "trimmed": true,
      "spriteSourceSize": {"x": 2, "y": 3, "w": 40, "h": 20},
      "sourceSize": {"w": 44, "h": 26}
    },
    "icon": {
      "frame": {"x": 40, "y": 0, "w": 16, "h": 16}
    }
  },
  "meta": {"image": "ui.png", "size": {"w": 64, "h": 64}}
}`

const arraySheetJSON = `{
  "frames": [
    {"filename": "a", "frame": {"x": 0, "y": 0, "w": 8, "h": 8}},
    {"filename": "b", "frame": {"x": 8, "y": 0, "w": 8, "h": 8}}
  ],
  "meta": {"image": "tiles.png"}
}`

const subSheetJSON = `{
  "frames": {
    "star": {"frame": {"x": 1, "y": 2, "w": 10, "h": 10}}
  },
  "meta": {"image": "ui.png", "subsheetOf": "ui", "origin": {"x": 100, "y": 200}}
}`

func mustParseSheet(t *testing.T, name, data string) *Sheet {
	t.Helper()
	s, err := ParseSheet(name, []byte(data))
	if err != nil {
		t.Fatalf("ParseSheet(%s): %v", name, err)
	}
	return s
}

func TestParseSheetHash(t *testing.T) {
	s := mustParseSheet(t, "ui", hashSheetJSON)
	if s.ImageName != "ui.png" || len(s.Frames) != 2 {
		t.Fatalf("sheet = %+v", s)
	}
	btn := s.Frames["btn"]
	want := Frame{X: 0, Y: 0, W: 40, H: 20, OffsetX: 2, OffsetY: 3, SourceW: 44, SourceH: 26}
	if btn != want {
		t.Errorf("btn = %+v, want %+v", btn, want)
	}
	icon := s.Frames["icon"]
	if icon.SourceW != 16 || icon.SourceH != 16 {
		t.Errorf("untrimmed frame source size = %dx%d, want frame size", icon.SourceW, icon.SourceH)
	}
}

func TestParseSheetArray(t *testing.T) {
	s := mustParseSheet(t, "tiles", arraySheetJSON)
	if len(s.Frames) != 2 || s.Frames["b"].X != 8 {
		t.Errorf("frames = %+v", s.Frames)
	}
}

func TestParseSheetErrors(t *testing.T) {
	if _, err := ParseSheet("bad", []byte("{")); err == nil {
		t.Error("invalid JSON should fail")
	}
	if _, err := ParseSheet("empty", []byte(`{"meta": {}}`)); err == nil {
		t.Error("missing frames should fail")
	}
}

func TestSheetKey(t *testing.T) {
	cases := map[string]string{
		"img/ui.json":             "ui",
		"https://cdn/x/ui_fr.png": "ui_fr",
		"ui.json?v=3":             "ui",
		"plain":                   "plain",
	}
	for in, want := range cases {
		if got := SheetKey(in); got != want {
			t.Errorf("SheetKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMergeSubsheet(t *testing.T) {
	r := NewSheetRegistry(nil)
	r.Register(mustParseSheet(t, "ui", hashSheetJSON))
	r.Register(mustParseSheet(t, "ui_extra", subSheetJSON))

	if !r.MergeSubsheet("ui_extra") {
		t.Fatal("merge should succeed")
	}
	star, ok := r.Get("ui").Frames["star"]
	if !ok {
		t.Fatal("merged frame missing from parent")
	}
	if star.X != 101 || star.Y != 202 {
		t.Errorf("star at (%d, %d), want offset by origin (101, 202)", star.X, star.Y)
	}
	if r.Get("ui_extra") != nil {
		t.Error("subsheet should be dropped after merging")
	}
}

func TestMergeSubsheetIdempotent(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewSheetRegistry(zap.New(core))
	r.Register(mustParseSheet(t, "ui", hashSheetJSON))
	r.Register(mustParseSheet(t, "ui_extra", subSheetJSON))

	r.MergeSubsheet("ui_extra")
	if r.MergeSubsheet("ui_extra") {
		t.Error("second merge should be a no-op")
	}
	if star := r.Get("ui").Frames["star"]; star.X != 101 {
		t.Errorf("frame offset applied twice: x = %d", star.X)
	}
	if logs.FilterMessage("subsheet not registered or already merged").Len() != 1 {
		t.Error("second merge should warn")
	}
}

func TestMergeSubsheetsWaitsForParent(t *testing.T) {
	r := NewSheetRegistry(nil)
	r.Register(mustParseSheet(t, "ui_extra", subSheetJSON))
	if n := r.MergeSubsheets(); n != 0 {
		t.Errorf("merged %d without parent", n)
	}
	r.Register(mustParseSheet(t, "ui", hashSheetJSON))
	if n := r.MergeSubsheets(); n != 1 {
		t.Errorf("merged %d, want 1", n)
	}
}

func TestResolveLocalized(t *testing.T) {
	r := NewSheetRegistry(nil)
	r.Register(mustParseSheet(t, "ui", hashSheetJSON))
	r.Register(mustParseSheet(t, "ui_fr", hashSheetJSON))

	if got := r.Resolve("ui", true, "fr-CA"); got == nil || got.Name != "ui_fr" {
		t.Errorf("fr-CA resolved to %v, want ui_fr", got)
	}
	if got := r.Resolve("ui", true, "de"); got == nil || got.Name != "ui" {
		t.Error("missing localization should fall back")
	}
	if got := r.Resolve("ui", true, "en-US"); got == nil || got.Name != "ui" {
		t.Error("English uses the unsuffixed sheet")
	}
	if got := r.Resolve("ui", false, "fr"); got == nil || got.Name != "ui" {
		t.Error("non-localized lookups ignore the language")
	}
	if r.Resolve("nope", false, "en") != nil {
		t.Error("unknown sheet should resolve to nil")
	}
}

func TestLanguageSuffix(t *testing.T) {
	cases := map[string]string{"": "", "en": "", "en-GB": "", "pt-BR": "pt", "ja": "ja", "!!": ""}
	for in, want := range cases {
		if got := languageSuffix(in); got != want {
			t.Errorf("languageSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSheetFrameMissingWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewSheetRegistry(zap.New(core))
	s := mustParseSheet(t, "ui", hashSheetJSON)
	r.Register(s)
	if _, ok := s.Frame("ghost"); ok {
		t.Error("missing frame should report !ok")
	}
	if logs.Len() != 1 {
		t.Errorf("logged %d entries, want 1", logs.Len())
	}
}
