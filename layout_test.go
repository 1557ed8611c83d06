package bloom

import "testing"

// layoutNode stages a w x h node with layout l on a 200x100 stage.
func layoutNode(t *testing.T, w, h float64, l Layout) (*Stage, *Node) {
	t.Helper()
	s := NewStage(200, 100, StageOptions{})
	n := NewContainer("n")
	n.SetSize(w, h)
	n.SetLayout(l)
	s.AddChild(n)
	return s, n
}

func TestPresetMatch(t *testing.T) {
	s := NewStage(200, 100, StageOptions{})
	n := NewContainer("n")
	n.SetRegistration(0.5, 0.5)
	n.SetLayout(PresetMatch)
	s.AddChild(n)
	if n.Width != 200 || n.Height != 100 {
		t.Errorf("size = %vx%v, want 200x100", n.Width, n.Height)
	}
	assertNear(t, "x", n.X, 100)
	assertNear(t, "y", n.Y, 50)
	assertNear(t, "scale", n.ScaleX, 1)
}

func TestPresetScales(t *testing.T) {
	// 50x50 content on 200x100: sx = 4, sy = 2.
	cases := []struct {
		preset Preset
		sx, sy float64
	}{
		{PresetFill, 4, 2},
		{PresetAspectFill, 4, 4},
		{PresetFitWidth, 4, 4},
		{PresetFitHeight, 2, 2},
		{PresetBestFit, 2, 2},
	}
	for _, tc := range cases {
		t.Run(tc.preset.String(), func(t *testing.T) {
			_, n := layoutNode(t, 50, 50, tc.preset)
			assertNear(t, "sx", n.ScaleX, tc.sx)
			assertNear(t, "sy", n.ScaleY, tc.sy)
		})
	}
}

func TestPresetBestFitPicksWidth(t *testing.T) {
	// 100x20 content on 200x100: sx = 2 <= sy = 5.
	_, n := layoutNode(t, 100, 20, PresetBestFit)
	assertNear(t, "scale", n.ScaleX, 2)
}

func TestPresetNeedsNaturalSize(t *testing.T) {
	_, n := layoutNode(t, 0, 0, PresetFill)
	if n.ScaleX != 1 || n.ScaleY != 1 {
		t.Error("zero-size node should be left unscaled")
	}
}

func TestParsePreset(t *testing.T) {
	p, ok := ParsePreset("best-fit")
	if !ok || p != PresetBestFit {
		t.Errorf("ParsePreset = %v, %v", p, ok)
	}
	if _, ok := ParsePreset("stretch"); ok {
		t.Error("unknown preset should not parse")
	}
}

func TestLayoutPercentRounds(t *testing.T) {
	_, n := layoutNode(t, 10, 10, &LayoutParams{XPercentage: Val(0.333), YPercentage: Val(0.5)})
	assertNear(t, "x", n.X, 67)
	assertNear(t, "y", n.Y, 50)
}

func TestLayoutAllowSubPixel(t *testing.T) {
	_, n := layoutNode(t, 10, 10, &LayoutParams{XPercentage: Val(0.333), YPercentage: Val(0.5), AllowSubPixel: true})
	assertNear(t, "x", n.X, 66.6)
}

func TestLayoutAnchors(t *testing.T) {
	// Anchors are fractions of the larger parent dimension (200).
	_, n := layoutNode(t, 10, 10, &LayoutParams{RightAnchor: Val(0.1), BottomAnchor: Val(0.05)})
	assertNear(t, "regX", n.RegX, 1)
	assertNear(t, "regY", n.RegY, 1)
	assertNear(t, "x", n.X, 180)
	assertNear(t, "y", n.Y, 90)

	_, n = layoutNode(t, 10, 10, &LayoutParams{LeftAnchor: Val(0.1), TopAnchor: Val(0.05)})
	assertNear(t, "regX", n.RegX, 0)
	assertNear(t, "x", n.X, 20)
	assertNear(t, "y", n.Y, 10)
}

func TestLayoutDeprecatedAnchors(t *testing.T) {
	_, n := layoutNode(t, 10, 10, &LayoutParams{Left: Val(0.1), Top: Val(0.1)})
	assertNear(t, "x", n.X, 20)
	assertNear(t, "y", n.Y, 20)
}

func TestLayoutScaleTo(t *testing.T) {
	_, n := layoutNode(t, 50, 50, &LayoutParams{ScaleToWidth: Val(0.5), XPercentage: Val(0), YPercentage: Val(0)})
	assertNear(t, "width scale", n.ScaleX, 2)

	both := &LayoutParams{ScaleToWidth: Val(0.5), ScaleToHeight: Val(0.5), XPercentage: Val(0), YPercentage: Val(0)}
	_, n = layoutNode(t, 50, 50, both)
	assertNear(t, "min scale", n.ScaleX, 1)

	both = &LayoutParams{ScaleToWidth: Val(0.5), ScaleToHeight: Val(0.5), UseMinScale: Bool(false),
		XPercentage: Val(0), YPercentage: Val(0)}
	_, n = layoutNode(t, 50, 50, both)
	assertNear(t, "max scale", n.ScaleX, 2)
}

func TestLayoutMatchWidth(t *testing.T) {
	_, n := layoutNode(t, 50, 20, &LayoutParams{MatchWidth: true, XPercentage: Val(0), BottomAnchor: Val(0)})
	assertNear(t, "width", n.Width, 200)
	assertNear(t, "height kept", n.Height, 20)
	assertNear(t, "y", n.Y, 100)
}

func TestLayoutOrientationVariants(t *testing.T) {
	l := &LayoutParams{
		Landscape: &LayoutParams{XPercentage: Val(0.25), YPercentage: Val(0.5)},
		Portrait:  &LayoutParams{XPercentage: Val(0.5), YPercentage: Val(0.75)},
	}
	s, n := layoutNode(t, 10, 10, l)
	assertNear(t, "landscape x", n.X, 50)
	s.Resize(100, 200)
	assertNear(t, "portrait x", n.X, 50)
	assertNear(t, "portrait y", n.Y, 150)
}

func TestLayoutPickByAspect(t *testing.T) {
	l := &LayoutParams{
		PickLayout: func(aspect float64) string {
			if aspect > 1.5 {
				return "wide"
			}
			return "narrow"
		},
		Variants: map[string]*LayoutParams{
			"wide":   {XPercentage: Val(0.1), YPercentage: Val(0)},
			"narrow": {XPercentage: Val(0.9), YPercentage: Val(0)},
		},
	}
	s, n := layoutNode(t, 10, 10, l)
	assertNear(t, "wide x", n.X, 20)
	s.Resize(120, 100)
	assertNear(t, "narrow x", n.X, 108)
}

func TestLayoutMissingVariantLeavesNode(t *testing.T) {
	l := &LayoutParams{
		PickLayout: func(float64) string { return "nope" },
		Variants:   map[string]*LayoutParams{},
	}
	_, n := layoutNode(t, 10, 10, l)
	assertNear(t, "x", n.X, 0)
}

func TestLayoutFunc(t *testing.T) {
	var got *Event
	_, n := layoutNode(t, 10, 10, LayoutFunc(func(n *Node, e *Event) {
		got = e
		n.X = e.Width - 5
	}))
	if got == nil || got.Width != 200 {
		t.Fatal("layout func should receive the resize event")
	}
	assertNear(t, "x", n.X, 195)
}

func TestLayoutCustomRunsAfterBuiltins(t *testing.T) {
	_, n := layoutNode(t, 10, 10, &LayoutParams{
		XPercentage: Val(0.5),
		YPercentage: Val(0.5),
		Custom:      func(n *Node, _ *Event) { n.X += 3 },
	})
	assertNear(t, "x", n.X, 103)
}

func TestLayoutRelativeToParent(t *testing.T) {
	s := NewStage(200, 100, StageOptions{})
	panel := NewContainer("panel")
	panel.SetSize(50, 40)
	child := NewContainer("child")
	child.SetLayout(&LayoutParams{XPercentage: Val(1), YPercentage: Val(0.5)})
	panel.AddChild(child)
	s.AddChild(panel)
	assertNear(t, "x", child.X, 50)
	assertNear(t, "y", child.Y, 20)
}

func TestSetLayoutOnStagedNodeAppliesNow(t *testing.T) {
	s := NewStage(200, 100, StageOptions{})
	n := NewContainer("n")
	s.AddChild(n)
	n.SetLayout(&LayoutParams{XPercentage: Val(0.5), YPercentage: Val(0.5)})
	assertNear(t, "x", n.X, 100)
}

func TestLayoutValueAccess(t *testing.T) {
	n := NewContainer("n")
	if _, ok := n.LayoutValue(LayoutXPercentage); ok {
		t.Error("node without object layout has no layout values")
	}
	n.SetLayout(&LayoutParams{XPercentage: Val(0.2)})
	v, ok := n.LayoutValue(LayoutXPercentage)
	if !ok || v != 0.2 {
		t.Errorf("LayoutValue = %v, %v", v, ok)
	}
	if _, ok := n.LayoutValue(LayoutTopAnchor); ok {
		t.Error("unset field should report !ok")
	}
	n.SetLayoutValue(LayoutTopAnchor, 0.3)
	if v, ok := n.LayoutValue(LayoutTopAnchor); !ok || v != 0.3 {
		t.Errorf("after set = %v, %v", v, ok)
	}
}

func TestLayoutMissingOrientationUsesBase(t *testing.T) {
	l := &LayoutParams{
		XPercentage: Val(0.5),
		YPercentage: Val(0.5),
		Portrait:    &LayoutParams{XPercentage: Val(0.5), YPercentage: Val(0.75)},
	}
	// 200x100 is landscape and only a portrait variant is set.
	s, n := layoutNode(t, 10, 10, l)
	assertNear(t, "landscape x", n.X, 100)
	assertNear(t, "landscape y", n.Y, 50)
	s.Resize(100, 200)
	assertNear(t, "portrait y", n.Y, 150)
}

func TestLayoutPositionOnlyKeepsScale(t *testing.T) {
	s := NewStage(200, 100, StageOptions{})
	n := NewContainer("n")
	n.SetSize(10, 10)
	n.SetScale(2, 2)
	n.SetLayout(&LayoutParams{XPercentage: Val(0.5), YPercentage: Val(0.5)})
	s.AddChild(n)
	assertNear(t, "scale after attach", n.ScaleX, 2)

	n.TweenTo(Props{Values: map[Property]float64{PropScaleX: 4, PropScaleY: 4}}, TweenOptions{Duration: 1})
	s.Update(0.5)
	s.Resize(300, 100)
	assertNear(t, "x", n.X, 150)
	assertNear(t, "tweened scale survives resize", n.ScaleX, 3)
	s.Update(0.5)
	assertNear(t, "tween end", n.ScaleX, 4)
}
