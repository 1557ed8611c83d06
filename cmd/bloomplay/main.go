// Bloomplay runs a small bloom scene in an Ebitengine window. It reads
// bloom.toml and assets.yaml from the asset directory when present, starts
// staggered loading, and optionally plays back an input script.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/phanxgames/bloom"
	"github.com/phanxgames/bloom/backend/ebitenbackend"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dir        = flag.String("assets", "assets", "asset directory")
		configPath = flag.String("config", "", "config file (default <assets>/bloom.toml)")
		scriptPath = flag.String("script", "", "input script to play back")
	)
	flag.Parse()

	if *configPath == "" {
		*configPath = filepath.Join(*dir, "bloom.toml")
	}
	cfg, err := bloom.LoadConfig(*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = bloom.DefaultConfig(), nil
	}
	if err != nil {
		return err
	}

	log, err := bloom.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	game := bloom.NewGame(cfg, bloom.NewFSFetcher(os.DirFS(*dir), cfg, log), log)
	defer game.Assets().Close()

	m, err := bloom.LoadManifest(filepath.Join(*dir, "assets.yaml"))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Info("no asset manifest, running without assets")
	case err != nil:
		return err
	default:
		game.Assets().AddManifest(m)
		if slices.Equal(cfg.Loading.Order, bloom.DefaultConfig().Loading.Order) {
			game.Assets().SetLoadingOrder(m.Order())
		}
		game.Assets().StartStaggeredLoading()
	}

	if *scriptPath != "" {
		data, err := os.ReadFile(*scriptPath)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		s, err := bloom.ParseScript(data)
		if err != nil {
			return err
		}
		game.SetScript(s)
	}

	last := ""
	if m != nil {
		order := game.Assets().LoadingOrder()
		last = order[len(order)-1]
	}
	buildScene(game, last)

	log.Info("starting",
		zap.Int("width", cfg.Stage.Width),
		zap.Int("height", cfg.Stage.Height),
		zap.Strings("order", game.Assets().LoadingOrder()),
	)
	return ebitenbackend.Run(game, ebitenbackend.RunConfigFrom(cfg))
}

// buildScene adds a background, a title and a button. Clicking the button
// waits for lastList, showing the buffering overlay if it is not loaded.
func buildScene(game *bloom.Game, lastList string) {
	stage := game.Stage()

	bg := bloom.NewNode("background", &bloom.GradientFill{
		Direction:  bloom.GradientVertical,
		Color1:     "#1d2b53",
		Color2:     "#7e2553",
		Transition: 0.8,
	})
	bg.SetLayout(bloom.PresetMatch)
	stage.AddChild(bg)

	title := bloom.NewLabel("title", "bloom", nil, 32, "#fff1e8")
	title.SetRegistration(0.5, 0)
	title.SetLayout(&bloom.LayoutParams{
		XPercentage: bloom.Val(0.5),
		TopAnchor:   bloom.Val(0.08),
	})
	stage.AddChild(title)

	button := bloom.NewNode("button", &bloom.RectangleFill{Color: "#ff004d"})
	button.SetSize(160, 64)
	button.SetRegistration(0.5, 0.5)
	button.SetLayout(&bloom.LayoutParams{
		XPercentage: bloom.Val(0.5),
		YPercentage: bloom.Val(0.5),
		Portrait:    &bloom.LayoutParams{XPercentage: bloom.Val(0.5), YPercentage: bloom.Val(0.6)},
	})
	clicks := 0
	button.On(bloom.EventClick, func(e *bloom.Event) {
		clicks++
		title.SetText(fmt.Sprintf("clicked %d", clicks))
		e.Target.EndTween("pulse", false, false)
		e.Target.SetScale(1, 1)
		e.Target.TweenTo(bloom.Props{Values: map[bloom.Property]float64{
			bloom.PropScaleX: 1.2,
			bloom.PropScaleY: 1.2,
		}}, bloom.TweenOptions{
			ID:       "pulse",
			Duration: 0.15,
			Ease:     bloom.QuadOut,
			Repeat:   1,
			Rewind:   true,
		})
		if lastList != "" {
			game.WaitForAssetList(lastList, func(r bloom.ListResult) {
				if r.Errors {
					game.Logger().Warn("asset list loaded with errors", zap.String("list", r.Name))
				}
			})
		}
	})
	stage.AddChild(button)
}
