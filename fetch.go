package bloom

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/font/opentype"
	_ "golang.org/x/image/webp"
)

// Asset is a fetched, decoded asset.
type Asset struct {
	ID   string
	Kind AssetKind
	URL  string

	Image image.Image
	Sheet *Sheet
	Font  *opentype.Font
	Data  []byte

	// Bytes is the estimated memory footprint: decoded pixels for images,
	// raw size otherwise.
	Bytes int64
}

// Fetcher retrieves and decodes one asset. Fetch is called from loader
// goroutines and must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, d AssetDescriptor) (*Asset, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, d AssetDescriptor) (*Asset, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, d AssetDescriptor) (*Asset, error) {
	return f(ctx, d)
}

// FSFetcher reads assets from a file system and decodes them by kind, or by
// extension when the kind is KindAuto.
type FSFetcher struct {
	fsys        fs.FS
	fontTimeout time.Duration
	log         *zap.Logger
}

// NewFSFetcher creates a fetcher over fsys. cfg may be nil.
func NewFSFetcher(fsys fs.FS, cfg *Config, log *zap.Logger) *FSFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &FSFetcher{fsys: fsys, fontTimeout: cfg.Loading.FontTimeout, log: log}
}

// KindOf infers an asset kind from a url's extension.
func KindOf(url string) AssetKind {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	switch strings.ToLower(path.Ext(url)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return KindImage
	case ".json":
		return KindSheet
	case ".ttf", ".otf":
		return KindFont
	}
	return KindRaw
}

// Fetch implements Fetcher.
func (f *FSFetcher) Fetch(ctx context.Context, d AssetDescriptor) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(d.URL, "/")
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", d.URL, err)
	}
	kind := d.Kind
	if kind == KindAuto {
		kind = KindOf(d.URL)
	}
	a := &Asset{ID: d.ID, Kind: kind, URL: d.URL, Bytes: int64(len(data))}

	switch kind {
	case KindImage:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode image %s: %w", d.URL, err)
		}
		b := img.Bounds()
		a.Image = img
		a.Bytes = int64(b.Dx()) * int64(b.Dy()) * 4
	case KindSheet:
		key := d.Sheet
		if key == "" {
			key = SheetKey(d.URL)
		}
		s, err := ParseSheet(key, data)
		if err != nil {
			return nil, err
		}
		a.Sheet = s
	case KindFont:
		font, err := f.parseFont(ctx, d, data)
		if err != nil {
			return nil, err
		}
		a.Font = font
		a.Data = data
	default:
		a.Data = data
	}
	return a, nil
}

// parseFont parses font data with a soft timeout: when parsing outlasts the
// timeout the asset is returned without a parsed font and a warning is
// logged, so playback continues with a fallback.
func (f *FSFetcher) parseFont(ctx context.Context, d AssetDescriptor, data []byte) (*opentype.Font, error) {
	type result struct {
		font *opentype.Font
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		font, err := opentype.Parse(data)
		ch <- result{font, err}
	}()

	var timeout <-chan time.Time
	if f.fontTimeout > 0 {
		timer := time.NewTimer(f.fontTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("parse font %s: %w", d.URL, r.err)
		}
		return r.font, nil
	case <-timeout:
		f.log.Warn("font load timed out, using fallback",
			zap.String("asset", d.ID), zap.Duration("timeout", f.fontTimeout))
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
