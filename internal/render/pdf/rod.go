package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserRasterizer screenshots pages with a headless Chrome driven by rod.
// A browser is launched per export and killed afterwards.
type BrowserRasterizer struct {
	// Bin is the browser binary. Empty lets the launcher find or download one.
	Bin    string
	Logger *slog.Logger
}

func (b *BrowserRasterizer) Rasterize(ctx context.Context, page []byte, opts RasterOptions) (image.Image, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	l := launcher.New().Context(ctx).Headless(true)
	if b.Bin != "" {
		l = l.Bin(b.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	defer browser.Close()

	p, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            800,
		DeviceScaleFactor: opts.Scale,
	}).Call(p); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := p.SetDocumentContent(string(page)); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for load: %w", err)
	}

	res, err := p.Eval(`() => document.documentElement.scrollHeight`)
	if err != nil {
		return nil, fmt.Errorf("measure page: %w", err)
	}
	height := int(math.Ceil(float64(res.Value.Int()) * opts.Scale))
	logger.Debug("page measured", "css_height", res.Value.Int(), "canvas_height", height)
	if opts.MaxHeight > 0 && height > opts.MaxHeight {
		return nil, fmt.Errorf("%w: %d > %d pixels", ErrCanvasTooLarge, height, opts.MaxHeight)
	}

	shot, err := p.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return img, nil
}
