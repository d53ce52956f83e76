package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/draw"

	"github.com/raphaelgruber/credcheck/internal/models"
	"github.com/raphaelgruber/credcheck/internal/render"
)

// ErrCanvasTooLarge is returned by rasterizers when the page would exceed the
// configured maximum canvas height.
var ErrCanvasTooLarge = errors.New("canvas exceeds maximum height")

const canvasHint = "try reliable-font mode"

// RasterOptions controls how a page is rasterized.
type RasterOptions struct {
	Width     int
	Scale     float64
	MaxHeight int
}

// Rasterizer turns an HTML page into a full-page bitmap.
type Rasterizer interface {
	Rasterize(ctx context.Context, page []byte, opts RasterOptions) (image.Image, error)
}

// A4 in millimetres.
const (
	a4Width  = 210.0
	a4Height = 297.0
)

func (r *Renderer) renderPixel(ctx context.Context, doc *render.Document, progress render.ProgressFunc) ([]byte, error) {
	if r.raster == nil {
		return nil, models.Errorf(models.CodeUnsupportedFeature, "pixel-perfect mode needs a browser").
			WithHint(canvasHint)
	}

	t := render.NewTracker(5, progress)
	if err := t.Advance(ctx, render.StageLayout, "building html"); err != nil {
		return nil, err
	}
	page, err := render.HTML(render.BuildOutline(doc))
	if err != nil {
		return nil, models.NewExportError(models.CodeGenerationFailure, "render html", err)
	}

	if err := t.Advance(ctx, render.StageRasterize, "rasterizing page"); err != nil {
		return nil, err
	}
	opts := RasterOptions{Width: r.cfg.ViewportWidth, Scale: r.cfg.Scale, MaxHeight: r.cfg.MaxCanvasHeight}
	img, err := r.raster.Rasterize(ctx, page, opts)
	switch {
	case ctx.Err() != nil:
		return nil, context.Cause(ctx)
	case errors.Is(err, ErrCanvasTooLarge):
		return nil, models.NewExportError(models.CodeGenerationFailure, "page too tall to rasterize", err).WithHint(canvasHint)
	case err != nil:
		return nil, models.NewExportError(models.CodeGenerationFailure, "rasterize page", err).WithHint(canvasHint)
	}
	if h := img.Bounds().Dy(); r.cfg.MaxCanvasHeight > 0 && h > r.cfg.MaxCanvasHeight {
		return nil, models.NewExportError(models.CodeGenerationFailure,
			fmt.Sprintf("canvas height %d exceeds %d", h, r.cfg.MaxCanvasHeight), ErrCanvasTooLarge).WithHint(canvasHint)
	}

	if err := t.Advance(ctx, render.StagePaginate, "slicing pages"); err != nil {
		return nil, err
	}
	tiles := sliceA4(img, r.cfg.ViewportWidth)

	if err := t.Advance(ctx, render.StageEncode, fmt.Sprintf("encoding %d pages", len(tiles))); err != nil {
		return nil, err
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(doc.Checklist.Title, true)
	pdf.SetCreator("credcheck "+render.Version, true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	quality := r.cfg.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	imgOpts := fpdf.ImageOptions{ImageType: "JPG"}
	for i, tile := range tiles {
		if err := t.Check(ctx); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, tile, &jpeg.Options{Quality: quality}); err != nil {
			return nil, models.NewExportError(models.CodeGenerationFailure, "encode page image", err)
		}
		name := fmt.Sprintf("page-%d", i+1)
		pdf.RegisterImageOptionsReader(name, imgOpts, &buf)
		pdf.AddPage()
		b := tile.Bounds()
		pdf.ImageOptions(name, 0, 0, a4Width, a4Width*float64(b.Dy())/float64(b.Dx()), false, imgOpts, 0, "")
	}

	if err := t.Advance(ctx, render.StageFinalize, "writing pdf"); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, models.NewExportError(models.CodeGenerationFailure, "write pdf", err).WithHint(canvasHint)
	}
	t.Done("pdf export complete")
	return out.Bytes(), nil
}

// sliceA4 cuts img into A4-proportioned tiles and scales each to width pixels.
// The last tile keeps its shorter height.
func sliceA4(img image.Image, width int) []*image.RGBA {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil
	}
	if width <= 0 {
		width = b.Dx()
	}
	srcTile := int(float64(b.Dx()) * a4Height / a4Width)
	scale := float64(width) / float64(b.Dx())

	var tiles []*image.RGBA
	for top := b.Min.Y; top < b.Max.Y; top += srcTile {
		bottom := min(top+srcTile, b.Max.Y)
		src := image.Rect(b.Min.X, top, b.Max.X, bottom)
		dstHeight := max(1, int(float64(src.Dy())*scale))
		dst := image.NewRGBA(image.Rect(0, 0, width, dstHeight))
		draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
		tiles = append(tiles, dst)
	}
	return tiles
}
