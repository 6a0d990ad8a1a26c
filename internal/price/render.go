package price

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	textColor    = color.NRGBA{R: 255, A: 255}
	shadowColor  = color.NRGBA{A: 255}
	outlineColor = color.NRGBA{R: 255, G: 215, A: 255}
	canvasColor  = color.NRGBA{R: 40, G: 12, B: 10, A: 255}
)

// Card sizes and text placement.
const (
	priceFontSize    = 140
	greetingFontSize = 90
	fallbackWidth    = 1024
	fallbackHeight   = 768
)

// Renderer draws text cards over background pictures.
type Renderer struct {
	font *opentype.Font
}

// NewRenderer loads the TrueType/OpenType font at fontPath. An empty path uses Go Bold.
func NewRenderer(fontPath string) (*Renderer, error) {
	data := gobold.TTF
	if fontPath != "" {
		raw, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font: %w", err)
		}
		data = raw
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Renderer{font: f}, nil
}

// RenderPrice draws "SYMBOL\n$price" in the top-left corner of background.
func (r *Renderer) RenderPrice(ctx context.Context, background, symbol string, p float64) ([]byte, error) {
	return r.render(ctx, background, symbol+"\n$"+Format(p), priceFontSize, image.Pt(35, 20))
}

// RenderGreeting draws text near the bottom-left of background.
func (r *Renderer) RenderGreeting(ctx context.Context, background, text string) ([]byte, error) {
	return r.render(ctx, background, text, greetingFontSize, image.Pt(40, 570))
}

func (r *Renderer) render(ctx context.Context, background, text string, size float64, at image.Point) ([]byte, error) {
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	img, err := loadBackground(background)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// Shadow, then a gold outline, then the text itself.
	drawLines(img, face, text, at.Add(image.Pt(4, 4)), shadowColor)
	for _, dx := range []int{-2, -1, 1, 2} {
		for _, dy := range []int{-2, -1, 1, 2} {
			drawLines(img, face, text, at.Add(image.Pt(dx, dy)), outlineColor)
		}
	}
	drawLines(img, face, text, at, textColor)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// loadBackground decodes a JPEG or PNG file into a drawable canvas. A missing
// file falls back to a plain canvas so the card still goes out.
func loadBackground(path string) (*image.RGBA, error) {
	if path == "" {
		return plainCanvas(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("Background image not found, using plain canvas")
			return plainCanvas(), nil
		}
		return nil, fmt.Errorf("failed to open background: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode background: %w", err)
	}
	dst := image.NewRGBA(src.Bounds())
	imagedraw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, imagedraw.Src)
	return dst, nil
}

func plainCanvas() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fallbackWidth, fallbackHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(canvasColor), image.Point{}, imagedraw.Src)
	return img
}

// drawLines draws text with its top-left corner at origin.
func drawLines(dst imagedraw.Image, face font.Face, text string, origin image.Point, clr color.Color) {
	metrics := face.Metrics()
	drawer := &font.Drawer{Dst: dst, Src: image.NewUniform(clr), Face: face}
	baseline := fixed.I(origin.Y) + metrics.Ascent
	for _, line := range strings.Split(text, "\n") {
		drawer.Dot = fixed.Point26_6{X: fixed.I(origin.X), Y: baseline}
		drawer.DrawString(line)
		baseline += metrics.Height
	}
}
