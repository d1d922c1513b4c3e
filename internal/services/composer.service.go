package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"certgen/internal/logger"
	. "certgen/internal/models"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FontSizing bounds the adaptive name rendering.
type FontSizing struct {
	Initial  int
	Floor    int
	MaxWidth int
}

type ComposerOptions struct {
	Layout Layout
	Sizing FontSizing
	// FontPath is a TTF/OTF file; empty uses the embedded Go Regular face.
	FontPath string
	Format   string
}

// CertificateContent is everything drawn onto one certificate.
type CertificateContent struct {
	Row       RosterRow
	ID        string
	Reference string
}

type ComposerService struct {
	options ComposerOptions
	log     logger.Logger
}

func NewComposerService(options ComposerOptions) *ComposerService {
	return &ComposerService{
		options: options,
		log:     logger.New("ComposerService"),
	}
}

func (s *ComposerService) Extension() string {
	return s.options.Format
}

// Batch holds the template and font for one generation run.
type Batch struct {
	options  ComposerOptions
	template image.Image
	font     *opentype.Font
}

// Prepare loads the template and font. Both are read once per run and the
// template is copied for every certificate.
func (s *ComposerService) Prepare(templatePath string) (*Batch, error) {
	log := s.log.Function("Prepare")

	template, err := imaging.Open(templatePath)
	if err != nil {
		return nil, log.Err("failed to open template", err, "templatePath", templatePath)
	}

	fnt, err := loadFont(s.options.FontPath)
	if err != nil {
		return nil, log.Err("failed to load font", err, "fontPath", s.options.FontPath)
	}

	log.Debug("batch prepared",
		"templatePath", templatePath,
		"width", template.Bounds().Dx(),
		"height", template.Bounds().Dy(),
		"layout", s.options.Layout.Name)

	return &Batch{options: s.options, template: template, font: fnt}, nil
}

func loadFont(path string) (*opentype.Font, error) {
	data := goregular.TTF
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}
	return opentype.Parse(data)
}

// Encode writes a rendered certificate in the configured output format.
func (s *ComposerService) Encode(w io.Writer, img image.Image) error {
	return Encode(w, img, s.options.Format)
}

// FittedText is a face sized so the text fits, and the text's ink metrics.
type FittedText struct {
	Face  font.Face
	Size  int
	Width int
	minX  fixed.Int26_6
}

func (b *Batch) face(size int) (font.Face, error) {
	return opentype.NewFace(b.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

func measure(face font.Face, text string) (int, fixed.Int26_6) {
	bounds, _ := font.BoundString(face, text)
	return (bounds.Max.X - bounds.Min.X).Ceil(), bounds.Min.X
}

// FitName shrinks the font one point at a time until text fits MaxWidth or the
// floor is reached. At the floor the text may still overflow. The caller
// closes the returned face.
func (b *Batch) FitName(text string) (*FittedText, error) {
	sizing := b.options.Sizing
	size := sizing.Initial

	face, err := b.face(size)
	if err != nil {
		return nil, err
	}
	width, minX := measure(face, text)

	for width > sizing.MaxWidth && size > sizing.Floor {
		_ = face.Close()
		size--
		if face, err = b.face(size); err != nil {
			return nil, err
		}
		width, minX = measure(face, text)
	}

	return &FittedText{Face: face, Size: size, Width: width, minX: minX}, nil
}

// drawText places text with its ink box starting at x and the ascender line at y.
func drawText(dst *image.NRGBA, face font.Face, text string, x, y int, minX fixed.Int26_6) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(x) - minX,
			Y: fixed.I(y) + face.Metrics().Ascent,
		},
	}
	d.DrawString(text)
}

func (b *Batch) drawFixed(dst *image.NRGBA, text string, size int, at image.Point) error {
	face, err := b.face(size)
	if err != nil {
		return err
	}
	defer face.Close()

	_, minX := measure(face, text)
	drawText(dst, face, text, at.X, at.Y, minX)
	return nil
}

// Render composes one certificate on a copy of the template.
func (b *Batch) Render(content CertificateContent) (*image.NRGBA, error) {
	layout := b.options.Layout
	canvas := imaging.Clone(b.template)
	bounds := canvas.Bounds()

	fitted, err := b.FitName(content.Row.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to size name: %w", err)
	}
	nameX := bounds.Min.X + (bounds.Dx()-fitted.Width)/2
	drawText(canvas, fitted.Face, content.Row.Name, nameX, bounds.Min.Y+layout.NameY, fitted.minX)
	_ = fitted.Face.Close()

	if layout.ShowFields {
		if err := b.drawFixed(canvas, content.Row.Event, layout.FieldFontSize, bounds.Min.Add(layout.EventPos)); err != nil {
			return nil, fmt.Errorf("failed to draw event: %w", err)
		}
		if err := b.drawFixed(canvas, content.Row.Date, layout.FieldFontSize, bounds.Min.Add(layout.DatePos)); err != nil {
			return nil, fmt.Errorf("failed to draw date: %w", err)
		}
	}

	qr, err := qrcode.New(content.Reference, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to build qr code: %w", err)
	}
	qrImage := imaging.Resize(qr.Image(-10), layout.QRSize, layout.QRSize, imaging.NearestNeighbor)
	qrPos := layout.QRPosition(bounds)
	canvas = imaging.Paste(canvas, qrImage, qrPos)

	if layout.ShowCaption {
		caption := "Verify at: " + content.Reference
		captionPos := image.Pt(qrPos.X, qrPos.Y+layout.CaptionOffsetY)
		if err := b.drawFixed(canvas, caption, layout.CaptionFontSize, captionPos); err != nil {
			return nil, fmt.Errorf("failed to draw caption: %w", err)
		}
	}

	return canvas, nil
}

// Artifact is one encoded certificate ready to be stored.
type Artifact struct {
	ID   string
	Row  RosterRow
	Data []byte
}

// ArtifactSink persists artifacts as they are produced.
type ArtifactSink interface {
	Store(ctx context.Context, artifact Artifact) error
}

type ComposeOptions struct {
	BaseURL  string
	IDScheme string
	Sink     ArtifactSink
	// Progress, when set, is called after each stored certificate.
	Progress func(done, total int, id string)
}

// Compose renders, encodes and stores one certificate per row, in order. The
// count of stored certificates is returned with any error; certificates
// stored before a failure stay in place.
func (s *ComposerService) Compose(ctx context.Context, templatePath string, rows []RosterRow, opts ComposeOptions) (int, error) {
	log := s.log.Function("Compose")

	batch, err := s.Prepare(templatePath)
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return i, log.Err("composition cancelled", err, "done", i, "total", len(rows))
		}

		id := CertificateID(row, i, opts.IDScheme)
		img, err := batch.Render(CertificateContent{
			Row:       row,
			ID:        id,
			Reference: VerificationReference(opts.BaseURL, id),
		})
		if err != nil {
			return i, log.Err("failed to render certificate", err, "id", id)
		}

		buf.Reset()
		if err := s.Encode(&buf, img); err != nil {
			return i, log.Err("failed to encode certificate", err, "id", id, "format", s.options.Format)
		}

		artifact := Artifact{ID: id, Row: row, Data: append([]byte(nil), buf.Bytes()...)}
		if err := opts.Sink.Store(ctx, artifact); err != nil {
			return i, log.Err("failed to store certificate", err, "id", id)
		}

		if opts.Progress != nil {
			opts.Progress(i+1, len(rows), id)
		}
	}

	log.Info("certificates composed", "count", len(rows), "layout", s.options.Layout.Name)
	return len(rows), nil
}
