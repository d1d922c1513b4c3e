package services

import (
	"fmt"
	"image"

	"certgen/config"
)

type Corner int

const (
	TopLeft Corner = iota
	BottomRight
)

// Layout fixes where each element of a certificate goes. Only the name is
// positioned relative to the template width.
type Layout struct {
	Name string

	NameY int

	ShowFields    bool
	EventPos      image.Point
	DatePos       image.Point
	FieldFontSize int

	QRSize   int
	QRCorner Corner
	// QROffset is measured from QRCorner to the QR code's top-left pixel.
	QROffset image.Point

	ShowCaption     bool
	CaptionFontSize int
	CaptionOffsetY  int
}

var layouts = map[string]Layout{
	config.LayoutClassic: {
		Name:     config.LayoutClassic,
		NameY:    400,
		QRSize:   150,
		QRCorner: BottomRight,
		QROffset: image.Pt(200, 200),
	},
	config.LayoutDetailed: {
		Name:          config.LayoutDetailed,
		NameY:         300,
		ShowFields:    true,
		EventPos:      image.Pt(500, 400),
		DatePos:       image.Pt(500, 500),
		FieldFontSize: 40,
		QRSize:        200,
		QRCorner:      TopLeft,
		QROffset:      image.Pt(50, 50),
	},
	config.LayoutCaptioned: {
		Name:            config.LayoutCaptioned,
		NameY:           400,
		QRSize:          100,
		QRCorner:        BottomRight,
		QROffset:        image.Pt(150, 150),
		ShowCaption:     true,
		CaptionFontSize: 20,
		CaptionOffsetY:  110,
	},
}

func LookupLayout(name string) (Layout, error) {
	layout, ok := layouts[name]
	if !ok {
		return Layout{}, fmt.Errorf("unknown layout %q", name)
	}
	return layout, nil
}

// QRPosition resolves the QR code's top-left corner on a template.
func (l Layout) QRPosition(bounds image.Rectangle) image.Point {
	if l.QRCorner == BottomRight {
		return image.Pt(bounds.Max.X-l.QROffset.X, bounds.Max.Y-l.QROffset.Y)
	}
	return bounds.Min.Add(l.QROffset)
}
