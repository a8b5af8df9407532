package psd

import (
	"errors"
	"testing"
)

func TestLayerShapeOffset(t *testing.T) {
	l := Layer{Rectangle: Rectangle{Top: 10, Left: 20, Bottom: 14, Right: 27}}
	rows, cols := l.Shape()
	if rows != 4 || cols != 7 {
		t.Errorf("Shape = %d, %d", rows, cols)
	}
	top, left := l.Offset()
	if top != 10 || left != 20 {
		t.Errorf("Offset = %d, %d", top, left)
	}
}

func TestChannelShape(t *testing.T) {
	l := Layer{
		Rectangle: Rectangle{Bottom: 4, Right: 7},
		Mask:      &Mask{Rectangle: Rectangle{Bottom: 2, Right: 3}},
	}
	rows, cols := l.ChannelShape(Channel0)
	if rows != 4 || cols != 7 {
		t.Errorf("color channel shape = %d, %d", rows, cols)
	}
	rows, cols = l.ChannelShape(ChannelTransparencyMask)
	if rows != 4 || cols != 7 {
		t.Errorf("transparency channel shape = %d, %d", rows, cols)
	}
	rows, cols = l.ChannelShape(ChannelUserMask)
	if rows != 2 || cols != 3 {
		t.Errorf("mask channel shape = %d, %d", rows, cols)
	}
}

func TestLayerInfoBounds(t *testing.T) {
	li := &LayerInfo{Layers: []Layer{
		{Rectangle: Rectangle{Top: 2, Left: 3, Bottom: 8, Right: 9}},
		{Rectangle: Rectangle{}}, // empty layers are ignored
		{Rectangle: Rectangle{Top: -1, Left: 5, Bottom: 4, Right: 12}},
	}}
	want := Rectangle{Top: -1, Left: 3, Bottom: 8, Right: 12}
	if got := li.Bounds(); got != want {
		t.Errorf("Bounds = %v, want %v", got, want)
	}
	if got := (&LayerInfo{}).Bounds(); !got.IsZero() {
		t.Errorf("empty Bounds = %v", got)
	}
}

func TestLayerInfoPlane(t *testing.T) {
	li := &LayerInfo{Key: KeyLayer16, Layers: []Layer{{
		Rectangle: Rectangle{Bottom: 2, Right: 3},
		Channels: []Channel{
			{ID: Channel0, Data: make([]byte, 2*3*2)},
			{ID: Channel1, Data: make([]byte, 5)},
		},
	}}}

	p, err := li.Plane(0, Channel0)
	if err != nil {
		t.Fatal(err)
	}
	if p.Rows != 2 || p.Cols != 3 || p.SampleSize != 2 || len(p.Data) != 12 {
		t.Errorf("Plane = %+v", p)
	}

	if _, err := li.Plane(0, Channel1); !errors.Is(err, ErrChannelData) {
		t.Errorf("short channel: err = %v", err)
	}
	if _, err := li.Plane(0, Channel9); !errors.Is(err, ErrChannelData) {
		t.Errorf("missing channel: err = %v", err)
	}
	if _, err := li.Plane(3, Channel0); !errors.Is(err, ErrChannelData) {
		t.Errorf("missing layer: err = %v", err)
	}
}

func TestGlobalMaskComponent(t *testing.T) {
	m := &GlobalMask{ColorSpace: ColorSpaceLab, Components: [4]uint16{50, 0xff80, 10, 0}}
	if got := m.Component(0); got != 50 {
		t.Errorf("L component = %d", got)
	}
	if got := m.Component(1); got != -128 {
		t.Errorf("a component = %d, want -128", got)
	}
	rgb := &GlobalMask{ColorSpace: ColorSpaceRGB, Components: [4]uint16{0xff80, 0, 0, 0}}
	if got := rgb.Component(0); got != 0xff80 {
		t.Errorf("RGB component = %d", got)
	}
}

func TestUnicodeNameFallback(t *testing.T) {
	l := Layer{Name: "record name"}
	if got := l.UnicodeName(); got != "record name" {
		t.Errorf("UnicodeName = %q", got)
	}
	l.Info = []Block{&UnicodeString{Tag: KeyUnicodeLayerName, Value: "unicode name"}}
	if got := l.UnicodeName(); got != "unicode name" {
		t.Errorf("UnicodeName = %q", got)
	}
}
