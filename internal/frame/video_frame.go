// Package frame implements the reference-counted, explicitly-closeable
// media carriers (spec §4.1 "Frame carriers"): VideoFrame, AudioData,
// EncodedVideoChunk, EncodedAudioChunk.
package frame

import (
	"fmt"

	"github.com/mxcodec/webcodecs/internal/codecerr"
)

// VideoFrameBufferInit describes a raw pixel buffer being wrapped into a
// VideoFrame (spec §4.1 "(a) a raw byte buffer + VideoFrameBufferInit").
type VideoFrameBufferInit struct {
	Format       VideoPixelFormat
	CodedWidth   int
	CodedHeight  int
	VisibleRect  *Rect // nil → defaults to the full coded rect
	DisplayWidth int   // 0 → defaults to visible width
	DisplayHeight int  // 0 → defaults to visible height
	Timestamp    int64
	Duration     *int64
}

// PixelSource is the minimal capability a canvas/image-like collaborator
// must expose to seed a VideoFrame (spec §4.1: "a minimal capability:
// returns width, height, and RGBA pixel access"). Implementing a real
// canvas/image collaborator is out of scope.
type PixelSource interface {
	Width() int
	Height() int
	ReadRGBA() []byte
}

// VideoFrame owns a pixel buffer plus its WebCodecs metadata. Each
// VideoFrame value returned by New or Clone is an independent handle onto a
// shared, ref-counted allocation (spec §4.1).
type VideoFrame struct {
	buf    *refBuffer
	closed bool

	format        VideoPixelFormat
	codedWidth    int
	codedHeight   int
	visibleRect   Rect
	displayWidth  int
	displayHeight int
	timestamp     int64
	duration      *int64
}

// NewVideoFrame builds a VideoFrame from a raw pixel buffer (spec §4.1
// construction path (a)). It validates the invariants from spec §4.1:
// even coded dimensions for planar formats, buffer length matching the
// format-prescribed size, and visibleRect ⊆ codedRect.
func NewVideoFrame(data []byte, init VideoFrameBufferInit) (*VideoFrame, error) {
	const op = "frame.NewVideoFrame"

	if init.CodedWidth <= 0 || init.CodedHeight <= 0 {
		return nil, codecerr.New(codecerr.TypeError, op, "codedWidth/codedHeight must be positive")
	}
	if init.Format.requiresEvenDimensions() && (init.CodedWidth%2 != 0 || init.CodedHeight%2 != 0) {
		return nil, codecerr.New(codecerr.TypeError, op,
			fmt.Sprintf("format %s requires even coded dimensions, got %dx%d", init.Format, init.CodedWidth, init.CodedHeight))
	}
	want, ok := init.Format.byteSize(init.CodedWidth, init.CodedHeight)
	if !ok {
		return nil, codecerr.New(codecerr.TypeError, op, fmt.Sprintf("unknown pixel format %q", init.Format))
	}
	if len(data) != want {
		return nil, codecerr.New(codecerr.TypeError, op,
			fmt.Sprintf("buffer length %d does not match format-prescribed size %d", len(data), want))
	}

	codedRect := Rect{0, 0, init.CodedWidth, init.CodedHeight}
	visible := codedRect
	if init.VisibleRect != nil {
		visible = *init.VisibleRect
	}
	if !visible.contains(codedRect) {
		return nil, codecerr.New(codecerr.TypeError, op, "visibleRect is not contained in codedRect")
	}

	displayWidth := init.DisplayWidth
	if displayWidth == 0 {
		displayWidth = visible.Width
	}
	displayHeight := init.DisplayHeight
	if displayHeight == 0 {
		displayHeight = visible.Height
	}

	return &VideoFrame{
		buf:           newRefBuffer(data),
		format:        init.Format,
		codedWidth:    init.CodedWidth,
		codedHeight:   init.CodedHeight,
		visibleRect:   visible,
		displayWidth:  displayWidth,
		displayHeight: displayHeight,
		timestamp:     init.Timestamp,
		duration:      init.Duration,
	}, nil
}

// NewVideoFrameFromPixelSource builds a well-formed RGBA VideoFrame from a
// canvas/image-like collaborator (spec §4.1 construction path (b)).
func NewVideoFrameFromPixelSource(src PixelSource, timestamp int64) (*VideoFrame, error) {
	w, h := src.Width(), src.Height()
	data := src.ReadRGBA()
	return NewVideoFrame(data, VideoFrameBufferInit{
		Format:      RGBA,
		CodedWidth:  w,
		CodedHeight: h,
		Timestamp:   timestamp,
	})
}

func (f *VideoFrame) checkOpen(op string) error {
	if f.closed {
		return codecerr.New(codecerr.InvalidState, op, "VideoFrame is closed")
	}
	return nil
}

// Format, CodedWidth, CodedHeight, VisibleRect, DisplayWidth, DisplayHeight,
// Timestamp, and Duration are read accessors; each fails InvalidState once
// the frame is closed (spec §4.1).

func (f *VideoFrame) Format() (VideoPixelFormat, error) {
	if err := f.checkOpen("VideoFrame.Format"); err != nil {
		return "", err
	}
	return f.format, nil
}

func (f *VideoFrame) CodedWidth() (int, error) {
	if err := f.checkOpen("VideoFrame.CodedWidth"); err != nil {
		return 0, err
	}
	return f.codedWidth, nil
}

func (f *VideoFrame) CodedHeight() (int, error) {
	if err := f.checkOpen("VideoFrame.CodedHeight"); err != nil {
		return 0, err
	}
	return f.codedHeight, nil
}

func (f *VideoFrame) VisibleRect() (Rect, error) {
	if err := f.checkOpen("VideoFrame.VisibleRect"); err != nil {
		return Rect{}, err
	}
	return f.visibleRect, nil
}

func (f *VideoFrame) DisplaySize() (width, height int, err error) {
	if err := f.checkOpen("VideoFrame.DisplaySize"); err != nil {
		return 0, 0, err
	}
	return f.displayWidth, f.displayHeight, nil
}

func (f *VideoFrame) Timestamp() (int64, error) {
	if err := f.checkOpen("VideoFrame.Timestamp"); err != nil {
		return 0, err
	}
	return f.timestamp, nil
}

func (f *VideoFrame) Duration() (*int64, error) {
	if err := f.checkOpen("VideoFrame.Duration"); err != nil {
		return nil, err
	}
	return f.duration, nil
}

// Clone increments the backing allocation's ref count and returns an
// independent handle with its own close lifecycle (spec §4.1: "clone() is
// allowed only on open carriers").
func (f *VideoFrame) Clone() (*VideoFrame, error) {
	if err := f.checkOpen("VideoFrame.Clone"); err != nil {
		return nil, err
	}
	f.buf.retain()
	clone := *f
	clone.closed = false
	return &clone, nil
}

// CopyTo copies the full allocation into dest in the declared plane order
// (spec §4.1: "Y, U, V for I420; R,G,B,A per pixel for RGBA"). The
// operation is specified as "eventually completes"; this implementation
// completes synchronously, which the spec permits (§9 design notes).
func (f *VideoFrame) CopyTo(dest []byte) (int, error) {
	if err := f.checkOpen("VideoFrame.CopyTo"); err != nil {
		return 0, err
	}
	if len(dest) < len(f.buf.data) {
		return 0, codecerr.New(codecerr.TypeError, "VideoFrame.CopyTo", "destination buffer too small")
	}
	n := copy(dest, f.buf.data)
	return n, nil
}

// Data returns the raw backing buffer. Callers must not retain it past the
// frame's close(); take a copy via CopyTo if longer-lived access is needed.
func (f *VideoFrame) Data() ([]byte, error) {
	if err := f.checkOpen("VideoFrame.Data"); err != nil {
		return nil, err
	}
	return f.buf.data, nil
}

// Close releases one reference. Once the last reference closes, the
// backing allocation is freed (spec §4.1, §8 "ref-count law"). Close is
// idempotent.
func (f *VideoFrame) Close() {
	if f.closed {
		return
	}
	f.closed = true
	f.buf.release()
}

// IsClosed reports whether Close has been called on this handle.
func (f *VideoFrame) IsClosed() bool {
	return f.closed
}
