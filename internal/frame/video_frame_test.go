package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxcodec/webcodecs/internal/codecerr"
)

func i420Buffer(w, h int) []byte {
	size, _ := I420.byteSize(w, h)
	return make([]byte, size)
}

func TestNewVideoFrame_I420_Valid(t *testing.T) {
	buf := i420Buffer(640, 480)
	f, err := NewVideoFrame(buf, VideoFrameBufferInit{
		Format:      I420,
		CodedWidth:  640,
		CodedHeight: 480,
		Timestamp:   33333,
	})
	require.NoError(t, err)
	defer f.Close()

	w, err := f.CodedWidth()
	require.NoError(t, err)
	assert.Equal(t, 640, w)

	rect, err := f.VisibleRect()
	require.NoError(t, err)
	assert.Equal(t, Rect{0, 0, 640, 480}, rect)

	dw, dh, err := f.DisplaySize()
	require.NoError(t, err)
	assert.Equal(t, 640, dw)
	assert.Equal(t, 480, dh)
}

func TestNewVideoFrame_OddDimensionsRejectedForPlanar(t *testing.T) {
	buf := make([]byte, 100)
	_, err := NewVideoFrame(buf, VideoFrameBufferInit{
		Format:      I420,
		CodedWidth:  641,
		CodedHeight: 480,
		Timestamp:   0,
	})
	require.Error(t, err)
	kind, ok := codecerr.As(err)
	require.True(t, ok)
	assert.Equal(t, codecerr.TypeError, kind)
}

func TestNewVideoFrame_WrongBufferLength(t *testing.T) {
	_, err := NewVideoFrame(make([]byte, 10), VideoFrameBufferInit{
		Format:      I420,
		CodedWidth:  640,
		CodedHeight: 480,
	})
	require.Error(t, err)
	assert.True(t, codecerr.Is(err, codecerr.TypeError))
}

func TestNewVideoFrame_VisibleRectMustBeContained(t *testing.T) {
	buf := i420Buffer(640, 480)
	bad := Rect{X: 0, Y: 0, Width: 700, Height: 480}
	_, err := NewVideoFrame(buf, VideoFrameBufferInit{
		Format:      I420,
		CodedWidth:  640,
		CodedHeight: 480,
		VisibleRect: &bad,
	})
	require.Error(t, err)
	assert.True(t, codecerr.Is(err, codecerr.TypeError))
}

func TestVideoFrame_CloseInvalidatesAccessors(t *testing.T) {
	buf := i420Buffer(320, 240)
	f, err := NewVideoFrame(buf, VideoFrameBufferInit{Format: I420, CodedWidth: 320, CodedHeight: 240})
	require.NoError(t, err)

	f.Close()
	_, err = f.CodedWidth()
	require.Error(t, err)
	assert.True(t, codecerr.Is(err, codecerr.InvalidState))

	// Close is idempotent.
	assert.NotPanics(t, func() { f.Close() })
}

func TestVideoFrame_RefCountLaw(t *testing.T) {
	buf := i420Buffer(320, 240)
	f, err := NewVideoFrame(buf, VideoFrameBufferInit{Format: I420, CodedWidth: 320, CodedHeight: 240})
	require.NoError(t, err)

	clone, err := f.Clone()
	require.NoError(t, err)

	// Closing the original does not invalidate the clone's data; the
	// backing allocation only frees once every outstanding reference
	// (here: 2) has closed.
	f.Close()
	_, err = clone.Data()
	require.NoError(t, err)

	clone.Close()
	_, err = clone.Data()
	require.Error(t, err)
}

func TestVideoFrame_CopyTo(t *testing.T) {
	buf := i420Buffer(2, 2)
	for i := range buf {
		buf[i] = byte(i + 1)
	}
	f, err := NewVideoFrame(buf, VideoFrameBufferInit{Format: I420, CodedWidth: 2, CodedHeight: 2})
	require.NoError(t, err)
	defer f.Close()

	dest := make([]byte, len(buf))
	n, err := f.CopyTo(dest)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, buf, dest)
}

func TestNewVideoFrameFromPixelSource(t *testing.T) {
	src := fakePixelSource{w: 4, h: 2}
	f, err := NewVideoFrameFromPixelSource(src, 1000)
	require.NoError(t, err)
	defer f.Close()

	format, err := f.Format()
	require.NoError(t, err)
	assert.Equal(t, RGBA, format)

	ts, err := f.Timestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1000), ts)
}

type fakePixelSource struct {
	w, h int
}

func (s fakePixelSource) Width() int  { return s.w }
func (s fakePixelSource) Height() int { return s.h }
func (s fakePixelSource) ReadRGBA() []byte {
	return make([]byte, s.w*s.h*4)
}
