package pixel

import "sync/atomic"

// Status is a Frame's lifecycle state. Transitions are monotonic within one
// lifetime except Loaded<->Expired (spec §3).
type Status uint8

const (
	// StatusHeader means metadata is known but pixels are absent.
	StatusHeader Status = iota
	// StatusLoading means some worker has claimed this frame for compute.
	StatusLoading
	// StatusLoaded means pixels are valid and current.
	StatusLoaded
	// StatusComposing means a composition is actively populating this frame.
	StatusComposing
	// StatusExpired means pixels are valid but stale; still displayable.
	StatusExpired
	// StatusPlaceholder means size is known and contents are zeroed (or tinted).
	StatusPlaceholder
	// StatusError means this compute attempt failed permanently; a later
	// cache miss may retry.
	StatusError
)

// String returns a short human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusHeader:
		return "header"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusComposing:
		return "composing"
	case StatusExpired:
		return "expired"
	case StatusPlaceholder:
		return "placeholder"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Frame is an immutable-after-load pixel container for one comp-time index.
// The status cell and payload are shared across clones, so Clone is cheap:
// it copies only the wrapper, not the pixels.
type Frame struct {
	Width  int
	Height int
	Format Format

	status  *atomic.Uint32
	payload *atomic.Pointer[PixelBuffer]

	// PlaceholderTint is an optional RGBA average-color hint shown while a
	// Placeholder frame is on screen (see SPEC_FULL §12); nil means
	// transparent black.
	PlaceholderTint *[4]byte
}

// NewHeader creates a Frame with known dimensions/format but no pixels.
func NewHeader(width, height int, format Format) *Frame {
	f := newFrame(width, height, format)
	f.status.Store(uint32(StatusHeader))
	return f
}

// NewPlaceholder creates a zeroed Frame in StatusPlaceholder, optionally
// tinted with the node's last-known average color.
func NewPlaceholder(width, height int, format Format, tint *[4]byte) *Frame {
	f := newFrame(width, height, format)
	f.payload.Store(NewPixelBuffer(format, width, height))
	f.status.Store(uint32(StatusPlaceholder))
	f.PlaceholderTint = tint
	return f
}

// NewLoaded wraps an already-decoded/composed buffer as a Loaded frame.
func NewLoaded(buf *PixelBuffer) *Frame {
	f := newFrame(buf.Width, buf.Height, buf.Format)
	f.payload.Store(buf)
	f.status.Store(uint32(StatusLoaded))
	return f
}

func newFrame(width, height int, format Format) *Frame {
	return &Frame{
		Width:   width,
		Height:  height,
		Format:  format,
		status:  &atomic.Uint32{},
		payload: &atomic.Pointer[PixelBuffer]{},
	}
}

// Status returns the current lifecycle status.
func (f *Frame) Status() Status {
	return Status(f.status.Load())
}

// SetStatus transitions the frame to a new status. Callers are responsible
// for honoring the monotonic-transition invariant (spec §3); this method
// does not itself validate transitions, matching the original's permissive
// worker-side setter.
func (f *Frame) SetStatus(s Status) {
	f.status.Store(uint32(s))
}

// CompareAndSetStatus atomically transitions the frame from old to new,
// returning whether it succeeded. Used by workers to claim a Header frame
// for loading without a race against another worker.
func (f *Frame) CompareAndSetStatus(old, new Status) bool {
	return f.status.CompareAndSwap(uint32(old), uint32(new))
}

// Payload returns the current pixel payload, or nil if pixels are not yet
// present (Header/Loading/Error).
func (f *Frame) Payload() *PixelBuffer {
	return f.payload.Load()
}

// SetPayload installs pixels and should be followed by a SetStatus to
// StatusLoaded (or StatusExpired on a stale recomputation landing after a
// newer one already won).
func (f *Frame) SetPayload(buf *PixelBuffer) {
	f.payload.Store(buf)
}

// ByteSize returns the accounted size of this frame for cache bookkeeping:
// the payload's byte size, or 0 if no payload is present yet.
func (f *Frame) ByteSize() int64 {
	return f.Payload().ByteSize()
}

// Clone returns a shallow copy sharing the same status cell and payload
// pointer — clone-cheap per spec §3. Mutations via SetStatus/SetPayload on
// either clone are observed by both.
func (f *Frame) Clone() *Frame {
	return &Frame{
		Width:           f.Width,
		Height:          f.Height,
		Format:          f.Format,
		status:          f.status,
		payload:         f.payload,
		PlaceholderTint: f.PlaceholderTint,
	}
}

// Displayable reports whether the frame currently holds pixels worth
// showing (Loaded or Expired), as opposed to Header/Loading/Error/
// Placeholder.
func (f *Frame) Displayable() bool {
	switch f.Status() {
	case StatusLoaded, StatusExpired:
		return true
	default:
		return false
	}
}
