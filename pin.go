package hal

// PinDirection is hal_pin_dir_t.
type PinDirection int32

const (
	PinIn  PinDirection = 16
	PinOut PinDirection = 32
	PinIO  PinDirection = PinIn | PinOut
)

func (d PinDirection) String() string {
	switch d {
	case PinIn:
		return "in"
	case PinOut:
		return "out"
	case PinIO:
		return "io"
	default:
		return "unknown"
	}
}

// Reader is implemented by every pin and parameter the component may read.
type Reader[S Scalar] interface {
	Name() string
	Value() (S, error)
}

// Writer is implemented by every pin and parameter the component may write.
type Writer[S Scalar] interface {
	Name() string
	Set(v S) error
}

// InputPin is written by the rest of the HAL and read by the component.
type InputPin[S Scalar] struct {
	resource[S]
}

// Value returns the pin's current value.
func (p *InputPin[S]) Value() (S, error) { return p.storage.Get() }

// Direction returns PinIn.
func (p *InputPin[S]) Direction() PinDirection { return PinIn }

// OutputPin is written by the component. Value reads back whatever is in the
// pin, normally the last value the component wrote.
type OutputPin[S Scalar] struct {
	resource[S]
}

// Set writes v to the pin.
func (p *OutputPin[S]) Set(v S) error { return p.storage.Set(v) }

// Value returns the pin's current value.
func (p *OutputPin[S]) Value() (S, error) { return p.storage.Get() }

// Direction returns PinOut.
func (p *OutputPin[S]) Direction() PinDirection { return PinOut }

// BidirectionalPin can be read and written by both the component and the HAL.
type BidirectionalPin[S Scalar] struct {
	resource[S]
}

// Set writes v to the pin.
func (p *BidirectionalPin[S]) Set(v S) error { return p.storage.Set(v) }

// Value returns the pin's current value.
func (p *BidirectionalPin[S]) Value() (S, error) { return p.storage.Get() }

// Direction returns PinIO.
func (p *BidirectionalPin[S]) Direction() PinDirection { return PinIO }

var (
	_ Reader[float64] = (*InputPin[float64])(nil)
	_ Reader[float64] = (*OutputPin[float64])(nil)
	_ Writer[float64] = (*OutputPin[float64])(nil)
	_ Reader[bool]    = (*BidirectionalPin[bool])(nil)
	_ Writer[bool]    = (*BidirectionalPin[bool])(nil)
)
