package hal

// ParamDirection is hal_param_dir_t, seen from the rest of the HAL: a
// read-only parameter cannot be changed with setp.
type ParamDirection int32

const (
	ParamRO ParamDirection = 64
	ParamRW ParamDirection = ParamRO | 128
)

func (d ParamDirection) String() string {
	switch d {
	case ParamRO:
		return "ro"
	case ParamRW:
		return "rw"
	default:
		return "unknown"
	}
}

// ReadOnlyParam is a parameter the component only reads.
type ReadOnlyParam[S Scalar] struct {
	resource[S]
}

// Value returns the parameter's current value.
func (p *ReadOnlyParam[S]) Value() (S, error) { return p.storage.Get() }

// Direction returns ParamRO.
func (p *ReadOnlyParam[S]) Direction() ParamDirection { return ParamRO }

// ReadWriteParam is a parameter both the component and the HAL may change.
type ReadWriteParam[S Scalar] struct {
	resource[S]
}

// Value returns the parameter's current value.
func (p *ReadWriteParam[S]) Value() (S, error) { return p.storage.Get() }

// Set writes v to the parameter.
func (p *ReadWriteParam[S]) Set(v S) error { return p.storage.Set(v) }

// Direction returns ParamRW.
func (p *ReadWriteParam[S]) Direction() ParamDirection { return ParamRW }

var (
	_ Reader[uint32] = (*ReadOnlyParam[uint32])(nil)
	_ Reader[int32]  = (*ReadWriteParam[int32])(nil)
	_ Writer[int32]  = (*ReadWriteParam[int32])(nil)
)
