package hal

import (
	"strings"

	"go.uber.org/zap"
)

// releaser is implemented by every pin and parameter so component teardown
// can drop the handle before hal_exit runs.
type releaser interface {
	Name() string
	release()
}

// resource is the state shared by pins and parameters: the full HAL name and
// the storage handle the HAL registered.
type resource[S Scalar] struct {
	name    string
	storage *Storage[S]
}

// Name returns the full HAL name, including the component prefix.
func (r *resource[S]) Name() string { return r.name }

// Type returns the HAL value type of the resource.
func (r *resource[S]) Type() ValueType { return r.storage.Type() }

// Released reports whether the handle was dropped by component teardown.
func (r *resource[S]) Released() bool { return !r.storage.Valid() }

func (r *resource[S]) release() {
	r.storage.release()
	Logger().Debug("dropped resource handle", zap.String("resource", r.name))
}

// checkName validates a name before it is handed to the HAL. oversize and
// conversion let callers pick the component or resource flavour of the error.
func checkName(name string, conversion error) error {
	if len(name) > MaxNameLen {
		return ErrNameLength
	}
	if strings.IndexByte(name, 0) >= 0 {
		return conversion
	}
	return nil
}

func registerPin[S Scalar](api API, fullName string, dir PinDirection, compID int32) (resource[S], error) {
	if err := checkName(fullName, ErrNameConversion); err != nil {
		recordRegistrationError()
		return resource[S]{}, &ResourceError{Resource: fullName, Err: err}
	}

	storage, err := allocateStorage[S](api, true)
	if err != nil {
		recordRegistrationError()
		return resource[S]{}, &ResourceError{Resource: fullName, Err: err}
	}

	code := api.PinNew(storage.typ, fullName, dir, storage.ptr(), compID)
	if err := registerStatus(opPinNew, code); err != nil {
		recordRegistrationError()
		return resource[S]{}, &ResourceError{Resource: fullName, Err: err}
	}

	recordPin()
	Logger().Debug("registered pin",
		zap.String("resource", fullName),
		zap.Stringer("type", storage.typ),
		zap.Stringer("dir", dir),
		zap.Int32("component_id", compID))
	return resource[S]{name: fullName, storage: storage}, nil
}

func registerParam[S Scalar](api API, fullName string, dir ParamDirection, compID int32) (resource[S], error) {
	if err := checkName(fullName, ErrNameConversion); err != nil {
		recordRegistrationError()
		return resource[S]{}, &ResourceError{Resource: fullName, Err: err}
	}

	storage, err := allocateStorage[S](api, false)
	if err != nil {
		recordRegistrationError()
		return resource[S]{}, &ResourceError{Resource: fullName, Err: err}
	}

	code := api.ParamNew(storage.typ, fullName, dir, storage.ptr(), compID)
	if err := registerStatus(opParamNew, code); err != nil {
		recordRegistrationError()
		return resource[S]{}, &ResourceError{Resource: fullName, Err: err}
	}

	recordParam()
	Logger().Debug("registered parameter",
		zap.String("resource", fullName),
		zap.Stringer("type", storage.typ),
		zap.Stringer("dir", dir),
		zap.Int32("component_id", compID))
	return resource[S]{name: fullName, storage: storage}, nil
}
