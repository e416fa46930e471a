package hal

import (
	"os"

	"go.uber.org/zap"
)

type options struct {
	api     API
	log     *zap.Logger
	signals []os.Signal
	noWatch bool
}

// Option configures a component at creation time.
type Option func(*options)

// WithAPI routes every HAL call through api instead of the native binding.
// Tests and the halcomp --sim mode pass a *halsim.HAL here.
func WithAPI(api API) Option {
	return func(o *options) { o.api = api }
}

// WithLogger sets the logger used for this component's lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithSignals overrides the signals that ShouldExit reacts to.
func WithSignals(sigs ...os.Signal) Option {
	return func(o *options) { o.signals = sigs }
}

// WithoutSignals leaves the shutdown watcher unarmed, so ShouldExit only
// reports true once the component is closed. Useful when the host process
// installs its own handlers.
func WithoutSignals() Option {
	return func(o *options) { o.noWatch = true }
}

func buildOptions(opts []Option) (*options, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = Logger()
	}
	if o.api == nil {
		api, err := NativeAPI()
		if err != nil {
			return nil, err
		}
		o.api = api
	}
	return o, nil
}
