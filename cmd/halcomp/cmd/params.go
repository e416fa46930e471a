/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"errors"

	hal "github.com/blacktop/go-linuxcnc-hal"
	"github.com/blacktop/go-linuxcnc-hal/halsim"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(paramsCmd)
}

// Params is the resource bundle of the params component.
type Params struct {
	RO *hal.ReadOnlyParam[float64]
	RW *hal.ReadWriteParam[uint32]
}

// RegisterParams registers the ro and rw parameters.
func RegisterParams(r *hal.Registry) (Params, error) {
	ro, err := hal.RegisterReadOnlyParam[float64](r, "ro")
	if err != nil {
		return Params{}, err
	}
	rw, err := hal.RegisterReadWriteParam[uint32](r, "rw")
	if err != nil {
		return Params{}, err
	}
	return Params{RO: ro, RW: rw}, nil
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Run a component that counts in its rw parameter and logs both parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, b, log, err := setup()
		if err != nil {
			return err
		}
		defer b.Close()

		comp, err := hal.New(componentName(cfg, "params"), RegisterParams, hal.WithAPI(b.api), hal.WithLogger(log))
		if err != nil {
			return err
		}
		defer comp.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if cfg.Component.Duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Component.Duration)
			defer cancel()
		}

		params := comp.Resources()
		if b.sim != nil {
			if err := halsim.Poke(b.sim, params.RO.Name(), 1.234); err != nil {
				return err
			}
		}

		err = comp.Run(ctx, cfg.Component.Period, func() error {
			rw, err := params.RW.Value()
			if err != nil {
				return err
			}
			if err := params.RW.Set(rw + 1); err != nil {
				return err
			}
			ro, err := params.RO.Value()
			if err != nil {
				return err
			}
			log.Info("params", zap.Float64("ro", ro), zap.Uint32("rw", rw+1))
			return nil
		})
		if errors.Is(err, context.DeadlineExceeded) {
			err = nil
		}
		if b.sim != nil {
			printObjects(cmd.OutOrStdout(), "Parameters:", b.sim.Params())
		}
		return err
	},
}
