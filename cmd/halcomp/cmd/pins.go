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
	"time"

	hal "github.com/blacktop/go-linuxcnc-hal"
	"github.com/blacktop/go-linuxcnc-hal/halsim"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(pinsCmd)
}

// Pins is the resource bundle of the pins component.
type Pins struct {
	Input  *hal.InputPin[float64]
	Output *hal.OutputPin[float64]
}

// RegisterPins registers input-1 and output-1.
func RegisterPins(r *hal.Registry) (Pins, error) {
	in, err := hal.RegisterInputPin[float64](r, "input-1")
	if err != nil {
		return Pins{}, err
	}
	out, err := hal.RegisterOutputPin[float64](r, "output-1")
	if err != nil {
		return Pins{}, err
	}
	return Pins{Input: in, Output: out}, nil
}

var pinsCmd = &cobra.Command{
	Use:   "pins",
	Short: "Run a component that writes elapsed seconds to output-1 and logs input-1",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, b, log, err := setup()
		if err != nil {
			return err
		}
		defer b.Close()

		comp, err := hal.New(componentName(cfg, "pins"), RegisterPins, hal.WithAPI(b.api), hal.WithLogger(log))
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

		pins := comp.Resources()
		start := time.Now()
		err = comp.Run(ctx, cfg.Component.Period, func() error {
			elapsed := time.Since(start).Truncate(time.Second).Seconds()
			if err := pins.Output.Set(elapsed); err != nil {
				return err
			}
			if b.sim != nil {
				// Feed the input from the runtime side, as a linked signal would.
				if err := halsim.Set(b.sim, pins.Input.Name(), elapsed*2); err != nil {
					return err
				}
			}
			in, err := pins.Input.Value()
			if err != nil {
				return err
			}
			log.Info("pins", zap.Float64("input", in), zap.Float64("output", elapsed))
			return nil
		})
		if errors.Is(err, context.DeadlineExceeded) {
			err = nil
		}
		if b.sim != nil {
			printObjects(cmd.OutOrStdout(), "Component Pins:", b.sim.Pins())
		}
		return err
	},
}
