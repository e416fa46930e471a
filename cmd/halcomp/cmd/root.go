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
	"io"
	"os"
	"strings"

	hal "github.com/blacktop/go-linuxcnc-hal"
	"github.com/blacktop/go-linuxcnc-hal/halsim"
	"github.com/blacktop/go-linuxcnc-hal/rtapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "halcomp",
	Short: "Example LinuxCNC HAL userspace components",
	Long: `halcomp runs small userspace HAL components built on go-linuxcnc-hal.

Load one with "loadusr -W halcomp pins" from a HAL file, or pass --sim to
run it against the in-process simulator.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/halcomp/config.yaml)")
	rootCmd.PersistentFlags().String("name", "", "component name")
	rootCmd.PersistentFlags().Duration("period", 0, "loop period")
	rootCmd.PersistentFlags().Duration("duration", 0, "stop after this long (0 = until signalled)")
	rootCmd.PersistentFlags().Bool("sim", false, "run against the in-process HAL simulator")
	rootCmd.PersistentFlags().String("log-level", "", "RTAPI message level (none, err, warn, info, dbg, all)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("component.name", rootCmd.PersistentFlags().Lookup("name"))
	_ = viper.BindPFlag("component.period", rootCmd.PersistentFlags().Lookup("period"))
	_ = viper.BindPFlag("component.duration", rootCmd.PersistentFlags().Lookup("duration"))
	_ = viper.BindPFlag("sim.enabled", rootCmd.PersistentFlags().Lookup("sim"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("$HOME/.config/halcomp")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("HALCOMP")
	// HALCOMP_SIM_ARENA_SIZE for sim.arena_size
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.ReadInConfig()
}

// newLogger builds the logger installed into the hal package. RTAPI output
// falls back to w when the native library is not linked.
func newLogger(cfg *Config, w io.Writer) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	var sink rtapi.Sink = rtapi.NewWriterSink(w, level)
	if cfg.Log.Destination == "rtapi" && !cfg.Sim.Enabled {
		if native, err := rtapi.NativeSink(); err == nil {
			sink = native
		}
	}

	var opts []rtapi.CoreOption
	if cfg.Log.Fixed {
		opts = append(opts, rtapi.WithFixedLevel(rtapi.LevelErr))
	}
	return rtapi.NewLogger(sink, opts...), nil
}

// backend is the HAL a command runs against.
type backend struct {
	api hal.API
	sim *halsim.HAL
}

func (b *backend) Close() error {
	if b.sim != nil {
		return b.sim.Close()
	}
	return nil
}

func openBackend(cfg *Config, log *zap.Logger) (*backend, error) {
	if cfg.Sim.Enabled {
		sim, err := halsim.New(halsim.ArenaSize(cfg.Sim.ArenaSize), halsim.WithLogger(log.Named("halsim")))
		if err != nil {
			return nil, err
		}
		return &backend{api: sim, sim: sim}, nil
	}
	api, err := hal.NativeAPI()
	if err != nil {
		return nil, err
	}
	return &backend{api: api}, nil
}

// setup loads the configuration, installs the logger and opens the backend.
func setup() (*Config, *backend, *zap.Logger, error) {
	cfg, err := Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return nil, nil, nil, err
	}
	hal.SetLogger(log)

	b, err := openBackend(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, b, log, nil
}

func componentName(cfg *Config, def string) string {
	if cfg.Component.Name != "" {
		return cfg.Component.Name
	}
	return def
}
