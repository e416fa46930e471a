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
	"encoding/json"
	"fmt"
	"io"
	"os"

	hal "github.com/blacktop/go-linuxcnc-hal"
	"github.com/blacktop/go-linuxcnc-hal/halsim"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	checkCmd.Flags().Bool("json", false, "print the result as JSON")
	rootCmd.AddCommand(checkCmd)
}

// CheckResult is the outcome of the check command.
type CheckResult struct {
	Native     bool        `json:"native"`
	NativeErr  string      `json:"native_error,omitempty"`
	MaxNameLen int         `json:"max_name_len"`
	EMC2Home   string      `json:"emc2_home,omitempty"`
	SelfTest   string      `json:"self_test"`
	Metrics    hal.Metrics `json:"metrics"`
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check LinuxCNC HAL support and run a simulator self-test",
	RunE: func(cmd *cobra.Command, args []string) error {
		res := CheckResult{MaxNameLen: hal.MaxNameLen, EMC2Home: os.Getenv("EMC2_HOME")}

		ok, err := hal.Supported()
		res.Native = ok
		if err != nil {
			res.NativeErr = err.Error()
		}

		res.SelfTest = "ok"
		if err := selfTest(); err != nil {
			res.SelfTest = err.Error()
		}
		res.Metrics = hal.GetMetrics()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printCheck(cmd.OutOrStdout(), res)
		return nil
	},
}

// selfTest runs the pins component for a single step against the simulator.
func selfTest() error {
	sim, err := halsim.New()
	if err != nil {
		return err
	}
	defer sim.Close()

	comp, err := hal.New("halcomp-check", RegisterPins, hal.WithAPI(sim), hal.WithoutSignals())
	if err != nil {
		return err
	}
	defer comp.Close()

	pins := comp.Resources()
	if err := pins.Output.Set(42.0); err != nil {
		return err
	}
	got, err := halsim.Get[float64](sim, pins.Output.Name())
	if err != nil {
		return err
	}
	if got != 42.0 {
		return fmt.Errorf("output-1 read back %v, want 42", got)
	}
	return nil
}

func printCheck(w io.Writer, res CheckResult) {
	good := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	if res.Native {
		fmt.Fprintf(w, "native hal:  %s\n", good("linked"))
	} else {
		fmt.Fprintf(w, "native hal:  %s (%s)\n", bad("unavailable"), res.NativeErr)
	}
	fmt.Fprintf(w, "name limit:  %d bytes\n", res.MaxNameLen)
	if res.EMC2Home != "" {
		fmt.Fprintf(w, "EMC2_HOME:   %s\n", res.EMC2Home)
	}
	if res.SelfTest == "ok" {
		fmt.Fprintf(w, "self test:   %s\n", good("ok"))
	} else {
		fmt.Fprintf(w, "self test:   %s\n", bad(res.SelfTest))
	}
	fmt.Fprintf(w, "components:  created=%d ready=%d exited=%d\n",
		res.Metrics.ComponentsCreated, res.Metrics.ComponentsReady, res.Metrics.ComponentsExited)
}

// printObjects prints simulator objects the way "halcmd show" lays them out.
func printObjects(w io.Writer, title string, objs []halsim.Info) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, "Owner        Type  Dir          Value  Name")
	for _, o := range objs {
		fmt.Fprintf(w, "%-12s %-5s %-3s %14s  %s\n", o.Owner, o.Type, o.Dir, o.Value, o.Name)
	}
	fmt.Fprintln(w)
}
