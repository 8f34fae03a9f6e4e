package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/cobra"
)

// Flags carries the profiling flags of a command tree. All output goes to
// the command's stderr so hook stdout stays clean.
type Flags struct {
	cpuFile *os.File
	cpuPath string
	memPath string
	timing  bool
}

// NewFlags creates an empty Flags.
func NewFlags() *Flags {
	return &Flags{}
}

// AddFlags registers --cpu-profile, --mem-profile and --timing on cmd.
func (p *Flags) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&p.cpuPath, "cpu-profile", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&p.memPath, "mem-profile", "", "Write memory profile to file")
	cmd.PersistentFlags().BoolVar(&p.timing, "timing", false, "Print a timing summary to stderr on exit")
}

// PreRun starts whatever the flags asked for.
func (p *Flags) PreRun(cmd *cobra.Command, args []string) error {
	if p.timing {
		Enable()
	}

	if p.cpuPath != "" {
		f, err := os.Create(p.cpuPath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		p.cpuFile = f
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
	}
	return nil
}

// PostRun writes profiles and the timing summary.
func (p *Flags) PostRun(cmd *cobra.Command, args []string) {
	errOut := cmd.ErrOrStderr()

	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
		p.cpuFile = nil
		fmt.Fprintf(errOut, "CPU profile written to %s\n", p.cpuPath)
	}

	if p.memPath != "" {
		f, err := os.Create(p.memPath)
		if err != nil {
			fmt.Fprintf(errOut, "could not create memory profile: %v\n", err)
			return
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(errOut, "could not write memory profile: %v\n", err)
			return
		}
		fmt.Fprintf(errOut, "Memory profile written to %s\n", p.memPath)
	}

	if p.timing {
		Summarize(errOut)
	}
}
