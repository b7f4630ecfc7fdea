package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/born-ml/devprobe/internal/backend/cpu"
	"github.com/born-ml/devprobe/internal/config"
	"github.com/born-ml/devprobe/internal/demo"
	"github.com/born-ml/devprobe/internal/logging"
	"github.com/born-ml/devprobe/internal/probe"
)

const version = "v0.1.0"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devprobe",
		Short: "Probe for a compute accelerator and benchmark it",
		Long: `devprobe reports whether a CUDA or WebGPU accelerator is present,
runs small tensor arithmetic on the CPU and on the accelerator, and times
one 1000x1000 matrix multiplication on the device.

Settings come from DEVPROBE_* environment variables or devprobe.yaml.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runProbe,
	}
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Run executes the command line and returns the process exit status.
// Any error, including a device fault during the demo, is logged to stderr
// and yields status 1.
func Run(args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{} // cobra falls back to os.Args on nil
	}
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		log := logging.Get()
		log.SetOutput(stderr)
		log.WithError(err).Error("devprobe failed")
		return 1
	}
	return 0
}

func runProbe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.Init(cfg.Log.Level)
	log.SetOutput(cmd.ErrOrStderr())

	drivers, err := probe.Drivers(cfg, log)
	if err != nil {
		return err
	}
	defer closeDrivers(drivers)

	runner := &demo.Runner{
		Out:   cmd.OutOrStdout(),
		Log:   log,
		Host:  cpu.New(),
		Probe: probe.Probe(log, drivers...),
	}
	_, err = runner.Run()
	return err
}

func closeDrivers(drivers []probe.Driver) {
	for _, d := range drivers {
		if c, ok := d.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				logging.Get().WithError(err).WithField("backend", d.Name()).Debug("unload failed")
			}
		}
	}
}
