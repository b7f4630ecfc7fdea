// Package demo runs the fixed probe-and-benchmark sequence and prints a
// human-readable report.
package demo

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/born-ml/devprobe/internal/probe"
	"github.com/born-ml/devprobe/internal/tensor"
)

const (
	// Scale multiplies the transferred tensor in the device stage.
	Scale = 2.0
	// BenchSize is the side of the square benchmark matrices.
	BenchSize = 1000

	// sampleRows of the benchmark product are checked against the host.
	sampleRows = 4

	// Relative tolerances for device results against host references.
	elementTolerance = 1e-5
	matmulTolerance  = 1e-2
)

// SmallShape is the shape of the tensors in the arithmetic stages.
var SmallShape = tensor.Shape{3, 4}

var (
	// ErrRoundTrip means a tensor copied to the device and back changed.
	ErrRoundTrip = errors.New("round-trip checksum mismatch")

	// ErrHostMismatch means a device result differs from the host reference.
	ErrHostMismatch = errors.New("device result differs from host reference")
)

// Report collects what a run observed.
type Report struct {
	Accelerated bool
	Backend     string
	DeviceCount int

	CPUInput *tensor.RawTensor
	CPUSum   *tensor.RawTensor

	TransferDevice string
	DeviceResult   *tensor.RawTensor
	RoundTripOK    bool
	HostCheckOK    bool

	MatMulElapsed time.Duration
	MatMulMillis  int64
	MatMulCheckOK bool
}

// Runner executes the demo stages, writing the report to Out.
type Runner struct {
	Out   io.Writer
	Log   logrus.FieldLogger
	Host  tensor.Backend
	Probe probe.Result
}

// Run performs the full sequence: availability line, CPU arithmetic, then the
// device and benchmark stages when an accelerator was found. Device faults are
// returned as is; nothing is retried.
func (r *Runner) Run() (*Report, error) {
	rep := &Report{
		Accelerated: r.Probe.Available,
		Backend:     r.Probe.Backend,
		DeviceCount: r.Probe.Count,
	}

	r.printf("=== Go tensor demo with %s ===\n", rep.Backend)
	if rep.Accelerated {
		r.printf("%s is available! Device count: %d\n", rep.Backend, rep.DeviceCount)
	} else {
		r.printf("%s is not available. Running on CPU.\n", rep.Backend)
	}

	r.CPUArithmetic(rep)

	if rep.Accelerated {
		acc, err := r.Probe.Driver.Open(0)
		if err != nil {
			return rep, fmt.Errorf("open %s device 0: %w", rep.Backend, err)
		}
		defer acc.Release()

		r.printf("\n--- %s Operations ---\n", rep.Backend)
		if err := r.DeviceArithmetic(acc, rep); err != nil {
			return rep, err
		}
		if err := r.Benchmark(acc, rep); err != nil {
			return rep, err
		}
	}

	r.printf("\n=== Demo completed successfully! ===\n")
	return rep, nil
}

// CPUArithmetic adds a random tensor and a tensor of ones on the host.
func (r *Runner) CPUArithmetic(rep *Report) {
	r.printf("\n--- CPU Operations ---\n")

	rep.CPUInput = tensor.Rand(SmallShape, tensor.Float32)
	r.printf("Random CPU tensor:\n%s\n", tensor.Format(rep.CPUInput))

	ones := tensor.Ones(SmallShape, tensor.Float32)
	rep.CPUSum = r.Host.Add(rep.CPUInput, ones)
	r.printf("CPU tensor after adding ones:\n%s\n", tensor.Format(rep.CPUSum))
}

// DeviceArithmetic copies the CPU input to the device, computes
// input*Scale + ones there and copies the result back.
func (r *Runner) DeviceArithmetic(acc tensor.Accelerator, rep *Report) error {
	if rep.CPUInput == nil {
		rep.CPUInput = tensor.Rand(SmallShape, tensor.Float32)
	}

	dev, err := acc.ToDevice(rep.CPUInput)
	if err != nil {
		return fmt.Errorf("copy to device: %w", err)
	}
	defer dev.Release()

	ones, err := acc.Ones(SmallShape)
	if err != nil {
		return fmt.Errorf("allocate ones on device: %w", err)
	}
	defer ones.Release()

	rep.TransferDevice = dev.Device().String()
	r.printf("Tensor moved to %s device: %s\n", rep.Backend, rep.TransferDevice)

	if err := r.checkRoundTrip(acc, dev, rep); err != nil {
		return err
	}

	out, err := acc.ScaleAdd(dev, Scale, ones)
	if err != nil {
		return fmt.Errorf("scale-add on device: %w", err)
	}
	defer out.Release()

	rep.DeviceResult, err = acc.ToHost(out)
	if err != nil {
		return fmt.Errorf("copy result to host: %w", err)
	}
	r.printf("%s computation result (moved back to CPU):\n%s\n", rep.Backend, tensor.Format(rep.DeviceResult))

	want := r.Host.AddScalar(r.Host.MulScalar(rep.CPUInput, Scale), 1)
	diff, ok := matches(rep.DeviceResult, want, want.Shape()[0], elementTolerance)
	r.Log.WithField("max_diff", diff).Debug("scale-add checked against host")
	if !ok {
		return fmt.Errorf("%w: scale-add max diff %g", ErrHostMismatch, diff)
	}
	rep.HostCheckOK = true
	return nil
}

func (r *Runner) checkRoundTrip(acc tensor.Accelerator, dev *tensor.DeviceTensor, rep *Report) error {
	back, err := acc.ToHost(dev)
	if err != nil {
		return fmt.Errorf("copy to host: %w", err)
	}

	want, got := tensor.Checksum(rep.CPUInput), tensor.Checksum(back)
	if want != got {
		r.printf("Round-trip checksum: mismatch (%016x != %016x)\n", got, want)
		return fmt.Errorf("%w: %016x != %016x", ErrRoundTrip, got, want)
	}
	rep.RoundTripOK = true
	r.printf("Round-trip checksum: ok (%s)\n", tensor.ChecksumHex(back))
	return nil
}

// Benchmark times one BenchSize x BenchSize matrix multiplication on random
// device-resident operands. The clock stops after the device has finished.
func (r *Runner) Benchmark(acc tensor.Accelerator, rep *Report) error {
	shape := tensor.Shape{BenchSize, BenchSize}

	a, err := acc.Randn(shape)
	if err != nil {
		return fmt.Errorf("allocate benchmark operand: %w", err)
	}
	defer a.Release()

	b, err := acc.Randn(shape)
	if err != nil {
		return fmt.Errorf("allocate benchmark operand: %w", err)
	}
	defer b.Release()

	// Operand generation may still be queued.
	if err := acc.Synchronize(); err != nil {
		return fmt.Errorf("synchronize: %w", err)
	}

	start := time.Now()
	c, err := acc.MatMul(a, b)
	if err != nil {
		return fmt.Errorf("matmul: %w", err)
	}
	defer c.Release()
	if err := acc.Synchronize(); err != nil {
		return fmt.Errorf("synchronize: %w", err)
	}
	rep.MatMulElapsed = time.Since(start)
	rep.MatMulMillis = rep.MatMulElapsed.Milliseconds()

	r.Log.WithFields(logrus.Fields{
		"backend": rep.Backend,
		"elapsed": rep.MatMulElapsed,
	}).Debug("benchmark finished")
	r.printf("%s matrix multiplication (%dx%d) took: %d ms\n", rep.Backend, BenchSize, BenchSize, rep.MatMulMillis)

	if err := r.checkMatMul(acc, a, b, c); err != nil {
		return err
	}
	rep.MatMulCheckOK = true
	return nil
}

// checkMatMul recomputes the first sampleRows rows of c = a @ b on the host.
func (r *Runner) checkMatMul(acc tensor.Accelerator, a, b, c *tensor.DeviceTensor) error {
	hosts := make([]*tensor.RawTensor, 3)
	for i, t := range []*tensor.DeviceTensor{a, b, c} {
		h, err := acc.ToHost(t)
		if err != nil {
			return fmt.Errorf("copy benchmark tensor to host: %w", err)
		}
		hosts[i] = h
	}

	cols := a.Shape()[1]
	rows, err := tensor.FromFloat32(hosts[0].AsFloat32()[:sampleRows*cols], tensor.Shape{sampleRows, cols})
	if err != nil {
		return err
	}
	want := r.Host.MatMul(rows, hosts[1])

	diff, ok := matches(hosts[2], want, sampleRows, matmulTolerance)
	r.Log.WithFields(logrus.Fields{
		"rows":     sampleRows,
		"max_diff": diff,
	}).Debug("matmul checked against host")
	if !ok {
		return fmt.Errorf("%w: matmul max diff %g", ErrHostMismatch, diff)
	}
	return nil
}

// matches compares the first rows of two 2D tensors element by element. An
// element matches when it is within tol of want, scaled by want's magnitude.
func matches(got, want *tensor.RawTensor, rows int, tol float64) (worst float64, ok bool) {
	ok = true
	cols := want.Shape()[1]
	for i := range rows {
		for j := range cols {
			w := want.At(i, j)
			d := math.Abs(got.At(i, j) - w)
			worst = max(worst, d)
			if !(d <= tol*(1+math.Abs(w))) { // NaN never matches
				ok = false
			}
		}
	}
	return worst, ok
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.Out, format, args...) //nolint:errcheck // report output is best-effort
}
