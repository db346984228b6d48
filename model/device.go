package model

import (
	"context"
	"strings"
	"time"

	"github.com/kbukum/whisperd/engine"
	"github.com/kbukum/whisperd/process"
)

// DeviceProfile is the (device, precision) pair a model is loaded with.
type DeviceProfile struct {
	Device    string `json:"device"`
	Precision string `json:"precision"`
}

// GPUDetector reports whether a CUDA device is usable.
type GPUDetector interface {
	HasGPU(ctx context.Context) bool
}

// GPUDetectorFunc adapts a function to GPUDetector.
type GPUDetectorFunc func(ctx context.Context) bool

func (f GPUDetectorFunc) HasGPU(ctx context.Context) bool { return f(ctx) }

const defaultDetectTimeout = 5 * time.Second

// NvidiaSMI detects a GPU by listing devices with nvidia-smi.
type NvidiaSMI struct {
	Binary  string
	Timeout time.Duration
}

// HasGPU reports whether `nvidia-smi -L` lists at least one GPU. A missing
// binary, failure or timeout means no GPU.
func (p NvidiaSMI) HasGPU(ctx context.Context) bool {
	binary := p.Binary
	if binary == "" {
		binary = "nvidia-smi"
	}
	timeout := p.Timeout
	if timeout == 0 {
		timeout = defaultDetectTimeout
	}
	res, err := process.Run(ctx, process.Command{
		Binary:      binary,
		Args:        []string{"-L"},
		Timeout:     timeout,
		GracePeriod: time.Second,
	})
	if err != nil {
		return false
	}
	return strings.Contains(string(res.Stdout), "GPU")
}

// ResolveProfile picks the device and precision for a load. Explicit values
// win; "auto" or empty device asks the detector, and "auto" or empty precision
// follows the device.
func ResolveProfile(ctx context.Context, device, precision string, gpu GPUDetector) DeviceProfile {
	device = strings.ToLower(strings.TrimSpace(device))
	if device == "" || device == engine.DeviceAuto {
		device = engine.DeviceCPU
		if gpu != nil && gpu.HasGPU(ctx) {
			device = engine.DeviceCUDA
		}
	}
	precision = strings.ToLower(strings.TrimSpace(precision))
	if precision == "" || precision == engine.PrecisionAuto {
		precision = engine.PrecisionInt8
		if device == engine.DeviceCUDA {
			precision = engine.PrecisionFloat16
		}
	}
	return DeviceProfile{Device: device, Precision: precision}
}
