//go:build windows

package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

// kernel is a compiled WGSL module with its compute pipeline.
type kernel struct {
	shader   *wgpu.ShaderModule
	pipeline *wgpu.ComputePipeline
}

func (k kernel) release() {
	k.pipeline.Release()
	k.shader.Release()
}

// binding is one storage or uniform buffer bound to a kernel.
type binding struct {
	buf  *wgpu.Buffer
	size uint64
}

// kernel compiles code on first use and caches it under name.
// Entry point is always "main"; the bind group layout is derived from the shader.
func (b *Backend) kernel(name, code string) kernel {
	b.mu.Lock()
	defer b.mu.Unlock()

	if k, ok := b.kernels[name]; ok {
		return k
	}
	shader := b.device.CreateShaderModuleWGSL(code)
	k := kernel{
		shader:   shader,
		pipeline: b.device.CreateComputePipelineSimple(nil, shader, "main"),
	}
	b.kernels[name] = k
	return k
}

// upload creates a buffer holding a copy of data. Sizes are rounded up to
// 4 bytes as mapped-at-creation buffers require.
func (b *Backend) upload(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data)+3) &^ 3
	buf := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	//nolint:gosec // mapped range is exactly size bytes
	copy(unsafe.Slice((*byte)(buf.GetMappedRange(0, size)), size), data)
	buf.Unmap()
	return buf
}

// uniform uploads kernel parameters padded to the 16-byte uniform alignment.
func (b *Backend) uniform(params []byte) binding {
	padded := make([]byte, (len(params)+15)&^15)
	copy(padded, params)
	return binding{
		buf:  b.upload(padded, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst),
		size: uint64(len(padded)),
	}
}

// alloc creates an uninitialized storage buffer for kernel output.
func (b *Backend) alloc(size uint64) *wgpu.Buffer {
	return b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
}

// download copies size bytes of src to the host. Storage buffers cannot be
// mapped, so the bytes go through a MapRead staging buffer; mapping resolves
// only after every earlier submission has run.
func (b *Backend) download(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	enc := b.device.CreateCommandEncoder(nil)
	enc.CopyBufferToBuffer(src, 0, staging, 0, size)
	b.queue.Submit(enc.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("webgpu: map staging buffer: %w", err)
	}
	defer staging.Unmap()

	//nolint:gosec // mapped range is exactly size bytes
	mapped := unsafe.Slice((*byte)(staging.GetMappedRange(0, size)), size)
	return append([]byte(nil), mapped...), nil
}

// run binds buffers to @binding(0..n-1) of group 0 and submits one compute
// pass of x*y workgroups.
func (b *Backend) run(name, code string, x, y uint32, bindings ...binding) {
	k := b.kernel(name, code)

	entries := make([]wgpu.BindGroupEntry, len(bindings))
	for i, bind := range bindings {
		entries[i] = wgpu.BufferBindingEntry(uint32(i), bind.buf, 0, bind.size) //nolint:gosec // G115: binding index is small
	}
	group := b.device.CreateBindGroupSimple(k.pipeline.GetBindGroupLayout(0), entries)
	defer group.Release()

	enc := b.device.CreateCommandEncoder(nil)
	pass := enc.BeginComputePass(nil)
	pass.SetPipeline(k.pipeline)
	pass.SetBindGroup(0, group, nil)
	pass.DispatchWorkgroups(x, y, 1)
	pass.End()
	b.queue.Submit(enc.Finish(nil))
}
