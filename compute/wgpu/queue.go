// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/meshsmooth/compute"
)

// maxWorkgroupsPerDimension is the WebGPU default limit for one dispatch
// dimension.
const maxWorkgroupsPerDimension = 65535

// Queue submits kernels and copies to a HAL queue.
type Queue struct {
	mu     sync.Mutex
	device hal.Device
	raw    hal.Queue
}

var _ compute.Queue = (*Queue)(nil)

// EnqueueKernel records one compute pass for k and submits it. Events from
// this queue in waitFor are already ordered by submission; other events are
// waited on the host before submitting.
func (q *Queue) EnqueueKernel(k compute.Kernel, globalSize uint32, waitFor ...compute.Event) (compute.Event, error) {
	wk, ok := k.(*Kernel)
	if !ok || wk == nil {
		return nil, fmt.Errorf("%w: kernel %T", compute.ErrForeignResource, k)
	}
	values, err := wk.snapshot()
	if err != nil {
		return nil, err
	}
	spec := wk.pk.spec
	if globalSize%spec.WorkgroupSize != 0 {
		return nil, fmt.Errorf("%w: %s: global size %d is not a multiple of %d",
			compute.ErrInvalidArg, spec.Name, globalSize, spec.WorkgroupSize)
	}
	groups := compute.WorkgroupCount(globalSize, spec.WorkgroupSize)
	if groups == 0 {
		return compute.CompletedEvent(), nil
	}
	if groups > maxWorkgroupsPerDimension {
		return nil, fmt.Errorf("%w: %s: %d workgroups exceeds per-dimension limit %d",
			compute.ErrKernelLaunch, spec.Name, groups, maxWorkgroupsPerDimension)
	}
	if err := q.waitForeign(waitFor); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	res := &submitResources{device: q.device}
	entries, err := q.bindEntries(res, spec, values)
	if err != nil {
		res.cleanup()
		return nil, err
	}
	bg, err := q.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   spec.Name + "_bg",
		Layout:  wk.pk.bgLayout,
		Entries: entries,
	})
	if err != nil {
		res.cleanup()
		return nil, fmt.Errorf("%w: %s: create bind group: %w", compute.ErrKernelLaunch, spec.Name, err)
	}
	res.bindGroups = append(res.bindGroups, bg)

	encoder, err := q.beginEncoding(spec.Name)
	if err != nil {
		res.cleanup()
		return nil, err
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: spec.Name})
	pass.SetPipeline(wk.pk.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(groups, 1, 1)
	pass.End()

	ev, err := q.submit(res, encoder, spec.Name)
	if err != nil {
		return nil, err
	}

	compute.Logger().Debug("wgpu: kernel submitted",
		"kernel", spec.Name,
		"global", globalSize,
		"workgroups", groups,
		"wait_for", len(waitFor))
	return ev, nil
}

// ReadBuffer copies b into a mappable staging buffer, waits for the copy and
// maps the staging buffer. Offset and length must be multiples of 4. dst is
// written only after the copy completed.
func (q *Queue) ReadBuffer(ctx context.Context, b compute.Buffer, offset uint64, dst []byte, waitFor ...compute.Event) error {
	wb, ok := b.(*Buffer)
	if !ok || wb == nil {
		return fmt.Errorf("%w: buffer %T", compute.ErrForeignResource, b)
	}
	size := uint64(len(dst))
	if offset+size > wb.Size() {
		return fmt.Errorf("%w: read [%d,%d) past end of %s (%d bytes)",
			compute.ErrInvalidArg, offset, offset+size, wb.Label(), wb.Size())
	}
	if offset%4 != 0 || size%4 != 0 {
		return fmt.Errorf("%w: read of %s at %d+%d is not 4-byte aligned",
			compute.ErrInvalidArg, wb.Label(), offset, size)
	}
	if wb.Released() {
		return fmt.Errorf("%w: %s", compute.ErrReleased, wb.Label())
	}
	if size == 0 {
		return compute.WaitAll(ctx, waitFor...)
	}
	if err := q.waitForeign(waitFor); err != nil {
		return err
	}

	staging, err := q.device.CreateBuffer(&hal.BufferDescriptor{
		Label: wb.Label() + "_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%w: %s staging: %w", compute.ErrAllocationFailed, wb.Label(), err)
	}

	// The event owns staging from here on.
	ev, err := q.submitCopy(wb, staging, offset, size)
	if err != nil {
		return err
	}
	defer ev.Release()
	if err := ev.Wait(ctx); err != nil {
		return err
	}

	mapping, err := q.device.MapBuffer(staging, 0, size)
	if err != nil {
		return fmt.Errorf("%w: map %s: %w", compute.ErrWait, wb.Label(), err)
	}
	copy(dst, unsafe.Slice((*byte)(mapping.Ptr), size))
	if err := q.device.UnmapBuffer(staging); err != nil {
		return fmt.Errorf("%w: unmap %s: %w", compute.ErrWait, wb.Label(), err)
	}
	return nil
}

func (q *Queue) submitCopy(src *Buffer, staging hal.Buffer, offset, size uint64) (*Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	res := &submitResources{device: q.device, buffers: []hal.Buffer{staging}}
	label := "read_" + src.Label()
	encoder, err := q.beginEncoding(label)
	if err != nil {
		res.cleanup()
		return nil, err
	}
	encoder.CopyBufferToBuffer(src.raw, staging, []hal.BufferCopy{{
		SrcOffset: offset,
		DstOffset: 0,
		Size:      size,
	}})
	return q.submit(res, encoder, label)
}

// waitForeign blocks on events that did not come from this queue.
func (q *Queue) waitForeign(waitFor []compute.Event) error {
	for i, ev := range waitFor {
		if ev == nil {
			continue
		}
		if _, own := ev.(*Event); own {
			continue
		}
		if err := ev.Wait(context.Background()); err != nil {
			return fmt.Errorf("%w: event %d: %w", compute.ErrWait, i, err)
		}
	}
	return nil
}

// bindEntries builds bind group entries for values, uploading scalars into
// per-submit uniform buffers owned by res.
func (q *Queue) bindEntries(res *submitResources, spec compute.KernelSpec, values []any) ([]gputypes.BindGroupEntry, error) {
	entries := make([]gputypes.BindGroupEntry, len(values))
	for i, v := range values {
		if b, ok := v.(*Buffer); ok {
			entries[i] = b.binding(uint32(i))
			continue
		}
		ub, err := q.device.CreateBuffer(&hal.BufferDescriptor{
			Label: fmt.Sprintf("%s_arg%d", spec.Name, i),
			Size:  compute.ScalarSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s arg %d uniform: %w", compute.ErrKernelLaunch, spec.Name, i, err)
		}
		res.buffers = append(res.buffers, ub)
		if err := q.raw.WriteBuffer(ub, 0, compute.ScalarBytes(v)); err != nil {
			return nil, fmt.Errorf("%w: %s arg %d upload: %w", compute.ErrKernelLaunch, spec.Name, i, err)
		}
		entries[i] = gputypes.BindGroupEntry{
			Binding: uint32(i),
			Resource: gputypes.BufferBinding{
				Buffer: ub.NativeHandle(),
				Offset: 0,
				Size:   compute.ScalarSize,
			},
		}
	}
	return entries, nil
}

func (q *Queue) beginEncoding(label string) (hal.CommandEncoder, error) {
	encoder, err := q.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: create command encoder: %w", compute.ErrKernelLaunch, label, err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("%w: %s: begin encoding: %w", compute.ErrKernelLaunch, label, err)
	}
	return encoder, nil
}

// submit finishes encoding and submits. res is owned by the returned
// event, or cleaned up on error. The caller holds q.mu.
func (q *Queue) submit(res *submitResources, encoder hal.CommandEncoder, label string) (*Event, error) {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		res.cleanup()
		return nil, fmt.Errorf("%w: %s: end encoding: %w", compute.ErrKernelLaunch, label, err)
	}
	res.cmdBuf = cmdBuf

	queued := time.Now()
	index, err := q.raw.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		res.cleanup()
		return nil, fmt.Errorf("%w: %s: submit: %w", compute.ErrKernelLaunch, label, err)
	}
	return &Event{
		label:   label,
		queue:   q,
		index:   index,
		res:     res,
		queued:  queued,
		started: time.Now(),
	}, nil
}

// completed returns the highest submission index the HAL reports done.
func (q *Queue) completed() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.raw.PollCompleted()
}

// submitResources tracks per-submit GPU objects for cleanup.
type submitResources struct {
	device     hal.Device
	bindGroups []hal.BindGroup
	buffers    []hal.Buffer
	cmdBuf     hal.CommandBuffer
}

func (r *submitResources) cleanup() {
	if r.cmdBuf != nil {
		r.device.FreeCommandBuffer(r.cmdBuf)
		r.cmdBuf = nil
	}
	for _, g := range r.bindGroups {
		r.device.DestroyBindGroup(g)
	}
	r.bindGroups = nil
	for _, b := range r.buffers {
		r.device.DestroyBuffer(b)
	}
	r.buffers = nil
}
