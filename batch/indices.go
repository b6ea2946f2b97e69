// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/uibatch/draw"
	"github.com/gogpu/uibatch/gpucore"
	"github.com/gogpu/uibatch/internal/logging"
)

// IndexFormat is the format of the shared quad index buffer.
const IndexFormat = gputypes.IndexFormatUint32

// QuadIndices is an index buffer holding the quad pattern repeated for a
// number of quads. It grows geometrically to the largest run requested
// and is shared by every draw and frame.
type QuadIndices struct {
	dev    gpucore.Device
	buf    gpucore.BufferID
	quads  int
	min    int
	retire func(gpucore.BufferID)
}

// NewQuadIndices creates an empty quad index buffer that allocates at
// least minQuads quads.
func NewQuadIndices(dev gpucore.Device, minQuads int, retire func(gpucore.BufferID)) *QuadIndices {
	if minQuads < 1 {
		minQuads = 1
	}
	return &QuadIndices{dev: dev, min: minQuads, retire: retire}
}

// Buffer returns the index buffer, or gpucore.InvalidID.
func (q *QuadIndices) Buffer() gpucore.BufferID { return q.buf }

// Quads returns the number of quads the buffer covers.
func (q *QuadIndices) Quads() int { return q.quads }

// Ensure makes the buffer cover at least quads quads.
func (q *QuadIndices) Ensure(quads int) (gpucore.BufferID, error) {
	if quads <= q.quads && q.buf != gpucore.InvalidID {
		return q.buf, nil
	}
	n := max(q.min, q.quads)
	for n < quads {
		n *= 2
	}
	data := make([]byte, 0, n*draw.IndicesPerQuad*4)
	for i := 0; i < n; i++ {
		base := uint32(i * draw.VerticesPerQuad)
		for _, idx := range draw.QuadIndices {
			data = binary.LittleEndian.AppendUint32(data, base+idx)
		}
	}
	buf, err := q.dev.CreateBuffer(gpucore.BufferDesc{
		Label: "quad indices",
		Usage: gputypes.BufferUsageIndex,
		Data:  data,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("batch: create quad indices: %w", err)
	}
	if q.buf != gpucore.InvalidID {
		q.release()
	}
	logging.Logger().Debug("batch: quad index buffer grown", "old", q.quads, "new", n)
	q.buf, q.quads = buf, n
	return buf, nil
}

func (q *QuadIndices) release() {
	if q.retire != nil {
		q.retire(q.buf)
	} else {
		q.dev.ReleaseBuffer(q.buf)
	}
}

// Release hands the buffer to the retire function.
func (q *QuadIndices) Release() {
	if q.buf != gpucore.InvalidID {
		q.release()
	}
	q.buf, q.quads = gpucore.InvalidID, 0
}
