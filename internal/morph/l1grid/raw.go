package l1grid

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// ReadRaw reads a little-endian uint32 grid of nx*ny*nz labels from r.
func ReadRaw(r io.Reader, nx, ny, nz int, spacing Spacing) (*LabelGrid, error) {
	g, err := NewLabelGrid(nx, ny, nz, spacing)
	if err != nil {
		return nil, err
	}
	if err := binary.Read(bufio.NewReader(r), binary.LittleEndian, g.Data); err != nil {
		return nil, fmt.Errorf("read %dx%dx%d raw grid: %w", nx, ny, nz, err)
	}
	return g, nil
}

// WriteRaw writes the grid labels to w as little-endian uint32.
func WriteRaw(w io.Writer, g *LabelGrid) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, g.Data); err != nil {
		return fmt.Errorf("write raw grid: %w", err)
	}
	return bw.Flush()
}
