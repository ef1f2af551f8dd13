package film

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cwbudde/lumenforge/internal/core"
)

// magic identifies the binary film file format. Any other leading 14 bytes
// is rejected outright.
const magic = "YAF_FILMv4_0_0"

// ErrConfigMismatch is returned by LoadInto when the file's dimensions,
// crop window or layer count don't match the live film.
type ErrConfigMismatch struct {
	Field          string
	Want, Got int
}

func (e *ErrConfigMismatch) Error() string {
	return fmt.Sprintf("film: config mismatch on %s: want %d, got %d", e.Field, e.Want, e.Got)
}

// SaveState writes the film's current accumulators, weight plane and
// sampling-offset counter to w in the bit-level format: a 14-byte magic,
// little-endian header fields, the weight plane, then each registered
// layer's RGBA plane in registration order.
func (f *Film) SaveState(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(magic); err != nil {
		return err
	}

	header := []uint32{
		0, // computer_node_id: single-machine renders always write 0
		0, // base_sampling_offset: unused by this implementation, reserved
		f.samplingOffset.Load(),
	}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	cx1 := f.Cx0 + f.Width
	cy1 := f.Cy0 + f.Height
	ints := []int32{
		int32(f.Width), int32(f.Height),
		int32(f.Cx0), int32(cx1),
		int32(f.Cy0), int32(cy1),
		int32(f.layers.Len()),
	}
	for _, v := range ints {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	for _, v := range f.weight {
		if err := binary.Write(bw, binary.LittleEndian, float32(v)); err != nil {
			return err
		}
	}

	for li := range f.layers.Kinds() {
		for _, c := range f.accumulators[li] {
			vals := [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
			for _, v := range vals {
				if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
					return err
				}
			}
		}
	}

	return bw.Flush()
}

// LoadInto reads a film file from r and combines it additively into f:
// weight and every layer accumulator are summed pixel-wise, and the
// sampling-offset counter is set to the max of the current and loaded
// values. Dimensions, crop window and layer count are validated against f's
// live configuration; a mismatch returns *ErrConfigMismatch and leaves f
// unmodified.
func (f *Film) LoadInto(r io.Reader) error {
	br := bufio.NewReader(r)

	buf := make([]byte, len(magic))
	if _, err := io.ReadFull(br, buf); err != nil {
		return err
	}
	if string(buf) != magic {
		return fmt.Errorf("film: bad magic %q", buf)
	}

	var nodeID, baseOffset, samplingOffset uint32
	for _, p := range []*uint32{&nodeID, &baseOffset, &samplingOffset} {
		if err := binary.Read(br, binary.LittleEndian, p); err != nil {
			return err
		}
	}

	var width, height, cx0, cx1, cy0, cy1, layerCount int32
	for _, p := range []*int32{&width, &height, &cx0, &cx1, &cy0, &cy1, &layerCount} {
		if err := binary.Read(br, binary.LittleEndian, p); err != nil {
			return err
		}
	}

	if int(width) != f.Width {
		return &ErrConfigMismatch{"width", f.Width, int(width)}
	}
	if int(height) != f.Height {
		return &ErrConfigMismatch{"height", f.Height, int(height)}
	}
	if int(cx0) != f.Cx0 {
		return &ErrConfigMismatch{"cx0", f.Cx0, int(cx0)}
	}
	if int(cy0) != f.Cy0 {
		return &ErrConfigMismatch{"cy0", f.Cy0, int(cy0)}
	}
	if int(layerCount) != f.layers.Len() {
		return &ErrConfigMismatch{"layer_count", f.layers.Len(), int(layerCount)}
	}

	n := f.Width * f.Height
	loadedWeight := make([]float64, n)
	for i := range loadedWeight {
		var v float32
		if err := binary.Read(br, binary.LittleEndian, &v); err != nil {
			return err
		}
		loadedWeight[i] = float64(v)
	}

	loadedAcc := make([][]core.Rgba, layerCount)
	for li := range loadedAcc {
		plane := make([]core.Rgba, n)
		for i := range plane {
			var vals [4]float32
			for k := range vals {
				if err := binary.Read(br, binary.LittleEndian, &vals[k]); err != nil {
					return err
				}
			}
			plane[i] = core.Rgba{R: float64(vals[0]), G: float64(vals[1]), B: float64(vals[2]), A: float64(vals[3])}
		}
		loadedAcc[li] = plane
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.weight {
		f.weight[i] += loadedWeight[i]
	}
	for li := range f.accumulators {
		for i := range f.accumulators[li] {
			f.accumulators[li][i] = f.accumulators[li][i].Add(loadedAcc[li][i])
		}
	}
	if samplingOffset > f.samplingOffset.Load() {
		f.samplingOffset.Store(samplingOffset)
	}
	_ = baseOffset
	_ = nodeID

	return nil
}
