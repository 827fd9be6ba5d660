package videoframe

import (
	"encoding/binary"

	"github.com/tauraamui/xerror"
)

// OpenCV mat type ids for the 8 bit layouts carried on the wire.
const (
	matTypeCV8UC1 uint16 = 0
	matTypeCV8UC3 uint16 = 16
	matTypeCV8UC4 uint16 = 24
)

const (
	suffixLen    = 8
	suffixMagic0 = 0x13
	suffixMagic1 = 0x31
)

// ToBytes encodes a frame as tightly packed pixel rows followed by an 8 byte
// suffix: rows, cols and mat type as little endian uint16, then 0x13 0x31.
// Only BGR ordered layouts have a mat type, so rgb8/rgba8 are rejected.
func ToBytes(frame Raw) ([]byte, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	var mt uint16
	switch frame.Encoding {
	case MONO8:
		mt = matTypeCV8UC1
	case BGR8:
		mt = matTypeCV8UC3
	case BGRA8:
		mt = matTypeCV8UC4
	default:
		return nil, xerror.Errorf("frame encoding %s has no wire mat type", frame.Encoding)
	}

	rowLen := frame.Width * frame.Encoding.Channels()
	out := make([]byte, 0, rowLen*frame.Height+suffixLen)
	for y := 0; y < frame.Height; y++ {
		start := y * frame.Step
		out = append(out, frame.Data[start:start+rowLen]...)
	}

	suffix := make([]byte, suffixLen)
	binary.LittleEndian.PutUint16(suffix[:2], uint16(frame.Height))
	binary.LittleEndian.PutUint16(suffix[2:4], uint16(frame.Width))
	binary.LittleEndian.PutUint16(suffix[4:6], mt)
	suffix[6] = suffixMagic0
	suffix[7] = suffixMagic1

	return append(out, suffix...), nil
}

// FromBytes decodes the output of ToBytes.
func FromBytes(d []byte) (Raw, error) {
	if len(d) < suffixLen {
		return Raw{}, xerror.New("frame expects at least 8 bytes to load")
	}

	dl := len(d)
	suffix := d[dl-suffixLen:]
	if suffix[6] != suffixMagic0 || suffix[7] != suffixMagic1 {
		return Raw{}, xerror.New("frame bytes missing trailing suffix")
	}

	r := int(binary.LittleEndian.Uint16(suffix[:2]))
	c := int(binary.LittleEndian.Uint16(suffix[2:4]))

	var enc Encoding
	switch binary.LittleEndian.Uint16(suffix[4:6]) {
	case matTypeCV8UC1:
		enc = MONO8
	case matTypeCV8UC3:
		enc = BGR8
	case matTypeCV8UC4:
		enc = BGRA8
	default:
		return Raw{}, xerror.Errorf("unsupported mat type: %d", binary.LittleEndian.Uint16(suffix[4:6]))
	}

	frame := Raw{
		Width: c, Height: r, Encoding: enc,
		Step: c * enc.Channels(),
		Data: d[:dl-suffixLen],
	}
	if err := frame.Validate(); err != nil {
		return Raw{}, err
	}
	return frame, nil
}
