package export

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/jmylchreest/paleta/internal/colour"
)

// Adobe Swatch Exchange constants.
const (
	aseSignature  = "ASEF"
	aseVersion    = 0x00010000
	aseColorEntry = 0x0001
	aseModelRGB   = "RGB "
)

// Photoshop colour table constants.
const (
	acoVersion1     = 1
	acoSpaceRGB     = 0
	acoChannelScale = 256
)

// swatchName returns the 1-indexed display name of a swatch ("Colour N").
func swatchName(index int) string {
	return fmt.Sprintf("Цвет %d", index+1)
}

// encodeASE writes an Adobe Swatch Exchange file. Every colour becomes one
// colour-entry block holding a UTF-16BE name, the RGB model tag and three
// big-endian float32 channels in [0, 1].
func encodeASE(colors []colour.RGB) []byte {
	buf := make([]byte, 0, 12+len(colors)*48)
	buf = append(buf, aseSignature...)
	buf = binary.BigEndian.AppendUint32(buf, aseVersion)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(colors))) // #nosec G115 -- palette length is bounded

	for i, c := range colors {
		name := utf16.Encode([]rune(swatchName(i)))

		block := make([]byte, 0, 2+2*len(name)+len(aseModelRGB)+12)
		block = binary.BigEndian.AppendUint16(block, uint16(len(name))) // #nosec G115 -- short fixed name
		for _, unit := range name {
			block = binary.BigEndian.AppendUint16(block, unit)
		}
		block = append(block, aseModelRGB...)
		for _, v := range []uint8{c.R, c.G, c.B} {
			block = binary.BigEndian.AppendUint32(block, math.Float32bits(float32(float64(v)/255.0)))
		}

		buf = binary.BigEndian.AppendUint16(buf, aseColorEntry)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(block))) // #nosec G115 -- block size is small
		buf = append(buf, block...)
	}

	return buf
}

// encodeACO writes a version 1 Photoshop colour table. Channels are scaled
// by 256, not 257, so 255 becomes 65280; readers of the legacy format expect
// exactly this.
func encodeACO(colors []colour.RGB) []byte {
	buf := make([]byte, 0, 4+8*len(colors))
	buf = binary.BigEndian.AppendUint16(buf, acoVersion1)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(colors))) // #nosec G115 -- palette length is bounded

	for _, c := range colors {
		buf = binary.BigEndian.AppendUint16(buf, acoSpaceRGB)
		buf = binary.BigEndian.AppendUint16(buf, uint16(c.R)*acoChannelScale)
		buf = binary.BigEndian.AppendUint16(buf, uint16(c.G)*acoChannelScale)
		buf = binary.BigEndian.AppendUint16(buf, uint16(c.B)*acoChannelScale)
	}

	return buf
}
