package floppy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResizeToStandardPadsSmall(t *testing.T) {
	img := normalizeImage(make([]byte, 100))
	require.Len(t, img, StandardSize)
}

func TestResizeToStandardTruncatesPad(t *testing.T) {
	img := make([]byte, StandardSize+512)
	for i := StandardSize; i < len(img); i++ {
		img[i] = 0xFF
	}
	out := resizeToStandard(img)
	require.Len(t, out, StandardSize, "trailing 0xFF pad should be truncated")
}

func TestResizeToStandardKeepsNonPadTail(t *testing.T) {
	img := make([]byte, StandardSize+512)
	img[StandardSize] = 0x42
	img[StandardSize+1] = 0x43
	out := resizeToStandard(img)
	require.Len(t, out, len(img), "non-repeating tail must be kept")
}

// S4. Write 256 words (512 bytes) into sector 5 of track 3, head 1, then
// read it back with Drive.ReadSector, and verify the exported image
// reflects it at the documented byte offset.
func TestWriteReadSectorRoundTrip(t *testing.T) {
	ctrl := NewController()
	ctrl.Drives[0].Insert(make([]byte, StandardSize))
	d := ctrl.Drives[0]

	for d.Track() != 3 {
		d.Step(true)
	}
	d.SetHead(1)

	var words [256]uint16
	for i := range words {
		words[i] = uint16((i%256)+1) | uint16((i%256)+1)<<8
	}
	d.WriteSector(1, 5, words)

	got := d.ReadSector(1, 5)
	require.Equal(t, words, got, "sector readback mismatch")

	exported := d.Export()
	// trackOffset(3,1) + 4*SectorBytes is the documented offset for sector
	// index 4 (5th sector).
	wantOffset := trackOffset(3, 1) + 4*SectorBytes
	for i := 0; i < SectorBytes; i += 2 {
		hi := byte(words[i/2] >> 8)
		lo := byte(words[i/2])
		require.Equal(t, hi, exported[wantOffset+i], "exported image mismatch at offset %d", wantOffset+i)
		require.Equal(t, lo, exported[wantOffset+i+1], "exported image mismatch at offset %d", wantOffset+i+1)
	}
}

func TestFloppyIdempotence(t *testing.T) {
	ctrl := NewController()
	ctrl.Drives[0].Insert(make([]byte, StandardSize))
	d := ctrl.Drives[0]

	var words [256]uint16
	words[0] = 0xBEEF
	d.WriteSector(0, 1, words)
	d.WriteSector(0, 1, words)

	var zero [256]uint16
	require.Equal(t, zero, d.ReadSector(0, 2), "writing sector 1 twice modified sector 2")
	require.Equal(t, words, d.ReadSector(0, 1), "double write did not read back the written bytes")
}

func TestStepClampsToValidRange(t *testing.T) {
	ctrl := NewController()
	ctrl.Drives[0].Insert(make([]byte, StandardSize))
	d := ctrl.Drives[0]

	for i := 0; i < 100; i++ {
		d.Step(false)
	}
	require.Equal(t, 0, d.Track(), "clamped to 0")

	for i := 0; i < 100; i++ {
		d.Step(true)
	}
	require.Equal(t, 82, d.Track(), "clamped to 82")
}
