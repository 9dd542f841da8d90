// Package memory implements the BK-0010/BK-0011M 64 KiB logical address
// space: an 8-page bank-switched window over a backing store holding RAM
// and every loaded ROM image (C1, C2 of the design).
package memory

import "fmt"

const (
	// RAMSize is the full 64 KiB RAM region at the front of the backing store.
	RAMSize = 65536

	// PageSize is the logical page granularity: 8 pages cover 64 KiB.
	PageSize = 8192
	// PageCount is the number of logical pages in the 16-bit address space.
	PageCount = 8
)

// Page describes one 8 KiB logical page: where it lives in the backing
// store and whether the CPU may read/write it.
type Page struct {
	PhysBase int
	Readable bool
	Writable bool
}

// BackingStore is the single contiguous buffer RAM and every ROM image are
// carved out of. ROM regions are appended after the fixed RAM region and
// are never mutated by CPU writes (see Bus.WriteWord / WriteByte).
type BackingStore struct {
	Data []byte

	// roms tracks named ROM images by their offset/length in Data, so the
	// mapper can re-point page bases at a ROM it already loaded.
	roms map[string]romImage
}

type romImage struct {
	offset int
	length int
}

// ROMKind identifies which ROM slot a loaded image fills, used both for
// auto-detection by size (§6.6 load_rom) and for preset page wiring.
type ROMKind int

const (
	ROMMonitor ROMKind = iota
	ROMBasic10
	ROMBasic20
	ROMBasic30
	ROMFocal
	ROMDiskController
	ROMBK11MOS
	ROMBK11MExtension
	ROMBK11MBasicPart1
	ROMBK11MBasicPart2
	ROMCustom
)

var romKindNames = map[ROMKind]string{
	ROMMonitor:         "monitor",
	ROMBasic10:         "basic10",
	ROMBasic20:         "basic20",
	ROMBasic30:         "basic30",
	ROMFocal:           "focal",
	ROMDiskController:  "disk-controller",
	ROMBK11MOS:         "bk11m-os",
	ROMBK11MExtension:  "bk11m-extension",
	ROMBK11MBasicPart1: "bk11m-basic-1",
	ROMBK11MBasicPart2: "bk11m-basic-2",
	ROMCustom:          "custom",
}

// DetectROMKind picks a ROM slot from a raw image's byte length alone.
// Sizes follow the 8 KiB page granularity of the real hardware: each of the
// named monitor/BASIC/FOCAL/disk-controller ROMs is one page, BK-0011M's
// OS/extension/BASIC images are two. Images of the same size are not told
// apart: every 8 KiB image is taken as the monitor and every 16 KiB image as
// the BK-0011M OS. An unrecognised size falls back to ROMCustom (§7 "ROM
// load with unrecognised size").
func DetectROMKind(data []byte) ROMKind {
	switch len(data) {
	case PageSize: // 8 KiB: monitor, FOCAL, disk controller, one BASIC page
		return ROMMonitor
	case PageSize * 2: // 16 KiB: a two-page BASIC/extension/OS image
		return ROMBK11MOS
	default:
		return ROMCustom
	}
}

func (k ROMKind) String() string {
	if s, ok := romKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// NewBackingStore allocates RAM plus headroom for ROM images.
func NewBackingStore() *BackingStore {
	return &BackingStore{
		Data: make([]byte, RAMSize),
		roms: make(map[string]romImage),
	}
}

// LoadROM appends a ROM image to the backing store under name, returning
// the byte offset it was written at. Re-loading the same name overwrites
// in place if the new image is the same size, otherwise it is appended
// fresh and the old bytes are leaked: ROM loads are rare operator-driven
// events, not a hot path, so that's an acceptable trade.
func (b *BackingStore) LoadROM(name string, data []byte) int {
	if existing, ok := b.roms[name]; ok && existing.length == len(data) {
		copy(b.Data[existing.offset:existing.offset+existing.length], data)
		return existing.offset
	}
	offset := len(b.Data)
	b.Data = append(b.Data, data...)
	b.roms[name] = romImage{offset: offset, length: len(data)}
	return offset
}

// ROMOffset returns the backing-store offset of a previously loaded ROM.
func (b *BackingStore) ROMOffset(name string) (int, int, bool) {
	r, ok := b.roms[name]
	return r.offset, r.length, ok
}

func (b *BackingStore) String() string {
	return fmt.Sprintf("backing store: %d bytes RAM + %d ROM images", RAMSize, len(b.roms))
}
