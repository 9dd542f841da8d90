// Package floppy implements the disk subsystem (C7): a controller exposing
// two memory-mapped registers and up to four drives, each modeling
// rotation and the raw/image track duality described in §4.7.
package floppy

import "github.com/kalininskiy/bk0010emu/internal/debug"

const (
	// Standard BK disk image geometry.
	Cylinders     = 80
	Heads         = 2
	SectorsPerTrk = 10
	SectorBytes   = 512
	TrackBytes    = Heads * SectorsPerTrk * SectorBytes // 10240
	StandardSize  = Cylinders * TrackBytes              // 819200

	wordsPerHead  = 3125
	sectorSlotLen = 304
	sectorBase    = 21

	gapWord = 0x4E4E

	markerBit = 1 << 16
	crcBit    = 1 << 17

	addrMarkerSync = 0xA1A1
	addrMarkerByte = 0xFE
	dataMarkerFB   = 0xFB
	dataMarkerF8   = 0xF8

	indexMarkerThreshold = 3110
)

// Drive holds the per-drive image buffer plus the currently loaded raw
// track for one head at a time (the controller selects which head is
// active; both heads' raw buffers are kept so a head switch doesn't force
// a reload).
type Drive struct {
	present bool
	image   []byte // up to StandardSize bytes, right-padded

	track int // 0..82
	head  int // 0 or 1

	raw      [2][wordsPerHead]uint32 // per-head raw track, lazily (re)built
	rawValid [2]bool
	dirty    [2]bool

	position int // rotation position within the current head's track, 0..3124

	writeInProgress   bool
	writeCommitNext   bool
	deferredWriteWord uint16

	brokenWriteLoggedTrack map[int]bool

	logger *debug.Logger
}

func NewDrive() *Drive {
	return &Drive{brokenWriteLoggedTrack: make(map[int]bool)}
}

// SetLogger attaches a logger the drive reports broken writes through
// (ComponentFloppy); nil (the zero value) is valid and simply suppresses
// logging.
func (d *Drive) SetLogger(logger *debug.Logger) { d.logger = logger }

// Insert loads an image, normalizing its size per §6.3/§4.7.
func (d *Drive) Insert(data []byte) {
	d.image = normalizeImage(data)
	d.present = true
	d.track = 0
	d.head = 0
	d.position = 0
	d.rawValid = [2]bool{}
	d.dirty = [2]bool{}
	d.loadTrack()
}

func (d *Drive) Eject() {
	d.flushTrack()
	d.present = false
	d.image = nil
}

// Export returns the drive's image normalized via resize_to_standard.
func (d *Drive) Export() []byte {
	d.flushTrack()
	return resizeToStandard(d.image)
}

func normalizeImage(data []byte) []byte {
	out := make([]byte, StandardSize)
	n := copy(out, data)
	_ = n
	return out
}

// resizeToStandard implements §4.7's export rule: truncate a larger image
// only if the trailing bytes beyond StandardSize are a repeating pad byte
// (commonly 0x00 or 0xFF); otherwise keep the full size. Smaller images are
// already zero-padded by normalizeImage on load.
func resizeToStandard(image []byte) []byte {
	if len(image) <= StandardSize {
		out := make([]byte, StandardSize)
		copy(out, image)
		return out
	}
	tail := image[StandardSize:]
	pad := tail[0]
	allSame := true
	for _, b := range tail {
		if b != pad {
			allSame = false
			break
		}
	}
	if allSame {
		out := make([]byte, StandardSize)
		copy(out, image[:StandardSize])
		return out
	}
	out := make([]byte, len(image))
	copy(out, image)
	return out
}

func (d *Drive) Present() bool { return d.present }

// trackOffset returns the byte offset of (track, head) sector 1 within the
// image, per §6.3's layout.
func trackOffset(track, head int) int {
	return track*TrackBytes + head*SectorsPerTrk*SectorBytes
}

// loadTrack expands both heads' sector bytes into raw tracks for the
// current track, per the sector-slot table in §4.7.
func (d *Drive) loadTrack() {
	for h := 0; h < Heads; h++ {
		d.buildRawTrack(h)
	}
}

func (d *Drive) buildRawTrack(head int) {
	var raw [wordsPerHead]uint32
	for i := range raw {
		raw[i] = gapWord
	}

	off := trackOffset(d.track, head)
	for sector := 0; sector < SectorsPerTrk; sector++ {
		slot := sectorBase + sector*sectorSlotLen
		for i := 0; i < 6; i++ {
			raw[slot+i] = 0
		}
		raw[slot+6] = addrMarkerSync | markerBit
		raw[slot+7] = uint32(addrMarkerSync&0xFF00) | addrMarkerByte | markerBit
		raw[slot+8] = uint32(d.track)<<8 | uint32(head)
		raw[slot+9] = uint32(sector+1)<<8 | 2
		raw[slot+10] = 0xFFFF | crcBit
		for i := 11; i < 21; i++ {
			raw[slot+i] = gapWord
		}
		raw[slot+21] = addrMarkerSync | markerBit
		raw[slot+22] = uint32(addrMarkerSync&0xFF00) | dataMarkerFB | markerBit

		secOff := off + sector*SectorBytes
		for w := 0; w < 256; w++ {
			hi := d.image[secOff+w*2]
			lo := d.image[secOff+w*2+1]
			raw[slot+23+w] = uint32(hi)<<8 | uint32(lo)
		}
		raw[slot+279] = 0xFFFF | crcBit
		for i := 280; i < sectorSlotLen; i++ {
			raw[slot+i] = gapWord
		}
	}

	d.raw[head] = raw
	d.rawValid[head] = true
	d.dirty[head] = false
}

// flushTrack runs the reverse-conversion state machine over any dirty raw
// head buffer and commits recovered sectors back into the image.
func (d *Drive) flushTrack() {
	if d.image == nil {
		return
	}
	for h := 0; h < Heads; h++ {
		if d.dirty[h] {
			d.scanRawIntoImage(h)
			d.dirty[h] = false
		}
	}
}

// scanRawIntoImage implements the reverse-conversion machine of §4.7: scan
// for the address-marker word (0xA1FE, marker bit set), read and validate
// its cyl/head, sector/size and CRC fields, scan for the following data
// marker, then read 256 data words and commit them to the image once the
// trailing CRC word confirms the sector.
func (d *Drive) scanRawIntoImage(head int) {
	const (
		sAddrMarker = iota // scanning for the 0xA1FE address-marker word
		sCylHead           // next word is cyl<<8|head
		sSectorSize        // next word is (sector+1)<<8|sizeCode
		sHeaderCRC         // next word is the header's CRC word
		sDataMarker        // scanning for the data marker word
		sData              // reading 256 data words
		sDataCRC           // next word is the data CRC word
	)
	state := sAddrMarker
	sector := -1 // 0-based once validated
	var dataWords [256]uint16
	dataIdx := 0

	bounce := func() {
		if !d.brokenWriteLoggedTrack[d.track] {
			d.brokenWriteLoggedTrack[d.track] = true
			if d.logger != nil {
				d.logger.LogFloppyf(debug.LogLevelWarning,
					"track %d head %d: broken write, header/CRC validation failed", d.track, head)
			}
		}
		state = sAddrMarker
	}

	raw := d.raw[head]
	for _, w := range raw {
		switch state {
		case sAddrMarker:
			if w&markerBit != 0 && uint8(w) == addrMarkerByte {
				state = sCylHead
			}

		case sCylHead:
			cyl := uint8(w >> 8)
			hd := uint8(w)
			if int(cyl) != d.track || int(hd) != head {
				bounce()
				continue
			}
			state = sSectorSize

		case sSectorSize:
			sec := uint8(w >> 8)
			size := uint8(w)
			if size != 2 || sec < 1 || sec > SectorsPerTrk {
				bounce()
				continue
			}
			sector = int(sec) - 1
			state = sHeaderCRC

		case sHeaderCRC:
			if w&crcBit == 0 {
				bounce()
				continue
			}
			state = sDataMarker

		case sDataMarker:
			if w&markerBit != 0 {
				b := uint8(w)
				if b == dataMarkerFB || b == dataMarkerF8 {
					state = sData
					dataIdx = 0
					continue
				}
				if uint8(w) == addrMarkerByte {
					state = sCylHead
					continue
				}
			}

		case sData:
			dataWords[dataIdx] = uint16(w)
			dataIdx++
			if dataIdx == 256 {
				state = sDataCRC
			}

		case sDataCRC:
			if w&crcBit != 0 && sector >= 0 && sector < SectorsPerTrk {
				secOff := trackOffset(d.track, head) + sector*SectorBytes
				for i, dw := range dataWords {
					d.image[secOff+i*2] = byte(dw >> 8)
					d.image[secOff+i*2+1] = byte(dw)
				}
			}
			state = sAddrMarker
		}
	}
}

// WriteSector deposits 256 big-endian words directly into the currently
// loaded raw track's data-word span for the given sector (1-based), then
// runs the reverse conversion at once, so the image holds the sector when
// it returns. The controller's data port does not call it; data-port
// writes go through StageWrite.
func (d *Drive) WriteSector(head, sector int, words [256]uint16) {
	if !d.rawValid[head] {
		d.buildRawTrack(head)
	}
	slot := sectorBase + (sector-1)*sectorSlotLen
	for i, w := range words {
		d.raw[head][slot+23+i] = uint32(w)
	}
	d.dirty[head] = true
	d.scanRawIntoImage(head)
	d.dirty[head] = false
}

// ReadSector returns the 256 big-endian data words for the given sector
// directly from the image (equivalent to reading them back off a
// just-committed raw track).
func (d *Drive) ReadSector(head, sector int) [256]uint16 {
	var out [256]uint16
	off := trackOffset(d.track, head) + (sector-1)*SectorBytes
	for i := range out {
		out[i] = uint16(d.image[off+i*2])<<8 | uint16(d.image[off+i*2+1])
	}
	return out
}

// Step moves the drive one track in the given direction (false = toward
// track 0, true = toward track 82), clamped to the valid range, flushing
// and reloading the raw track as needed.
func (d *Drive) Step(towardHigherTrack bool) {
	d.flushTrack()
	if towardHigherTrack {
		if d.track < 82 {
			d.track++
		}
	} else {
		if d.track > 0 {
			d.track--
		}
	}
	d.position = 0
	d.loadTrack()
}

func (d *Drive) SetHead(head int) { d.head = head }

// Rotate advances the rotational position by n word-ticks, wrapping at
// wordsPerHead. A staged write is committed on the first tick after
// StageWrite, at the position under the head before it advances; that same
// tick clears the write-in-progress flag. No CRC word is written after the
// committed word.
func (d *Drive) Rotate(n int) {
	for i := 0; i < n; i++ {
		if d.writeCommitNext {
			d.commitDeferredWrite()
			d.writeCommitNext = false
			d.writeInProgress = false
		}
		d.position++
		if d.position >= wordsPerHead {
			d.position = 0
		}
	}
}

func (d *Drive) commitDeferredWrite() {
	d.raw[d.head][d.position] = uint32(d.deferredWriteWord)
	d.dirty[d.head] = true
}

func (d *Drive) StageWrite(word uint16) {
	d.deferredWriteWord = word
	d.writeInProgress = true
	d.writeCommitNext = true
}

func (d *Drive) CurrentWord() uint32 {
	if !d.rawValid[d.head] {
		d.buildRawTrack(d.head)
	}
	return d.raw[d.head][d.position]
}

func (d *Drive) IndexMarker() bool { return d.position >= indexMarkerThreshold }

func (d *Drive) WriteInProgress() bool { return d.writeInProgress }

func (d *Drive) Track() int { return d.track }
