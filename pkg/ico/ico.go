// Package ico reads and writes multi-resolution Windows icon containers
// whose frames are stored as PNG payloads.
package ico

import (
	"image"
)

const (
	headerSize = 6
	entrySize  = 16

	typeIcon = 1

	// MaxSize is the largest frame edge the directory can describe.
	// It is stored as 0 in the 8-bit width and height fields.
	MaxSize = 256

	planes       = 1
	bitsPerPixel = 32
)

// DefaultSizes are the frame sizes written when no explicit list is given.
var DefaultSizes = []int{16, 32, 48, 64, 128, 256}

// Header is the ICONDIR record at the start of every container.
type Header struct {
	Reserved uint16 // must be 0
	Type     uint16 // 1 for icons
	Count    uint16 // number of directory entries
}

// Entry is one ICONDIRENTRY record locating a payload within the container.
type Entry struct {
	Width        uint8 // 0 means 256
	Height       uint8 // 0 means 256
	PaletteCount uint8
	Reserved     uint8
	Planes       uint16
	BitsPerPixel uint16
	Length       uint32 // payload length in bytes
	Offset       uint32 // absolute payload offset
}

// Bounds returns the frame rectangle described by the entry.
func (e Entry) Bounds() image.Rectangle {
	return image.Rect(0, 0, edge(e.Width), edge(e.Height))
}

func edge(b uint8) int {
	if b == 0 {
		return MaxSize
	}
	return int(b)
}

func sizeByte(size int) uint8 {
	if size == MaxSize {
		return 0
	}
	return uint8(size)
}

// DataOffset returns the offset of the first payload in a container with n
// entries.
func DataOffset(n int) int {
	return headerSize + entrySize*n
}

// layout builds the directory for frames of the given sizes and payload
// lengths. Payloads follow the directory back to back in entry order.
func layout(sizes []int, lengths []int) []Entry {
	entries := make([]Entry, len(sizes))
	offset := uint32(DataOffset(len(sizes)))
	for i, size := range sizes {
		entries[i] = Entry{
			Width:        sizeByte(size),
			Height:       sizeByte(size),
			Planes:       planes,
			BitsPerPixel: bitsPerPixel,
			Length:       uint32(lengths[i]),
			Offset:       offset,
		}
		offset += uint32(lengths[i])
	}
	return entries
}
