package ico

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func init() {
	image.RegisterFormat("ico", "\x00\x00\x01\x00", Decode, DecodeConfig)
}

// ReadDirectory reads and validates the header and directory of a container.
func ReadDirectory(r io.Reader) (Header, []Entry, error) {
	var hdr Header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return hdr, nil, fmt.Errorf("%w: reading header: %v", ErrFormat, err)
	}
	if hdr.Reserved != 0 || hdr.Type != typeIcon {
		return hdr, nil, fmt.Errorf("%w: bad magic %d/%d", ErrFormat, hdr.Reserved, hdr.Type)
	}
	if hdr.Count == 0 {
		return hdr, nil, fmt.Errorf("%w: empty directory", ErrFormat)
	}

	entries := make([]Entry, hdr.Count)
	if err := binary.Read(r, binary.LittleEndian, entries); err != nil {
		return hdr, nil, fmt.Errorf("%w: reading directory: %v", ErrFormat, err)
	}
	return hdr, entries, nil
}

// Payload returns the bytes of entry e within the full container data.
func Payload(data []byte, e Entry) ([]byte, error) {
	start := uint64(e.Offset)
	end := start + uint64(e.Length)
	if e.Length == 0 || end > uint64(len(data)) {
		return nil, fmt.Errorf("%w: payload [%d:%d] outside %d bytes", ErrFormat, start, end, len(data))
	}
	return data[start:end], nil
}

// DecodeAll decodes every frame in directory order.
func DecodeAll(r io.Reader) ([]image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	_, entries, err := ReadDirectory(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	frames := make([]image.Image, len(entries))
	for i, e := range entries {
		frames[i], err = decodeFrame(data, e)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return frames, nil
}

// Decode returns the largest frame of the container.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	_, entries, err := ReadDirectory(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return decodeFrame(data, entries[largest(entries)])
}

// DecodeConfig reports the dimensions of the largest frame without decoding
// any payload.
func DecodeConfig(r io.Reader) (image.Config, error) {
	_, entries, err := ReadDirectory(r)
	if err != nil {
		return image.Config{}, err
	}
	b := entries[largest(entries)].Bounds()
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      b.Dx(),
		Height:     b.Dy(),
	}, nil
}

func largest(entries []Entry) int {
	best, bestArea := 0, 0
	for i, e := range entries {
		b := e.Bounds()
		if area := b.Dx() * b.Dy(); area > bestArea {
			best, bestArea = i, area
		}
	}
	return best
}

func decodeFrame(data []byte, e Entry) (image.Image, error) {
	payload, err := Payload(data, e)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(payload, pngSignature) {
		return nil, fmt.Errorf("%w: frame is not PNG", ErrUnsupportedPayload)
	}
	img, err := png.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decoding png frame: %w", err)
	}
	return img, nil
}
