// Package face finds faces in an image with a pigo cascade classifier.
package face

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
)

const (
	minFaceSize    = 20
	shiftFactor    = 0.1
	scaleFactor    = 1.1
	iouThreshold   = 0.2
	defaultQuality = 5.0
)

// Detector runs an unpacked cascade over images. The cascade file is the
// "facefinder" model distributed with pigo.
type Detector struct {
	classifier *pigo.Pigo
	quality    float32
}

// Load reads and unpacks the cascade at path.
func Load(path string) (*Detector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading face model: %w", err)
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpacking face model %s: %w", path, err)
	}
	return &Detector{classifier: classifier, quality: defaultQuality}, nil
}

// Detect returns the bounds of the faces found in img, in img's coordinate
// space. Detections scoring below the quality threshold are dropped.
func (d *Detector) Detect(img image.Image) []image.Rectangle {
	b := img.Bounds()
	if b.Min != (image.Point{}) {
		// The grayscale conversion reads from the origin.
		img = imaging.Crop(img, b)
	}
	params := pigo.CascadeParams{
		MinSize:     minFaceSize,
		MaxSize:     max(b.Dx(), b.Dy()),
		ShiftFactor: shiftFactor,
		ScaleFactor: scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   b.Dy(),
			Cols:   b.Dx(),
			Dim:    b.Dx(),
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, iouThreshold)

	var faces []image.Rectangle
	for _, det := range dets {
		if det.Q < d.quality {
			continue
		}
		half := det.Scale / 2
		r := image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half)
		faces = append(faces, r.Add(b.Min).Intersect(b))
	}
	return faces
}
