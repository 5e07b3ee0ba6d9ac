// Package clipboard reads images from the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

// ErrNoImage is returned when the clipboard holds no image data.
var ErrNoImage = errors.New("clipboard holds no image")

// System reads the OS clipboard. The zero value is ready to use.
type System struct {
	once sync.Once
	err  error
}

// ReadImage returns the clipboard image as encoded PNG bytes.
func (s *System) ReadImage() ([]byte, error) {
	s.once.Do(func() {
		s.err = clipboard.Init()
	})
	if s.err != nil {
		return nil, fmt.Errorf("clipboard unavailable: %w", s.err)
	}

	data := clipboard.Read(clipboard.FmtImage)
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	return data, nil
}
