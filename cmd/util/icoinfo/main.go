package main

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/dixieflatline76/imgedit/pkg/ico"
)

// Prints the directory of an icon file and checks every frame decodes to the
// size its entry declares.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/util/icoinfo <file.ico>...")
		os.Exit(1)
	}

	failed := false
	for _, path := range os.Args[1:] {
		if err := check(path); err != nil {
			fmt.Printf("%s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func check(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	frames, err := ico.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return err
	}
	_, entries, err := ico.ReadDirectory(bytes.NewReader(data))
	if err != nil {
		return err
	}

	fmt.Printf("File: %s (%d bytes, %d frames)\n", path, len(data), len(entries))
	for i, e := range entries {
		want := e.Bounds()
		got := frames[i].Bounds()
		status := "OK"
		if got.Size() != want.Size() {
			status = fmt.Sprintf("MISMATCH (payload is %dx%d)", got.Dx(), got.Dy())
		}
		fmt.Printf("  %3dx%-3d %2d bpp  offset %-7d length %-7d %s\n",
			want.Dx(), want.Dy(), e.BitsPerPixel, e.Offset, e.Length, status)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("registered decoder: %w", err)
	}
	return nil
}
