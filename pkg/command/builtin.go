package command

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/dixieflatline76/imgedit/pkg/editor"
)

// TextSource supplies the help and about texts.
type TextSource interface {
	GetText(name string) (string, error)
}

// Default builds the registry of built-in commands. clip may be nil when no
// clipboard is available.
func Default(clip editor.ClipboardReader, texts TextSource) *Registry {
	r := NewRegistry()
	for _, c := range builtins(r, clip, texts) {
		if err := r.Register(c); err != nil {
			panic(err) // built-in table is static
		}
	}
	return r
}

func builtins(r *Registry, clip editor.ClipboardReader, texts TextSource) []*Command {
	return []*Command{
		{
			Name: "open", Shortcut: "ctrl+o", Usage: "PATH",
			Summary: "load an image file",
			Run: func(ctx context.Context, s *editor.Session, args []string) (string, error) {
				if len(args) != 1 {
					return "", ErrUsage
				}
				if err := s.Open(args[0]); err != nil {
					return "", err
				}
				return "Image loaded. " + describe(s), nil
			},
		},
		{
			Name: "reload", Shortcut: "f5",
			Summary: "reload the current file from disk",
			Run: func(ctx context.Context, s *editor.Session, args []string) (string, error) {
				if err := s.Reload(); err != nil {
					return "", err
				}
				return "Image reloaded. " + describe(s), nil
			},
		},
		{
			Name: "save", Shortcut: "ctrl+s", Usage: "[PATH]",
			Summary: "save the image; the extension picks the format (.ico writes an icon)",
			Run: func(ctx context.Context, s *editor.Session, args []string) (string, error) {
				if len(args) > 1 {
					return "", ErrUsage
				}
				path := ""
				if len(args) == 1 {
					path = args[0]
				}
				if err := s.Save(ctx, path); err != nil {
					return "", err
				}
				return "Image saved.", nil
			},
		},
		{
			Name: "icon", Usage: "PATH [SIZE...]",
			Summary: "save a multi-resolution icon, e.g. icon app.ico 16 32 256",
			Run: func(ctx context.Context, s *editor.Session, args []string) (string, error) {
				if len(args) < 1 {
					return "", ErrUsage
				}
				sizes, err := parseSizeList(args[1:])
				if err != nil {
					return "", err
				}
				if err := s.ExportIcon(ctx, args[0], sizes); err != nil {
					return "", err
				}
				return "Icon file saved.", nil
			},
		},
		{
			Name: "flip", Aliases: []string{"flip-horizontal"}, Shortcut: "ctrl+h",
			Summary: "mirror left to right",
			Run:     simple(func(s *editor.Session) error { return s.FlipHorizontal() }, "Image flipped."),
		},
		{
			Name: "flipv", Aliases: []string{"flip-vertical"},
			Summary: "mirror top to bottom",
			Run:     simple(func(s *editor.Session) error { return s.FlipVertical() }, "Image flipped."),
		},
		{
			Name: "rotate-left", Aliases: []string{"rotl"}, Shortcut: "ctrl+l",
			Summary: "rotate 90 degrees counter-clockwise",
			Run:     simple(func(s *editor.Session) error { return s.RotateLeft() }, "Image rotated left."),
		},
		{
			Name: "rotate-right", Aliases: []string{"rotr"}, Shortcut: "ctrl+r",
			Summary: "rotate 90 degrees clockwise",
			Run:     simple(func(s *editor.Session) error { return s.RotateRight() }, "Image rotated right."),
		},
		{
			Name: "resize", Shortcut: "ctrl+e", Usage: "WxH | Wx | xH | W H",
			Summary: "scale the image; leave one side out to keep the aspect ratio",
			Run:     runResize,
		},
		{
			Name: "crop", Shortcut: "ctrl+x", Usage: "[X Y W H | cancel]",
			Summary: "crop to a rectangle, or toggle crop mode and apply the dragged selection",
			Run:     runCrop,
		},
		{
			Name: "press", Usage: "X Y",
			Summary: "start a crop selection at a view point",
			Run: func(ctx context.Context, s *editor.Session, args []string) (string, error) {
				p, err := parsePoint(args)
				if err != nil {
					return "", err
				}
				return "", s.PressAt(p)
			},
		},
		{
			Name: "drag", Usage: "X Y",
			Summary: "extend the crop selection to a view point",
			Run: func(ctx context.Context, s *editor.Session, args []string) (string, error) {
				p, err := parsePoint(args)
				if err != nil {
					return "", err
				}
				s.DragTo(p)
				sel := s.Selection()
				return fmt.Sprintf("Selection: %dx%d at (%d, %d)", sel.Dx(), sel.Dy(), sel.Min.X, sel.Min.Y), nil
			},
		},
		{
			Name: "release",
			Summary: "finish dragging the crop selection",
			Run: func(ctx context.Context, s *editor.Session, args []string) (string, error) {
				s.Release()
				return "", nil
			},
		},
		{
			Name: "smartcrop", Usage: "WxH | W H",
			Summary: "crop to the most interesting region with the given aspect ratio",
			Run: func(ctx context.Context, s *editor.Session, args []string) (string, error) {
				w, h, err := parseDimensions(args)
				if err != nil || w <= 0 || h <= 0 {
					return "", ErrUsage
				}
				if err := s.SmartCrop(w, h); err != nil {
					return "", err
				}
				return "Crop complete. " + describe(s), nil
			},
		},
		{
			Name: "undo", Shortcut: "ctrl+z",
			Summary: "revert the last change",
			Run:     simple(func(s *editor.Session) error { return s.Undo() }, "Undone."),
		},
		{
			Name: "paste", Shortcut: "ctrl+v",
			Summary: "replace the image with the clipboard image",
			Run: func(ctx context.Context, s *editor.Session, args []string) (string, error) {
				if clip == nil {
					return "", fmt.Errorf("no clipboard available")
				}
				if err := s.Paste(clip); err != nil {
					return "", err
				}
				return "Pasted image from clipboard. " + describe(s), nil
			},
		},
		{
			Name: "inspect", Aliases: []string{"pick"}, Usage: "X Y",
			Summary: "show the color under a view point",
			Run: func(ctx context.Context, s *editor.Session, args []string) (string, error) {
				if len(args) != 2 {
					return "", ErrUsage
				}
				x, errX := strconv.ParseFloat(args[0], 64)
				y, errY := strconv.ParseFloat(args[1], 64)
				if errX != nil || errY != nil {
					return "", ErrUsage
				}
				p, err := s.Inspect(x, y)
				if err != nil {
					return "", err
				}
				return p.String(), nil
			},
		},
		{
			Name: "view", Usage: "W H | actual on|off",
			Summary: "set the display size used to map view points to pixels",
			Run:     runView,
		},
		{
			Name: "info",
			Summary: "describe the current image",
			Run: func(ctx context.Context, s *editor.Session, args []string) (string, error) {
				if s.Image() == nil {
					return "", editor.ErrNoImage
				}
				return describe(s), nil
			},
		},
		{
			Name: "help", Aliases: []string{"?"}, Usage: "[COMMAND]",
			Summary: "list commands",
			Run: func(ctx context.Context, s *editor.Session, args []string) (string, error) {
				return help(r, texts, args)
			},
		},
		{
			Name: "about", Shortcut: "f1",
			Summary: "show program information",
			Run: func(ctx context.Context, s *editor.Session, args []string) (string, error) {
				return texts.GetText("about.txt")
			},
		},
		{
			Name: "quit", Aliases: []string{"exit", "q"},
			Summary: "leave the program",
			Run: func(ctx context.Context, s *editor.Session, args []string) (string, error) {
				return "", ErrQuit
			},
		},
	}
}

func simple(op func(*editor.Session) error, msg string) Handler {
	return func(ctx context.Context, s *editor.Session, args []string) (string, error) {
		if len(args) != 0 {
			return "", ErrUsage
		}
		if err := op(s); err != nil {
			return "", err
		}
		return msg, nil
	}
}

func describe(s *editor.Session) string {
	w, h, err := s.Size()
	if err != nil {
		return ""
	}
	desc := fmt.Sprintf("Image size: %d x %d", w, h)
	if s.Path() != "" {
		desc += " (" + s.Path() + ")"
	}
	if s.CanUndo() {
		desc += fmt.Sprintf(", %d undo steps", s.UndoDepth())
	}
	return desc
}

func runResize(ctx context.Context, s *editor.Session, args []string) (string, error) {
	w, h, err := parseDimensions(args)
	if err != nil {
		return "", ErrUsage
	}
	switch {
	case w > 0 && h == 0:
		if h, err = s.AspectHeight(w); err != nil {
			return "", err
		}
	case w == 0 && h > 0:
		if w, err = s.AspectWidth(h); err != nil {
			return "", err
		}
	case w == 0 && h == 0:
		return "", ErrUsage
	}
	if err := s.Resize(w, h); err != nil {
		return "", err
	}
	return "Image resized. " + describe(s), nil
}

func runCrop(ctx context.Context, s *editor.Session, args []string) (string, error) {
	switch len(args) {
	case 0:
		if !s.Cropping() {
			if err := s.BeginCrop(); err != nil {
				return "", err
			}
			return "Drag to select the area to crop, then run crop again. Use crop cancel to stop.", nil
		}
		if err := s.ApplyCrop(); err != nil {
			return "", err
		}
		return "Crop complete. " + describe(s), nil
	case 1:
		if args[0] != "cancel" {
			return "", ErrUsage
		}
		s.CancelCrop()
		return "Crop cancelled.", nil
	case 4:
		var v [4]int
		for i, a := range args {
			n, err := strconv.Atoi(a)
			if err != nil {
				return "", ErrUsage
			}
			v[i] = n
		}
		if err := s.Crop(image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3])); err != nil {
			return "", err
		}
		s.CancelCrop()
		return "Crop complete. " + describe(s), nil
	default:
		return "", ErrUsage
	}
}

func runView(ctx context.Context, s *editor.Session, args []string) (string, error) {
	if len(args) == 2 && args[0] == "actual" {
		switch args[1] {
		case "on":
			s.SetActualSize(true)
		case "off":
			s.SetActualSize(false)
		default:
			return "", ErrUsage
		}
		return "Actual size: " + args[1], nil
	}
	w, h, err := parseDimensions(args)
	if err != nil {
		return "", ErrUsage
	}
	if err := s.SetViewport(w, h); err != nil {
		return "", err
	}
	return fmt.Sprintf("View size: %d x %d", w, h), nil
}

func help(r *Registry, texts TextSource, args []string) (string, error) {
	if len(args) == 1 {
		c, ok := r.Lookup(args[0])
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
		}
		return formatCommand(c), nil
	}

	var b strings.Builder
	if intro, err := texts.GetText("help.txt"); err == nil {
		b.WriteString(intro)
		b.WriteString("\n")
	}
	for _, c := range r.Commands() {
		b.WriteString(formatCommand(c))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatCommand(c *Command) string {
	line := "  " + c.Name
	if c.Usage != "" {
		line += " " + c.Usage
	}
	line = fmt.Sprintf("%-34s %s", line, c.Summary)
	var extra []string
	if c.Shortcut != "" {
		extra = append(extra, c.Shortcut)
	}
	extra = append(extra, c.Aliases...)
	if len(extra) > 0 {
		line += " [" + strings.Join(extra, ", ") + "]"
	}
	return line
}

// parseDimensions accepts "WxH", "Wx", "xH" or two numbers. A missing side
// is returned as 0.
func parseDimensions(args []string) (int, int, error) {
	var ws, hs string
	switch len(args) {
	case 1:
		var ok bool
		ws, hs, ok = strings.Cut(strings.ToLower(args[0]), "x")
		if !ok {
			return 0, 0, fmt.Errorf("expected WxH, got %q", args[0])
		}
	case 2:
		ws, hs = args[0], args[1]
	default:
		return 0, 0, fmt.Errorf("expected dimensions")
	}

	parse := func(v string) (int, error) {
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid dimension %q", v)
		}
		return n, nil
	}
	w, err := parse(ws)
	if err != nil {
		return 0, 0, err
	}
	h, err := parse(hs)
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

func parsePoint(args []string) (image.Point, error) {
	if len(args) != 2 {
		return image.Point{}, ErrUsage
	}
	x, errX := strconv.Atoi(args[0])
	y, errY := strconv.Atoi(args[1])
	if errX != nil || errY != nil {
		return image.Point{}, ErrUsage
	}
	return image.Pt(x, y), nil
}

// parseSizeList accepts sizes as separate arguments or comma separated.
func parseSizeList(args []string) ([]int, error) {
	var sizes []int
	for _, a := range args {
		for _, f := range strings.Split(a, ",") {
			if f == "" {
				continue
			}
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("invalid icon size %q", f)
			}
			sizes = append(sizes, n)
		}
	}
	return sizes, nil
}
