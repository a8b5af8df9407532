// psdinfo prints the Photoshop layer and resource structure stored in
// TIFF files.
//
// Usage:
//
//	psdinfo [-s|--strict] [-p|--page N] <filename> [<filename> ...]
//
// Options:
//
//	-s, --strict  Treat unrecognized section keys as errors.
//	-p, --page N  Read the given TIFF page (default 0).
//	-h, --help    Show this help message.
//	--version     Show version information.
//
// Exit codes:
//
//	0: All files read
//	1: One or more files could not be parsed
//	2: Error (file not found, bad arguments, etc.)
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/mrjoshuak/go-psdtags/psd"
	"github.com/mrjoshuak/go-psdtags/psdtiff"
)

const version = "1.0.0"

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: psdinfo [-s|--strict] [-p|--page N] <filename> [<filename> ...]")
}

func main() {
	strict := false
	page := 0
	files := []string{}

	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch arg {
		case "-s", "--strict":
			strict = true
		case "-p", "--page":
			i++
			if i >= len(os.Args) {
				usage()
				os.Exit(2)
			}
			n, err := strconv.Atoi(os.Args[i])
			if err != nil || n < 0 {
				fmt.Fprintf(os.Stderr, "psdinfo: bad page %q\n", os.Args[i])
				os.Exit(2)
			}
			page = n
		case "-h", "--help":
			usage()
			os.Exit(0)
		case "--version":
			fmt.Printf("psdinfo %s\n", version)
			os.Exit(0)
		default:
			if len(arg) > 1 && arg[0] == '-' {
				fmt.Fprintf(os.Stderr, "psdinfo: unknown option %q\n", arg)
				usage()
				os.Exit(2)
			}
			files = append(files, arg)
		}
	}
	if len(files) == 0 {
		usage()
		os.Exit(2)
	}

	failed := false
	for _, name := range files {
		if err := printFile(name, page, strict); err != nil {
			fmt.Fprintf(os.Stderr, "psdinfo: %s: %v\n", name, err)
			if os.IsNotExist(err) {
				os.Exit(2)
			}
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func printFile(name string, page int, strict bool) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	fmt.Printf("%s:\n", name)

	found := false
	if value, err := psdtiff.ImageSourceData(data, page); err == nil {
		found = true
		if err := printSourceData(name, value, strict); err != nil {
			return err
		}
	} else if !errors.Is(err, psdtiff.ErrTagNotFound) {
		return err
	}

	if value, err := psdtiff.ImageResources(data, page); err == nil {
		found = true
		if err := printResources(value); err != nil {
			return err
		}
	} else if !errors.Is(err, psdtiff.ErrTagNotFound) {
		return err
	}

	if !found {
		fmt.Println("  no Photoshop tags")
	}
	fmt.Println()
	return nil
}

func printSourceData(name string, value []byte, strict bool) error {
	d, warnings, err := psd.ParseImageSourceData(value, psd.ParseOptions{Strict: strict})
	if err != nil {
		return err
	}
	d.Name = name
	fmt.Printf("  format: %s\n", d.Format)
	if d.Layers != nil {
		fmt.Printf("  layers (%s, transparency %v):\n",
			string(d.Layers.Key), d.Layers.HasTransparency)
		for i := range d.Layers.Layers {
			l := &d.Layers.Layers[i]
			fmt.Printf("    %q %s blend=%s opacity=%d channels=%d",
				l.UnicodeName(), l.Rectangle, string(l.BlendMode), l.Opacity, len(l.Channels))
			if l.Mask != nil {
				fmt.Printf(" mask=%s", l.Mask.Rectangle)
			}
			fmt.Println()
			for c := range l.Channels {
				ch := &l.Channels[c]
				fmt.Printf("      channel %d (%s): %s, %d bytes\n",
					ch.ID, ch.ID, ch.Compression, len(ch.Data))
			}
		}
	}
	if d.GlobalMask != nil {
		fmt.Printf("  global mask: colorspace=%d opacity=%d\n",
			d.GlobalMask.ColorSpace, d.GlobalMask.Opacity)
	}
	for _, b := range d.Info {
		switch v := b.(type) {
		case *psd.FilterMask:
			fmt.Printf("  filter mask: colorspace=%d opacity=%d\n", v.ColorSpace, v.Opacity)
		case *psd.Opaque:
			fmt.Printf("  section %q: %d bytes (opaque)\n", string(v.Tag), len(v.Data))
		default:
			fmt.Printf("  section %q\n", string(b.Key()))
		}
	}
	for _, w := range warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	return nil
}

func printResources(value []byte) error {
	res, err := psd.ParseImageResources(value)
	if err != nil {
		return err
	}
	fmt.Printf("  resources: %d blocks\n", len(res.Blocks))
	for _, b := range res.Blocks {
		fmt.Printf("    %s %d: %d bytes", b.Signature, b.ID, len(b.Data))
		if b.BlockName != "" {
			fmt.Printf(" %q", b.BlockName)
		}
		fmt.Println()
	}
	if t, err := res.Thumbnail(); err == nil && t != nil {
		fmt.Printf("    thumbnail: %dx%d, format %d, %d bytes\n",
			t.Width, t.Height, t.Format, len(t.Data))
	}
	return nil
}
