// Command gifenc drives the gifenc library against frame sources the core
// library deliberately doesn't own: decoding image files, resampling
// mismatched dimensions, and writing the result to disk. None of that is
// part of the GIF codec itself (spec.md's Non-goals exclude file I/O and
// pixel-format conversion from the core) — it's the CLI frontend's job.
package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/pixelreel/gifenc"
)

func main() {
	app := &cli.App{
		Name:  "gifenc",
		Usage: "encode a directory of frames into an animated GIF89a file",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "width", Usage: "output width; 0 infers from the first frame"},
			&cli.IntFlag{Name: "height", Usage: "output height; 0 infers from the first frame"},
			&cli.IntFlag{Name: "fps", Value: 10, Usage: "frame rate used for frames without an explicit delay"},
			&cli.IntFlag{Name: "repeat", Value: -1, Usage: "-1 = infinite loop, 0 = play once, N = loop N extra times"},
			&cli.IntFlag{Name: "quality", Value: 10, Usage: "NeuQuant sample factor, 1 (best) to 30 (fastest)"},
			&cli.StringFlag{Name: "frames-dir", Usage: "directory of PNG/JPEG/GIF frames, sorted by filename"},
			&cli.StringFlag{Name: "raw-dir", Usage: "directory of raw RGB24 .rgb frames, sorted by filename"},
			&cli.StringFlag{Name: "out", Value: "out.gif", Usage: "output file path"},
			&cli.BoolFlag{Name: "verbose", Usage: "log frame-by-frame diagnostics"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "gifenc:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	var logger *zap.Logger
	var err error
	if c.Bool("verbose") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	framesDir := c.String("frames-dir")
	rawDir := c.String("raw-dir")
	if (framesDir == "") == (rawDir == "") {
		return cli.Exit("exactly one of --frames-dir or --raw-dir is required", 1)
	}

	width, height := c.Int("width"), c.Int("height")

	var frames []gifenc.Frame
	if framesDir != "" {
		frames, width, height, err = loadImageFrames(framesDir, width, height)
	} else {
		frames, err = loadRawFrames(rawDir, width, height)
	}
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return cli.Exit("no frames found", 1)
	}

	w, err := gifenc.NewContainerWriter(width, height,
		gifenc.WithRepeat(gifenc.Repeat(c.Int("repeat"))),
		gifenc.WithFrameRate(c.Int("fps")),
		gifenc.WithSample(c.Int("quality")),
		gifenc.WithLogger(gifenc.NewZapLogger(sugar)),
	)
	if err != nil {
		return err
	}

	out, err := os.Create(c.String("out"))
	if err != nil {
		return err
	}
	defer out.Close()

	sink := gifenc.NewWriterSink(out)
	if err := w.Start(sink); err != nil {
		return err
	}
	for i, f := range frames {
		if err := w.Add(sink, f); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	if err := w.Commit(sink); err != nil {
		return err
	}

	sugar.Infof("wrote %d frames (%dx%d) to %s", len(frames), width, height, c.String("out"))
	return nil
}

// loadImageFrames decodes every image file in dir (sorted by name) via the
// standard image registry, resampling to width x height when either is
// nonzero and doesn't match the decoded bounds.
func loadImageFrames(dir string, width, height int) ([]gifenc.Frame, int, int, error) {
	names, err := sortedEntries(dir)
	if err != nil {
		return nil, 0, 0, err
	}

	var frames []gifenc.Frame
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, 0, 0, err
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, 0, 0, fmt.Errorf("decode %s: %w", name, err)
		}

		if width == 0 || height == 0 {
			b := img.Bounds()
			if width == 0 {
				width = b.Dx()
			}
			if height == 0 {
				height = b.Dy()
			}
		}

		rgba := resampleTo(img, width, height)
		frames = append(frames, gifenc.Frame{Pixels: rgba, Delay: gifenc.NoDelay})
	}
	return frames, width, height, nil
}

// resampleTo decodes img into a tightly-packed RGB24 buffer, resampling
// with Catmull-Rom interpolation when the source bounds don't match the
// target size.
func resampleTo(img image.Image, width, height int) []byte {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		img = dst
		b = img.Bounds()
	}

	out := make([]byte, width*height*3)
	k := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out[k] = byte(r >> 8)
			out[k+1] = byte(g >> 8)
			out[k+2] = byte(bl >> 8)
			k += 3
		}
	}
	return out
}

// loadRawFrames reads every .rgb file in dir (sorted by name) as a raw
// RGB24 buffer of exactly width*height*3 bytes.
func loadRawFrames(dir string, width, height int) ([]gifenc.Frame, error) {
	if width == 0 || height == 0 {
		return nil, cli.Exit("--width and --height are required with --raw-dir", 1)
	}

	names, err := sortedEntries(dir)
	if err != nil {
		return nil, err
	}

	want := width * height * 3
	var frames []gifenc.Frame
	for _, name := range names {
		if filepath.Ext(name) != ".rgb" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if len(data) != want {
			return nil, fmt.Errorf("%s: got %d bytes, want %d", name, len(data), want)
		}
		frames = append(frames, gifenc.Frame{Pixels: data, Delay: gifenc.NoDelay})
	}
	return frames, nil
}

func sortedEntries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
