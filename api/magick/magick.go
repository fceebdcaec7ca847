// Package magick inspects and converts images with the ImageMagick command line tools.
package magick

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ka2n/getfavicon/api/favicon"
	"github.com/ka2n/getfavicon/log"
	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"
)

const (
	// DefaultIdentifyCommand is the default command used to list image layers
	DefaultIdentifyCommand = "identify"
	// DefaultConvertCommand is the default command used to extract and resize a layer
	DefaultConvertCommand = "convert"
	// DefaultSize is the edge length, in pixels, favicons are converted to fit in
	DefaultSize = 16

	// identifyFormat prints one "width height depth" line per layer
	identifyFormat = "%w %h %z\\n"
)

// Layer is one image inside a possibly multi-image file such as an ICO container.
type Layer struct {
	// Index is the 0-based position of the layer as reported by identify.
	Index      int
	Width      int
	Height     int
	ColorDepth int
}

// Inspector runs identify and convert.
type Inspector struct {
	identifyCmd  string
	convertCmd   string
	size         int
	layerPattern *regexp.Regexp
}

// Option configures an Inspector
type Option func(*Inspector)

// WithIdentifyCommand sets the identify executable
func WithIdentifyCommand(cmd string) Option {
	return func(i *Inspector) {
		if cmd != "" {
			i.identifyCmd = cmd
		}
	}
}

// WithConvertCommand sets the convert executable
func WithConvertCommand(cmd string) Option {
	return func(i *Inspector) {
		if cmd != "" {
			i.convertCmd = cmd
		}
	}
}

// WithSize sets the edge length used for layer selection and resizing
func WithSize(size int) Option {
	return func(i *Inspector) {
		if size > 0 {
			i.size = size
		}
	}
}

// NewInspector creates an Inspector
func NewInspector(opts ...Option) *Inspector {
	i := &Inspector{
		identifyCmd:  DefaultIdentifyCommand,
		convertCmd:   DefaultConvertCommand,
		size:         DefaultSize,
		layerPattern: regexp.MustCompile(`(?m)^(\d+)[ \t]+(\d+)[ \t]+(\d+)\r?\n`),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Size returns the target edge length
func (i *Inspector) Size() int {
	return i.size
}

// Layers lists the layers of the image at path, in the order identify reports them.
//
// Layers printed before identify exits abnormally are still used; the exit is
// only reported as favicon.ErrBadImage when none of them parse.
func (i *Inspector) Layers(ctx context.Context, path string) ([]Layer, error) {
	stdout, err := run(ctx, "identify", i.identifyCmd, "-format", identifyFormat, path)
	var exitErr *exec.ExitError
	if err != nil && !(errors.As(err, &exitErr) && ctx.Err() == nil) {
		return nil, err
	}

	if !utf8.Valid(stdout) {
		return nil, failure.New(favicon.ErrBadImageFormat,
			failure.Message("Bad image format: identify output is not valid text"),
			failure.Context{"path": path})
	}
	layers := i.parseLayers(string(stdout))

	if err != nil {
		if len(layers) == 0 {
			// identify refuses files it cannot decode
			return nil, failure.Wrap(err, failure.WithCode(favicon.ErrBadImage),
				failure.Message("Bad image: identify could not read the favicon"),
				failure.Context{"path": path})
		}
		log.Warn("identify exited abnormally, using the layers it reported", "path", path, "layers", len(layers), "error", err)
	}
	return layers, nil
}

// parseLayers reads identify output. Lines that are not three integers are skipped
// and do not consume an index.
func (i *Inspector) parseLayers(out string) []Layer {
	var layers []Layer
	for _, m := range i.layerPattern.FindAllStringSubmatch(out, -1) {
		width, err1 := strconv.Atoi(m[1])
		height, err2 := strconv.Atoi(m[2])
		depth, err3 := strconv.Atoi(m[3])
		if err := errors.Join(err1, err2, err3); err != nil {
			log.Debug("Skipping identify line", "line", m[0], "error", err)
			continue
		}
		layers = append(layers, Layer{
			Index:      len(layers),
			Width:      width,
			Height:     height,
			ColorDepth: depth,
		})
	}
	return layers
}

// SelectBest picks the layer to convert.
//
// Layers are ordered by (fits in size x size, width, height, color depth) and the
// maximum wins, so any layer already small enough beats every larger one. Among
// equal keys the last layer is kept.
func SelectBest(layers []Layer, size int) (Layer, error) {
	if len(layers) == 0 {
		return Layer{}, failure.New(favicon.ErrBadImage,
			failure.Message("Bad image: no usable layer found"))
	}
	return lo.MaxBy(layers, func(a, b Layer) bool {
		return compareKeys(weight(a, size), weight(b, size)) >= 0
	}), nil
}

func weight(l Layer, size int) [4]int {
	small := 0
	if l.Width <= size && l.Height <= size {
		small = 1
	}
	return [4]int{small, l.Width, l.Height, l.ColorDepth}
}

func compareKeys(a, b [4]int) int {
	for k := range a {
		if a[k] != b[k] {
			if a[k] > b[k] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// Convert extracts the layer at index from the image at path, shrinks it to fit the
// target size without upscaling, and writes it to output.
func (i *Inspector) Convert(ctx context.Context, path string, index int, output string) error {
	_, err := run(ctx, "convert", i.convertCmd,
		fmt.Sprintf("%s[%d]", path, index),
		"-resize", fmt.Sprintf("%dx%d>", i.size, i.size),
		output,
	)
	return err
}

// run executes name and returns its standard output.
// Spawn failures and abnormal exits are reported as favicon.ErrIO errors tagged
// "spawn <tool>" and "wait <tool>"; the latter wraps the *exec.ExitError and
// comes with whatever was written to stdout.
func run(ctx context.Context, tool string, name string, args ...string) ([]byte, error) {
	logger := log.Logger.With("cmd", name, "args", args)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Executing command")
	if err := cmd.Start(); err != nil {
		logger.Error("Command error", "error", err.Error())
		return nil, failure.Wrap(err, failure.WithCode(favicon.ErrIO),
			failure.Message(fmt.Sprintf("Failed to run %s. Please install ImageMagick: https://imagemagick.org/", name)),
			failure.Context{"context": "spawn " + tool, "path": name})
	}

	if err := cmd.Wait(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		logger.Error("Command failed", "error", err.Error(), "stderr", msg)
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return stdout.Bytes(), failure.Wrap(err, failure.WithCode(favicon.ErrIO),
			failure.Message(fmt.Sprintf("%s failed", name)),
			failure.Context{"context": "wait " + tool, "stderr": msg})
	}

	logger.Debug("Command completed successfully")
	return stdout.Bytes(), nil
}
