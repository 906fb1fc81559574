// Package cmd wires the vcap command line interface.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/videotools/vcap/internal/capture"
	"github.com/videotools/vcap/internal/config"
	"github.com/videotools/vcap/internal/logging"
	"github.com/videotools/vcap/internal/pixel"
	"github.com/videotools/vcap/internal/v4l2"
	"github.com/videotools/vcap/internal/version"
)

// Defaults for the capture run. Width and height are also the fallback
// when the user passes a zero or negative dimension.
const (
	DefaultDevice = "/dev/video0"
	DefaultOutput = "vcap.jpg"
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Options holds the effective configuration, with flat toml/env
// mappings resolved by config.Load.
type Options struct {
	Config string

	Device  string `toml:"capture.device" env:"DEVICE"`
	Output  string `toml:"capture.output" env:"OUTPUT"`
	Width   int    `toml:"capture.width" env:"WIDTH"`
	Height  int    `toml:"capture.height" env:"HEIGHT"`
	Quality int    `toml:"capture.quality" env:"QUALITY"`
	Timeout int    `toml:"capture.timeout_seconds" env:"TIMEOUT_SECONDS"`

	Verbose bool

	LoggingLevel  string `toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `toml:"logging.format" env:"LOGGING_FORMAT"`
}

// CreateRootCmd creates the root command: capture one frame and save
// it as a JPEG.
func CreateRootCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "vcap",
		Short: "Capture a single frame from a V4L2 device to a JPEG file",
		Long: `vcap captures one still frame from a memory-mapped video capture ` +
			`device and saves it as a JPEG image. The device must support YUYV ` +
			`frames over mmapped streaming I/O.`,
		Version: version.String(),
		Run: func(cmd *cobra.Command, _ []string) {
			runCapture(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Device, "device", "d", DefaultDevice, "video capture device")
	flags.StringVarP(&opts.Output, "output", "o", DefaultOutput, "image output file")
	flags.IntVarP(&opts.Width, "width", "w", DefaultWidth, "requested image width")
	flags.IntVarP(&opts.Height, "height", "h", DefaultHeight, "requested image height")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose diagnostics")
	flags.StringVarP(&opts.Config, "config", "c", "vcap.toml", "path to configuration file")

	// The height flag owns the -h shorthand; help stays reachable as
	// --help.
	flags.Bool("help", false, "help for vcap")

	return cmd
}

func runCapture(cmd *cobra.Command, opts *Options) {
	if err := config.Load(opts, cmd); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}

	level := opts.LoggingLevel
	if opts.Verbose {
		level = "debug"
	}
	logging.Initialize(logging.Config{Level: level, Format: opts.LoggingFormat})
	logger := logging.GetLogger("capture")

	if opts.Width <= 0 {
		logger.Warn("invalid width, using default", "fallback", DefaultWidth)
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		logger.Warn("invalid height, using default", "fallback", DefaultHeight)
		opts.Height = DefaultHeight
	}

	timeout := capture.DefaultTimeout
	if opts.Timeout > 0 {
		timeout = time.Duration(opts.Timeout) * time.Second
	}

	dev, err := v4l2.Open(opts.Device)
	if err != nil {
		fail(logger, capture.NewError(capture.ErrCodeOpenFailed, "opening capture device", err))
	}

	frame, err := capture.Grab(dev, capture.Options{
		Width:   uint32(opts.Width),
		Height:  uint32(opts.Height),
		Timeout: timeout,
	}, logger)
	if err != nil {
		fail(logger, err)
	}

	if err := pixel.SaveJPEG(opts.Output, frame, opts.Quality); err != nil {
		fail(logger, err)
	}

	fmt.Printf("Saved image to %s\n", opts.Output)
}

// fail reports a fatal capture error and exits non-zero. Timeouts get
// a softer message: the device was not ready, which a retry usually
// cures.
func fail(logger logging.Logger, err error) {
	if capture.IsTimeout(err) {
		logger.Error("no frame became ready, try again", "error", err)
	} else {
		logger.Error("capture failed", "error", err)
	}
	os.Exit(1)
}
