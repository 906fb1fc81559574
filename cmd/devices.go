package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/videotools/vcap/internal/v4l2"
)

// CreateDevicesCmd creates the devices command, which inspects V4L2
// capture devices without touching their buffer state.
func CreateDevicesCmd() *cobra.Command {
	var listFormats bool

	cmd := &cobra.Command{
		Use:   "devices [device...]",
		Short: "Inspect video capture devices",
		Long: `Prints driver, card and capability information for the given ` +
			`device nodes, or for every /dev/video* node when none are named.`,
		Run: func(_ *cobra.Command, args []string) {
			paths := args
			if len(paths) == 0 {
				paths, _ = filepath.Glob("/dev/video*")
				sort.Strings(paths)
			}
			if len(paths) == 0 {
				fmt.Println("No video devices found.")
				return
			}
			for _, path := range paths {
				inspectDevice(path, listFormats)
			}
		},
	}

	cmd.Flags().BoolVar(&listFormats, "formats", false, "enumerate pixel formats and frame sizes")

	return cmd
}

func inspectDevice(path string, listFormats bool) {
	dev, err := v4l2.Open(path)
	if err != nil {
		fmt.Printf("%s: %v\n", path, err)
		return
	}
	defer dev.Close()

	caps, err := dev.Capabilities()
	if err != nil {
		fmt.Printf("%s: %v\n", path, err)
		return
	}

	fmt.Printf("%s:\n", path)
	fmt.Printf("    Driver : %s\n", caps.Driver)
	fmt.Printf("    Card   : %s\n", caps.Card)
	fmt.Printf("    Bus    : %s\n", caps.Bus)
	fmt.Printf("    Version: %s\n", caps.Version)
	fmt.Printf("    Caps   : %08x (capture=%t streaming=%t)\n", caps.Raw, caps.Capture, caps.Streaming)

	if !listFormats {
		return
	}

	formats, err := dev.ListFormats()
	if err != nil {
		fmt.Printf("    formats: %v\n", err)
		return
	}
	for _, f := range formats {
		fmt.Printf("    %s  %s\n", v4l2.FourCC(f.PixelFormat), f.Description)
		sizes, err := dev.ListFrameSizes(f.PixelFormat)
		if err != nil {
			continue
		}
		for _, s := range sizes {
			fmt.Printf("        %dx%d\n", s[0], s[1])
		}
	}
}
