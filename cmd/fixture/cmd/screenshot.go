package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/go-drift/e2e/pkg/rendering"
)

func init() {
	RegisterCommand(&Command{
		Name:  "screenshot",
		Short: "Write a PNG screenshot of a screen",
		Long: `Launch the fixture headless and write a PNG of a screen at device
pixel resolution.

Flags:
  -o, --output FILE   Output file (default: screenshot.png)
  --route ROUTE       Screen to capture: /, /list or /drag (default: /)
` + appFlagsHelp,
		Usage: "fixture screenshot [-o FILE] [--route ROUTE]",
		Run:   runScreenshot,
	})
}

func runScreenshot(args []string) error {
	fs := newFlagSet("screenshot")
	output := fs.StringP("output", "o", "screenshot.png", "output file")
	route := fs.String("route", "/", "screen to capture")
	cfg, err := parse(fs, args)
	if err != nil {
		return err
	}
	log := cfg.Logger()
	log.SetLevel(logrus.WarnLevel)

	a, loop, err := headless(cfg, log, *route)
	if err != nil {
		return err
	}
	defer loop.Close()
	defer a.Dispose()

	png, err := rendering.Screenshot(a.Tree(), a.Window().Scale())
	if err != nil {
		return fmt.Errorf("failed to render screenshot: %w", err)
	}
	if err := os.WriteFile(*output, png, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	w, h := a.Window().PixelSize()
	fmt.Fprintf(stdout, "Wrote %s (%dx%d)\n", *output, w, h)
	return nil
}
