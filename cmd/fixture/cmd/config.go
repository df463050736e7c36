package cmd

import (
	"fmt"

	"github.com/go-drift/e2e/cmd/fixture/internal/config"
)

func init() {
	RegisterCommand(&Command{
		Name:  "config",
		Short: "Show or write the effective configuration",
		Long: `Print the configuration the other commands would run with, after
fixture.yaml, FIXTURE_* environment variables and flags are applied.

Flags:
  --addr ADDR         Listen address
  --write             Save the configuration to fixture.yaml in the project root
  --force             Overwrite an existing fixture.yaml
` + appFlagsHelp,
		Usage: "fixture config [--write [--force]] [flags]",
		Run:   runConfig,
	})
}

func runConfig(args []string) error {
	fs := newFlagSet("config")
	fs.String("addr", "", "listen address")
	write := fs.Bool("write", false, "save to fixture.yaml")
	force := fs.Bool("force", false, "overwrite fixture.yaml")
	cfg, err := parse(fs, args)
	if err != nil {
		return err
	}

	if *write {
		path, err := config.Write(cfg.Root, cfg.Config, *force)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %s\n", path)
		return nil
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	if cfg.File != "" {
		fmt.Fprintf(stdout, "# from %s\n", cfg.File)
	}
	fmt.Fprint(stdout, string(data))
	return nil
}
