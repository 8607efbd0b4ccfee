// mappak packs replacement world-map textures into a .pak archive the
// game loads as a mod.
//
// Usage:
//
//	mappak bc7 -o OUT.pak [--compress] NAME=FILE...
//	mappak images -o OUT.pak [--compress] NAME=IMAGE...
//	mappak folder -o OUT.pak [--compress] DIR
//	mappak names
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/mappak/pkg/config"
	"github.com/user/mappak/pkg/texpak"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "mappak",
		Short:         "Pack world-map textures into a .pak archive",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default $"+config.EnvVar+", then built-in defaults)")
	pf.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newBC7Command(g),
		newImagesCommand(g),
		newFolderCommand(g),
		newNamesCommand(g),
	)
	return root
}

// newLogger builds the stderr logger selected by the global flags.
func (g *globalFlags) newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", g.logLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(g.logFormat) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (want text or json)", g.logFormat)
	}
}

// packer loads configuration and resources for a subcommand.
func (g *globalFlags) packer(cmd *cobra.Command) (*texpak.Packer, *slog.Logger, error) {
	logger, err := g.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	p, err := texpak.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, logger, nil
}
