package main

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/user/mappak/pkg/imageload"
	"github.com/user/mappak/pkg/payload"
)

// packFlags are the output options shared by the pack subcommands.
type packFlags struct {
	output   string
	compress bool
}

func (o *packFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.output, "output", "o", "", "archive to write (required)")
	fs.BoolVarP(&o.compress, "compress", "c", false, "zlib-compress record data in 64KB blocks")
}

func (o *packFlags) validate() error {
	if o.output == "" {
		return errors.New("--output is required")
	}
	return nil
}

// parsePairs splits NAME=PATH arguments.
func parsePairs(args []string) (map[string]string, error) {
	pairs := make(map[string]string, len(args))
	for _, arg := range args {
		name, path, ok := strings.Cut(arg, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("argument %q is not NAME=PATH", arg)
		}
		if _, dup := pairs[name]; dup {
			return nil, fmt.Errorf("map %s given more than once", name)
		}
		pairs[name] = path
	}
	return pairs, nil
}

func newBC7Command(g *globalFlags) *cobra.Command {
	o := &packFlags{}
	cmd := &cobra.Command{
		Use:   "bc7 -o OUT.pak NAME=FILE...",
		Short: "Pack BC7 payload files (raw, .dds, .lz4 or .zst)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(); err != nil {
				return err
			}
			pairs, err := parsePairs(args)
			if err != nil {
				return err
			}
			p, logger, err := g.packer(cmd)
			if err != nil {
				return err
			}
			textures := make(map[string][]byte, len(pairs))
			for name, path := range pairs {
				data, err := payload.ReadFile(path)
				if err != nil {
					return err
				}
				logger.Debug("read payload", "name", name, "path", path, "size", len(data))
				textures[name] = data
			}
			return p.PackBC7(cmd.Context(), o.output, o.compress, textures)
		},
	}
	o.register(cmd.Flags())
	return cmd
}

func newImagesCommand(g *globalFlags) *cobra.Command {
	o := &packFlags{}
	cmd := &cobra.Command{
		Use:   "images -o OUT.pak NAME=IMAGE...",
		Short: "Encode images to BC7 and pack them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(); err != nil {
				return err
			}
			pairs, err := parsePairs(args)
			if err != nil {
				return err
			}
			p, _, err := g.packer(cmd)
			if err != nil {
				return err
			}
			images := make(map[string]*image.RGBA, len(pairs))
			for name, path := range pairs {
				img, err := imageload.Decode(path)
				if err != nil {
					return err
				}
				images[name] = imageload.ToRGBA(img)
			}
			return p.PackPixels(cmd.Context(), o.output, o.compress, images)
		},
	}
	o.register(cmd.Flags())
	return cmd
}

func newFolderCommand(g *globalFlags) *cobra.Command {
	o := &packFlags{}
	cmd := &cobra.Command{
		Use:   "folder -o OUT.pak DIR",
		Short: "Encode every image in a folder (file name = map name) and pack them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.validate(); err != nil {
				return err
			}
			p, _, err := g.packer(cmd)
			if err != nil {
				return err
			}
			return p.PackFolder(cmd.Context(), o.output, o.compress, args[0])
		},
	}
	o.register(cmd.Flags())
	return cmd
}

func newNamesCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List the map names that have header templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := g.packer(cmd)
			if err != nil {
				return err
			}
			for _, name := range p.Catalog().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
