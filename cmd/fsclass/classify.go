package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/CageChen/fsclass/internal/classify"
)

func newEntryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "entry PATH...",
		Short: "Print the classified entry of each path as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(b *classify.Builder, out *json.Encoder) error {
				for _, p := range args {
					var e classify.Entry
					if opts.strict {
						var err error
						if e, err = b.Stat(p); err != nil {
							return err
						}
					} else {
						e = b.Entry(p)
					}
					if err := out.Encode(e); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "ls PATH",
		Aliases: []string{"list"},
		Short:   "Print the classified children of a directory as JSON",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(b *classify.Builder, out *json.Encoder) error {
				var l classify.Listing
				if opts.strict {
					var err error
					if l, err = b.List(args[0]); err != nil {
						return err
					}
				} else {
					l = b.ListOrEmpty(args[0])
				}
				return out.Encode(l)
			})
		},
	}
}

// run sets up config, logging and a builder, then hands them to fn.
func (o *options) run(cmd *cobra.Command, fn func(*classify.Builder, *json.Encoder) error) error {
	cfg, err := o.load()
	if err != nil {
		return err
	}
	log, err := o.logger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	b, err := o.builder(cfg, log)
	if err != nil {
		return err
	}
	return fn(b, newEncoder(cmd.OutOrStdout()))
}

func newEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}
