package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipnext/internal/clip"
	"go.klb.dev/clipnext/internal/grpcservice"
	"go.klb.dev/clipnext/internal/service"
)

type clientFunc func(ctx context.Context, out io.Writer, c *grpcservice.Client) error

// newSimpleCmd builds an argument-less client command.
func newSimpleCmd(use, short string, run clientFunc) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), v, func(ctx context.Context, c *grpcservice.Client) error {
				return run(ctx, cmd.OutOrStdout(), c)
			})
		},
	}
	addClientFlags(cmd)
	return cmd
}

func runStartWatch(ctx context.Context, _ io.Writer, c *grpcservice.Client) error {
	return c.StartWatch(ctx)
}

func runStopWatch(ctx context.Context, _ io.Writer, c *grpcservice.Client) error {
	return c.StopWatch(ctx)
}

func runClear(ctx context.Context, _ io.Writer, c *grpcservice.Client) error {
	return c.Clear(ctx)
}

func runFilePath(ctx context.Context, out io.Writer, c *grpcservice.Client) error {
	dir, err := c.GetFilePath(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, dir)
	return err
}

// formatNames is the completion list for format arguments.
func formatNames() []string {
	names := make([]string, len(clip.Formats))
	for i, f := range clip.Formats {
		names[i] = f.String()
	}
	return names
}

// completeFormat completes the leading format argument and falls back to
// file names after it.
func completeFormat(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return formatNames(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveDefault
}

func newHasCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "has <text|rtf|html|image|files>",
		Short: "Report whether the clipboard holds a format",
		Long: `Prints true or false. Exits 0 either way; errors reaching the service
exit non-zero.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: formatNames(),
		PreRunE:   func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := clip.ParseFormat(args[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), v, func(ctx context.Context, c *grpcservice.Client) error {
				has, err := hasFormat(ctx, c, f)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), has)
				return err
			})
		},
	}
	addClientFlags(cmd)
	return cmd
}

func hasFormat(ctx context.Context, c *grpcservice.Client, f clip.Format) (bool, error) {
	switch f {
	case clip.FormatText:
		return c.HasText(ctx)
	case clip.FormatRTF:
		return c.HasRTF(ctx)
	case clip.FormatHTML:
		return c.HasHTML(ctx)
	case clip.FormatImage:
		return c.HasImage(ctx)
	case clip.FormatFiles:
		return c.HasFiles(ctx)
	}
	return false, fmt.Errorf("unsupported format %s", f)
}

func newReadCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "read <text|rtf|html|image|files>",
		Short: "Print one clipboard format",
		Long: `Text formats are printed as-is. For images the clipboard image is cached
as PNG (under --save-path, or the service's cache directory) and its path,
dimensions and size are printed as JSON. File lists are printed as JSON with
per-file sizes.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: formatNames(),
		PreRunE:   func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := clip.ParseFormat(args[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), v, func(ctx context.Context, c *grpcservice.Client) error {
				return readFormat(ctx, cmd.OutOrStdout(), c, f, v.GetString("save-path"))
			})
		},
	}
	cmd.Flags().String("save-path", "", "directory to cache images in")
	addClientFlags(cmd)
	return cmd
}

func readFormat(ctx context.Context, out io.Writer, c *grpcservice.Client, f clip.Format, savePath string) error {
	var (
		text string
		err  error
	)
	switch f {
	case clip.FormatText:
		text, err = c.ReadText(ctx)
	case clip.FormatRTF:
		text, err = c.ReadRTF(ctx)
	case clip.FormatHTML:
		text, err = c.ReadHTML(ctx)
	case clip.FormatImage:
		img, err := c.ReadImage(ctx, savePath)
		if err != nil {
			return err
		}
		return printJSON(out, img)
	case clip.FormatFiles:
		files, err := c.ReadFiles(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, files)
	default:
		return fmt.Errorf("unsupported format %s", f)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, text)
	return err
}

func newWriteCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "write <text|rtf|html|image|files> [content | path...]",
		Short: "Replace the clipboard with one format",
		Long: `text, rtf and html take the content as arguments (joined with spaces) or,
when none are given, from stdin. rtf and html also set the same string as
plain text. image takes one image file (PNG, JPEG, GIF, BMP, TIFF or WebP).
files takes one or more paths, made absolute before they are sent.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeFormat,
		PreRunE:           func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := clip.ParseFormat(args[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), v, func(ctx context.Context, c *grpcservice.Client) error {
				return writeFormat(ctx, cmd.InOrStdin(), c, f, args[1:])
			})
		},
	}
	addClientFlags(cmd)
	return cmd
}

func writeFormat(ctx context.Context, in io.Reader, c *grpcservice.Client, f clip.Format, args []string) error {
	switch f {
	case clip.FormatText, clip.FormatRTF, clip.FormatHTML:
		content, err := contentArg(in, args)
		if err != nil {
			return err
		}
		switch f {
		case clip.FormatRTF:
			return c.WriteRTF(ctx, content)
		case clip.FormatHTML:
			return c.WriteHTML(ctx, content)
		default:
			return c.WriteText(ctx, content)
		}
	case clip.FormatImage:
		if len(args) != 1 {
			return errors.New("write image takes exactly one file")
		}
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		return c.WriteImage(ctx, path)
	case clip.FormatFiles:
		if len(args) == 0 {
			return errors.New("write files needs at least one path")
		}
		paths := make([]string, len(args))
		for i, a := range args {
			p, err := filepath.Abs(a)
			if err != nil {
				return err
			}
			paths[i] = p
		}
		return c.WriteFiles(ctx, paths)
	}
	return fmt.Errorf("unsupported format %s", f)
}

func contentArg(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func newSnapshotCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:     "snapshot",
		Short:   "Print every clipboard format present as JSON",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), v, func(ctx context.Context, c *grpcservice.Client) error {
				snap, err := c.ReadClipboard(ctx, snapshotOptions(v))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), snap)
			})
		},
	}
	addSnapshotFlags(cmd)
	addClientFlags(cmd)
	return cmd
}

func addSnapshotFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("image-auto-save", false, "cache and include the clipboard image")
	cmd.Flags().String("file-path", "", "directory to cache images in")
}

func snapshotOptions(v *viper.Viper) service.SnapshotOptions {
	return service.SnapshotOptions{
		ImageAutoSave: v.GetBool("image-auto-save"),
		FilePath:      v.GetString("file-path"),
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
