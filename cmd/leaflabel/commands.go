package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ironsheep/leaf-label-tools/internal/config"
	"github.com/ironsheep/leaf-label-tools/internal/imaging"
	"github.com/ironsheep/leaf-label-tools/internal/label"
	"github.com/ironsheep/leaf-label-tools/internal/logger"
	"github.com/ironsheep/leaf-label-tools/internal/segment"
	"github.com/ironsheep/leaf-label-tools/internal/server"
)

// usageError marks bad command-line input.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func isUsageError(err error) bool {
	var u usageError
	return errors.As(err, &u)
}

// app carries the resolved configuration into a command.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	params  segment.Params
	filters segment.Config
	approx  label.Approximation
	flags   *pflag.FlagSet
	stdout  io.Writer
}

func (a *app) pipeline() *segment.Pipeline {
	return segment.New(a.params, a.log, nil)
}

func (a *app) labeler() *label.Labeler {
	return label.NewLabeler(a.pipeline(), label.Encoder{Approximation: a.approx}, a.log)
}

// print writes v as indented JSON when --format json is selected, and calls
// text otherwise.
func (a *app) print(v interface{}, text func(w io.Writer)) error {
	if strings.EqualFold(a.cfg.Output.Format, "json") {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(a.stdout)
	return nil
}

type command struct {
	summary string
	usage   string
	nargs   int
	setup   func(fs *pflag.FlagSet)
	action  func(ctx context.Context, a *app, args []string) error
}

var commandOrder = []string{"segment", "label", "batch", "classes", "list", "serve"}

var commands = map[string]*command{
	"segment": {
		summary: "Run the pipeline on one image and report each stage",
		usage:   "<image>",
		nargs:   1,
		setup: func(fs *pflag.FlagSet) {
			fs.String("out", "", "write the processed image to this PNG file")
		},
		action: segmentCmd,
	},
	"label": {
		summary: "Write the polygon label of one image",
		usage:   "<image>",
		nargs:   1,
		setup: func(fs *pflag.FlagSet) {
			fs.String("class", "", "class name (default: the image's folder name)")
			fs.String("root", "", "dataset root (default: resolved from the image's folder)")
			fs.Bool("dry-run", false, "print the label without writing it")
		},
		action: labelCmd,
	},
	"batch": {
		summary: "Label every image of one class",
		usage:   "<folder>",
		nargs:   1,
		setup: func(fs *pflag.FlagSet) {
			fs.String("class", "", "class to label (default: the opened class folder)")
		},
		action: batchCmd,
	},
	"classes": {
		summary: "List class folders and their ids",
		usage:   "<folder>",
		nargs:   1,
		action:  classesCmd,
	},
	"list": {
		summary: "List the images of a dataset",
		usage:   "<folder>",
		nargs:   1,
		action:  listCmd,
	},
	"serve": {
		summary: "Serve the labeling tools over MCP on stdio",
		nargs:   0,
		action:  serveCmd,
	},
}

// run parses flags, resolves configuration and runs the command action with
// a context cancelled on SIGINT or SIGTERM.
func (c *command) run(name string, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)

	v := config.New()
	if err := config.RegisterFlags(v, fs); err != nil {
		return err
	}
	if c.setup != nil {
		c.setup(fs)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return usageError{err.Error()}
	}
	if fs.NArg() != c.nargs {
		return usageError{fmt.Sprintf("usage: leaflabel %s [options] %s", name, c.usage)}
	}

	cfgPath, _ := fs.GetString("config")
	cfg, err := config.Load(v, cfgPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	// Load has validated every derived value.
	params, _ := cfg.Params()
	filters, _ := cfg.Stages()
	approx, _ := cfg.Approximation()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.action(ctx, &app{
		cfg:     cfg,
		log:     log,
		params:  params,
		filters: filters,
		approx:  approx,
		flags:   fs,
		stdout:  stdout,
	}, fs.Args())
}

type segmentReport struct {
	Path    string               `json:"path"`
	Filters []segment.StageName  `json:"filters"`
	Width   int                  `json:"width"`
	Height  int                  `json:"height"`
	Steps   []segment.StepReport `json:"steps"`
	Mask    imaging.MaskStats    `json:"mask"`
	Saved   string               `json:"saved,omitempty"`
}

func segmentCmd(_ context.Context, a *app, args []string) error {
	res, err := a.pipeline().SegmentFile(args[0], a.filters)
	if err != nil {
		return err
	}

	report := segmentReport{
		Path:    args[0],
		Filters: a.filters.Stages(),
		Width:   res.Processed.Width(),
		Height:  res.Processed.Height(),
		Steps:   res.Steps,
		Mask:    imaging.MeasureMask(imaging.Foreground(res.Processed)),
	}
	if report.Steps == nil {
		report.Steps = []segment.StepReport{}
	}

	if out, _ := a.flags.GetString("out"); out != "" {
		if err := imaging.SavePNG(res.Processed, out); err != nil {
			return err
		}
		report.Saved = out
	}

	return a.print(report, func(w io.Writer) {
		fmt.Fprintf(w, "image    %s\n", report.Path)
		fmt.Fprintf(w, "filters  %s\n", a.filters)
		for _, s := range report.Steps {
			state := "applied"
			if !s.Applied {
				state = "skipped"
			}
			fmt.Fprintf(w, "  %-12s %-8s foreground=%d (%dms)\n", s.Stage, state, s.Foreground, s.DurationMS)
		}
		fmt.Fprintf(w, "size     %dx%d\n", report.Width, report.Height)
		fmt.Fprintf(w, "mask     %d px (%.1f%%)\n", report.Mask.Foreground, report.Mask.Coverage)
		if report.Saved != "" {
			fmt.Fprintf(w, "saved    %s\n", report.Saved)
		}
	})
}

func labelCmd(_ context.Context, a *app, args []string) error {
	path := args[0]
	class, _ := a.flags.GetString("class")
	if class == "" {
		class = imaging.ClassOf(path)
	}
	root, _ := a.flags.GetString("root")
	if root == "" {
		var err error
		if root, err = imaging.DatasetRoot(path); err != nil {
			return err
		}
	}

	req := label.LabelRequest{
		ImagePath: path,
		Root:      root,
		Class:     class,
		OutputDir: a.cfg.Output.Dir,
		Filters:   a.filters,
	}
	if dry, _ := a.flags.GetBool("dry-run"); dry {
		req.OutputDir = ""
	}

	res, err := a.labeler().LabelImage(req)
	if err != nil {
		return err
	}

	return a.print(res, func(w io.Writer) {
		fmt.Fprintln(w, res.Line)
	})
}

func batchCmd(ctx context.Context, a *app, args []string) error {
	catalog, err := imaging.OpenFolder(args[0])
	if err != nil {
		return err
	}

	class, _ := a.flags.GetString("class")
	if class == "" {
		if filepath.Clean(args[0]) == catalog.Root() {
			return usageError{"--class is required when a dataset root is given"}
		}
		class = filepath.Base(filepath.Clean(args[0]))
	}

	batcher := label.NewBatcher(a.labeler(), a.log)
	report, runErr := batcher.Run(ctx, label.BatchRequest{
		Root:      catalog.Root(),
		Class:     class,
		Paths:     catalog.Paths(),
		OutputDir: a.cfg.Output.Dir,
		Filters:   a.filters,
	})
	if report == nil {
		return runErr
	}

	if err := a.print(report, func(w io.Writer) {
		fmt.Fprintf(w, "class %s (id %d): %d images, %d written, %d skipped, %d failed\n",
			report.Class, report.ClassID, report.Total(), len(report.Written), len(report.Skipped), len(report.Failed))
		fmt.Fprintf(w, "labels in %s\n", report.OutputDir)
		for _, item := range report.Skipped {
			fmt.Fprintf(w, "  skipped %s: %s\n", item.ImagePath, item.Reason)
		}
		for _, item := range report.Failed {
			fmt.Fprintf(w, "  failed  %s: %s\n", item.ImagePath, item.Reason)
		}
	}); err != nil {
		return err
	}
	return runErr
}

type classEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func classesCmd(_ context.Context, a *app, args []string) error {
	catalog, err := imaging.OpenFolder(args[0])
	if err != nil {
		return err
	}
	classes, err := label.LoadClasses(catalog.Root())
	if err != nil {
		return err
	}

	entries := make([]classEntry, len(classes))
	for i, name := range classes {
		entries[i] = classEntry{ID: i, Name: name}
	}
	return a.print(entries, func(w io.Writer) {
		for _, e := range entries {
			fmt.Fprintf(w, "%d %s\n", e.ID, e.Name)
		}
	})
}

type listEntry struct {
	Path  string `json:"path"`
	Class string `json:"class"`
}

type listReport struct {
	Root    string      `json:"root"`
	Classes []string    `json:"classes"`
	Images  []listEntry `json:"images"`
}

func listCmd(_ context.Context, a *app, args []string) error {
	catalog, err := imaging.OpenFolder(args[0])
	if err != nil {
		return err
	}

	report := listReport{Root: catalog.Root(), Classes: catalog.Classes(), Images: []listEntry{}}
	for _, p := range catalog.Paths() {
		report.Images = append(report.Images, listEntry{Path: p, Class: imaging.ClassOf(p)})
	}
	return a.print(report, func(w io.Writer) {
		for _, e := range report.Images {
			fmt.Fprintf(w, "%-12s %s\n", e.Class, e.Path)
		}
	})
}

func serveCmd(ctx context.Context, a *app, _ []string) error {
	server.Version = Version
	a.log.Debug("main", "starting server", map[string]interface{}{
		"version": Version,
		"commit":  GitCommit,
		"built":   BuildTime,
		"filters": a.filters.String(),
	})

	srv := server.New(server.Options{
		Params:        a.params,
		Filters:       a.filters,
		Approximation: a.approx,
		OutputDir:     a.cfg.Output.Dir,
		Logger:        a.log,
	})
	return srv.Run(ctx)
}
