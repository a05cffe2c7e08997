package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"github.com/bodgit/timelapser"
	"github.com/bodgit/timelapser/api"
	"github.com/urfave/cli/v2"
)

const (
	defaultOutput = "frame"
	defaultPrefix = "t"

	captureUsage = "startX_startY endX_endY canvasId website [no_compare] [timestamp]"
)

var errUsage = errors.New("usage")

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

type target struct {
	region  image.Rectangle
	canvas  int
	website string
}

// parseTarget reads the startX_startY endX_endY canvasId website arguments
func parseTarget(args []string) (target, error) {
	if len(args) < 4 {
		return target{}, errUsage
	}

	r, err := timelapser.ParseRegion(args[0], args[1])
	if err != nil {
		return target{}, err
	}

	canvas, err := strconv.Atoi(args[2])
	if err != nil {
		return target{}, fmt.Errorf("invalid canvas id %q", args[2])
	}

	return target{
		region:  r,
		canvas:  canvas,
		website: args[3],
	}, nil
}

type captureArgs struct {
	target
	compare   bool
	timestamp bool
}

// parseCaptureArgs reads the target followed by any of the words no_compare
// and timestamp, in any order
func parseCaptureArgs(args []string) (captureArgs, error) {
	t, err := parseTarget(args)
	if err != nil {
		return captureArgs{}, err
	}

	ca := captureArgs{
		target:  t,
		compare: true,
	}

	for _, arg := range args[4:] {
		switch strings.ToLower(arg) {
		case "no_compare":
			ca.compare = false
		case "timestamp":
			ca.timestamp = true
		default:
			return captureArgs{}, fmt.Errorf("unknown argument %q", arg)
		}
	}

	return ca, nil
}

var coordinate = regexp.MustCompile(`^-?\d+_-?\d+$`)

// terminateFlags inserts "--" before the first coordinate argument so that
// negative coordinates are not parsed as flags
func terminateFlags(args []string) []string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if coordinate.MatchString(arg) {
			out := make([]string, 0, len(args)+1)
			out = append(out, args[:i]...)
			out = append(out, "--")
			return append(out, args[i:]...)
		}
	}
	return args
}

func usage(c *cli.Context, err error) {
	if err != errUsage {
		fmt.Fprintln(c.App.ErrWriter, err)
	}
	cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
}

func appUsage(c *cli.Context, err error) {
	if err != errUsage {
		fmt.Fprintln(c.App.ErrWriter, err)
	}
	cli.ShowAppHelpAndExit(c, 1)
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func newTimelapser(c *cli.Context, t target, config timelapser.Config, logger *log.Logger) (*timelapser.Timelapser, error) {
	config.Workers = c.Int("workers")
	client := api.New(t.website, api.WithMaxConns(config.Workers))

	if db := c.String("db"); db != "" {
		cat, err := timelapser.OpenCatalog(db)
		if err != nil {
			return nil, err
		}
		config.Catalog = cat
	}

	tl, err := timelapser.New(client, t.canvas, config, logger)
	if err != nil {
		if config.Catalog != nil {
			config.Catalog.Close()
		}
		return nil, err
	}

	return tl, nil
}

func capture(c *cli.Context, fail func(error)) error {
	ca, err := parseCaptureArgs(c.Args().Slice())
	if err != nil {
		fail(err)
	}

	config := timelapser.DefaultConfig()
	config.OutputDir = c.String("output")
	config.Pause = c.Duration("pause")
	config.Verbose = c.Bool("verbose")
	config.Compare = ca.compare
	config.Timestamp = ca.timestamp

	// Frame progress is always shown
	logger := log.New(os.Stderr, "", log.LstdFlags)

	tl, err := newTimelapser(c, ca.target, config, logger)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer tl.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tl.Run(ctx, ca.region); err != nil {
		return cli.NewExitError(err, 1)
	}

	if ctx.Err() != nil {
		logger.Println("Terminated by user.")
	}

	return nil
}

func captureFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			EnvVars: []string{"TIMELAPSER_OUTPUT"},
			Value:   defaultOutput,
			Usage:   "directory frames are written to",
		},
		&cli.DurationFlag{
			Name:  "pause",
			Value: timelapser.DefaultConfig().Pause,
			Usage: "pause between captures",
		},
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "timelapser"
	app.Usage = "pixelplanet canvas timelapse utility"
	app.Version = "1.0.0"
	app.ErrWriter = os.Stderr

	app.ArgsUsage = captureUsage

	app.Flags = append([]cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"TIMELAPSER_DB"},
			Usage:   "path to optional frame catalog database",
		},
		&cli.IntFlag{
			Name:  "workers",
			Value: api.DefaultMaxConns,
			Usage: "maximum number of tiles fetched at once",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}, captureFlags()...)

	// Without a command the arguments are those of capture
	app.Action = func(c *cli.Context) error {
		if c.NArg() < 4 {
			cli.ShowAppHelpAndExit(c, 1)
		}
		return capture(c, func(err error) {
			appUsage(c, err)
		})
	}

	app.CommandNotFound = func(c *cli.Context, command string) {
		fmt.Fprintf(c.App.ErrWriter, "unknown command %q\n", command)
		cli.ShowAppHelpAndExit(c, 1)
	}

	app.Commands = []*cli.Command{
		{
			Name:        "capture",
			Usage:       "Capture a region repeatedly into numbered frames",
			Description: "Use the R key on the canvas to copy coordinates. Add \"no_compare\" to always save frames and \"timestamp\" to add a timestamp to each frame.",
			ArgsUsage:   captureUsage,
			Flags:       captureFlags(),
			Action: func(c *cli.Context) error {
				return capture(c, func(err error) {
					usage(c, err)
				})
			},
		},
		{
			Name:      "snapshot",
			Usage:     "Capture a region once into a single image",
			ArgsUsage: "startX_startY endX_endY canvasId website FILE [timestamp]",
			Action: func(c *cli.Context) error {
				t, err := parseTarget(c.Args().Slice())
				if err != nil {
					usage(c, err)
				}
				if c.NArg() < 5 {
					usage(c, errUsage)
				}

				config := timelapser.DefaultConfig()
				config.Verbose = c.Bool("verbose")
				for _, arg := range c.Args().Slice()[5:] {
					if strings.ToLower(arg) != "timestamp" {
						usage(c, fmt.Errorf("unknown argument %q", arg))
					}
					config.Timestamp = true
				}

				logger := newLogger(c)

				tl, err := newTimelapser(c, t, config, logger)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer tl.Close()

				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				if err := tl.Init(ctx); err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := tl.Snapshot(ctx, t.region, c.Args().Get(4)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "canvases",
			Usage:     "List the canvases of a website",
			ArgsUsage: "[website]",
			Action: func(c *cli.Context) error {
				website := api.DefaultWebsite
				if c.NArg() > 0 {
					website = c.Args().First()
				}

				w := c.App.Writer

				canvases, err := timelapser.ListCanvases(context.Background(), api.New(website))
				switch {
				case errors.Is(err, timelapser.ErrNoCanvases):
					fmt.Fprintln(w, "No canvases found.")
					return nil
				case err != nil:
					return cli.NewExitError(err, 1)
				}

				fmt.Fprintln(w, "Canvases:")
				for _, canvas := range canvases {
					fmt.Fprintf(w, "  ID: %d  Title: %s\n", canvas.ID, canvas.Title)
				}

				return nil
			},
		},
		{
			Name:      "assemble",
			Usage:     "Join captured frames into an animation",
			ArgsUsage: "DIRECTORY FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "format",
					Value: "gif",
					Usage: "animation format, gif or apng",
				},
				&cli.IntFlag{
					Name:  "delay",
					Value: 10,
					Usage: "delay per frame in hundredths of a second",
				},
				&cli.IntFlag{
					Name:  "scale",
					Value: 1,
					Usage: "integer upscaling factor",
				},
				&cli.StringFlag{
					Name:  "prefix",
					Value: defaultPrefix,
					Usage: "frame filename prefix",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					usage(c, errUsage)
				}

				format, err := timelapser.ParseFormat(c.String("format"))
				if err != nil {
					usage(c, err)
				}

				logger := newLogger(c)

				files, err := timelapser.Collect(c.Args().Get(0), c.String("prefix"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				logger.Printf("Assembling %d frames\n", len(files))

				f, err := os.Create(c.Args().Get(1))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				if err := timelapser.Assemble(f, files, timelapser.Animation{
					Format: format,
					Delay:  c.Int("delay"),
					Scale:  c.Int("scale"),
				}); err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := f.Close(); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "history",
			Usage: "List the runs and frames recorded in the catalog",
			Action: func(c *cli.Context) error {
				db := c.String("db")
				if db == "" {
					usage(c, errors.New("--db is required"))
				}

				cat, err := timelapser.OpenCatalog(db)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer cat.Close()

				runs, err := cat.Runs()
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				w := c.App.Writer
				for _, r := range runs {
					frames, err := cat.Frames(r.ID)
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					fmt.Fprintf(w, "%d: %s canvas %d %d_%d %d_%d, %d frames in %s, started %s\n", r.ID, r.Website, r.Canvas, r.Region.Min.X, r.Region.Min.Y, r.Region.Max.X, r.Region.Max.Y, len(frames), r.Directory, r.StartedAt.Local().Format("2006-01-02 15:04:05"))
				}

				return nil
			},
		},
	}

	if err := app.Run(terminateFlags(os.Args)); err != nil {
		log.Fatal(err)
	}
}
