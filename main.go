package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/df07/go-lightsampler/cmd"
)

func newApp() *cli.App {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "lightsampler"
	app.Usage = "render scenes by light tracing with density estimation"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "log verbosity: debug, info, notice, warning or error",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a built-in scene",
			Description: `
Trace light particles from the emitters of a built-in scene, connect every
surface interaction to the orthographic eye and reconstruct the image from
the resulting screen hits by kernel density estimation.

Available scenes: cornell, caustic.`,
			ArgsUsage: "scene",
			Flags:     cmd.RenderFlags,
			Action:    cmd.RenderFrame,
		},
		{
			Name:   "kdtree",
			Usage:  "time nearest neighbour queries on random points",
			Flags:  cmd.KDTreeFlags,
			Action: cmd.KDTreeStats,
		},
		{
			Name:   "bsdf",
			Usage:  "check energy conservation and pdf normalisation of the built-in materials",
			Flags:  cmd.BSDFFlags,
			Action: cmd.BSDFStats,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
