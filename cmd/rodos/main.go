package main

import (
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/aligator/rodos"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:    "rodos",
		Usage:   "A FAT-style virtual disk with an interactive shell",
		Version: "0.1.0",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the TOML config file",
				Value:   "rodos.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log engine details to stderr",
			},
		},

		Action: run,

		Commands: []*cli.Command{
			{
				Name:  "format",
				Usage: "format the disk image without entering the shell",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  "width",
						Usage: "allocation table width (16 or 32)",
						Value: 16,
					},
				},
				Action: func(c *cli.Context) error {
					config, err := loadConfig(c.String("config"))
					if err != nil {
						return err
					}

					disk, err := rodos.New(afero.NewOsFs(), config.ImagePath,
						config.ClusterSize, config.ClusterCount, uint8(c.Uint("width")))
					if err != nil {
						return err
					}
					return disk.Save()
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	config, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	fsys := afero.NewOsFs()

	disk, err := rodos.Open(fsys, config.ImagePath, rodos.WithLogger(logger))
	if errors.Is(err, rodos.ErrInvalidImage) || errors.Is(err, os.ErrNotExist) {
		// No usable image yet, boot a freshly formatted one.
		disk, err = rodos.New(fsys, config.ImagePath,
			config.ClusterSize, config.ClusterCount, config.TableWidth,
			rodos.WithLogger(logger))
		if err == nil {
			err = disk.Save()
		}
	}
	if err != nil {
		return err
	}

	s := &shell{
		disk:   disk,
		fsys:   fsys,
		config: config,
		out:    os.Stdout,
	}
	return s.run(os.Stdin)
}
