package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// LibraryCommand prints the persisted library without starting a session.
func LibraryCommand() *cli.Command {
	return &cli.Command{
		Name:  "library",
		Usage: "Print the persisted card library",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "ids",
				Usage: "Print card IDs only",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, _, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger, err := newLogger(c, cfg)
			if err != nil {
				return err
			}
			library, closeBackend, err := OpenLibrary(cfg.Storage, logger)
			if err != nil {
				return err
			}
			defer closeBackend()

			data, found, err := library.Load(c.Context)
			if err != nil {
				return err
			}
			if !found {
				logger.Info("no library stored", "key", library.Key())
			}
			if c.Bool("ids") {
				for _, id := range data.IDs() {
					fmt.Fprintln(c.App.Writer, id)
				}
				return nil
			}
			return writeJSON(c.App.Writer, data)
		},
	}
}

// ConfigCommand prints the effective configuration as YAML.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration",
		Action: func(c *cli.Context) error {
			_, loader, err := loadConfig(c)
			if err != nil {
				return err
			}
			out, err := loader.YAML()
			if err != nil {
				return err
			}
			_, err = c.App.Writer.Write(out)
			return err
		},
	}
}
