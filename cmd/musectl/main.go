// Command musectl is a small operator CLI over the core: trigger a sync
// tick, enable/disable an extension, or list registered players. Like the
// cmd/migrate tool, it opens the same storage/library directly rather than
// speaking to a running museserver over a wire protocol (the core specifies
// none).
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/daedal00/muse/internal/aggregator"
	"github.com/daedal00/muse/internal/config"
	"github.com/daedal00/muse/internal/extension"
	"github.com/daedal00/muse/internal/library"
	"github.com/daedal00/muse/internal/storage"
	"github.com/daedal00/muse/internal/storage/postgres"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "musectl",
		Usage: "operate a Muse core instance",
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "run the sync loop's tick once, immediately",
				Action: runSyncNow,
			},
			{
				Name:  "extension",
				Usage: "enable/disable a dynamically loaded extension",
				Subcommands: []*cli.Command{
					{
						Name:      "enable",
						Usage:     "enable an extension by id",
						ArgsUsage: "<extension-id>",
						Action:    extensionSetEnabled(true),
					},
					{
						Name:      "disable",
						Usage:     "disable an extension by id",
						ArgsUsage: "<extension-id>",
						Action:    extensionSetEnabled(false),
					},
					{
						Name:   "discover",
						Usage:  "scan the configured extension directory for plugin binaries and register them",
						Action: extensionDiscover,
					},
				},
			},
			{
				Name:   "player",
				Usage:  "inspect registered players",
				Action: listPlayers,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
}

// bootstrap constructs the minimum shared wiring every subcommand needs:
// config, collection storage, the library, and an aggregator with no
// providers registered (providers are a deployment concern this tool does
// not manage). The host starts with no extensions registered: "extension
// discover" and "extension enable|disable" register the plugins found in the
// configured extension directory first. Enabled flags are written to the
// "extensions" collection by enable/disable; with the in-memory storage
// default nothing survives between invocations.
func bootstrap(ctx context.Context) (*aggregator.Aggregator, *extension.Host, storage.Opener, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	var opener storage.Opener
	switch {
	case cfg.DatabaseURL != "":
		opener, err = postgres.NewOpener(ctx, cfg.DatabaseURL)
	case cfg.RedisURL != "" && cfg.Environment != "development":
		opener, err = storage.NewRedisOpener(cfg.RedisURL)
	default:
		opener = storage.NewMemoryOpener()
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening storage: %w", err)
	}

	lib := library.NewMemStore()
	host, err := extension.NewHost(ctx, lib, opener)
	if err != nil {
		opener.Close()
		return nil, nil, nil, fmt.Errorf("constructing extension host: %w", err)
	}

	agg := aggregator.New(lib, host, nil, cfg.SyncInterval)
	return agg, host, opener, nil
}

func runSyncNow(c *cli.Context) error {
	ctx := c.Context
	agg, _, opener, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer opener.Close()

	agg.RunSyncNow(ctx)
	fmt.Fprintln(c.App.Writer, "✅ sync tick complete")
	return nil
}

func extensionSetEnabled(enabled bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		id := c.Args().First()
		if id == "" {
			return fmt.Errorf("usage: musectl extension enable|disable <extension-id>")
		}
		ctx := c.Context
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		_, host, opener, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer opener.Close()

		if cfg.ExtensionDir != "" {
			if err := host.Discover(ctx, cfg.ExtensionDir); err != nil {
				return fmt.Errorf("discovering extensions in %s: %w", cfg.ExtensionDir, err)
			}
		}
		if err := host.SetEnabled(ctx, id, enabled); err != nil {
			return fmt.Errorf("setting enabled state for %s: %w", id, err)
		}
		fmt.Fprintf(c.App.Writer, "✅ extension %s enabled=%t\n", id, enabled)
		return nil
	}
}

func extensionDiscover(c *cli.Context) error {
	ctx := c.Context
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if cfg.ExtensionDir == "" {
		return fmt.Errorf("no extension_dir configured")
	}

	_, host, opener, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer opener.Close()

	if err := host.Discover(ctx, cfg.ExtensionDir); err != nil {
		return fmt.Errorf("discovering extensions in %s: %w", cfg.ExtensionDir, err)
	}
	fmt.Fprintf(c.App.Writer, "✅ discovery complete, %d extension(s) enabled\n", len(host.Enabled()))
	return nil
}

func listPlayers(c *cli.Context) error {
	ctx := c.Context
	agg, _, opener, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer opener.Close()

	names := agg.Players()
	if len(names) == 0 {
		fmt.Fprintln(c.App.Writer, "no players registered")
		return nil
	}
	for _, n := range names {
		fmt.Fprintln(c.App.Writer, n)
	}
	return nil
}
