package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/dagaz/internal"
	"github.com/starford/dagaz/internal/editor"
	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/mcpserver"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/render"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/temporal"
	"github.com/starford/dagaz/internal/tracker"
	pkgconfig "github.com/starford/dagaz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err == nil {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// core bundles the pieces every record command needs.
type core struct {
	cfg   *internal.Config
	store storage.Provider
	p     *parser.Parser
	svc   *tracker.Service
}

func buildCore(cmd *cli.Command) (*core, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewFS(cfg.Data.Path)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Data.Location()
	if err != nil {
		return nil, err
	}
	p := parser.New(temporal.NewResolver(loc), nil)
	return &core{
		cfg:   cfg,
		store: store,
		p:     p,
		svc:   tracker.New(store, p, nil),
	}, nil
}

func (c *core) now() temporal.Value {
	return temporal.NewTimestamp(time.Now().In(c.p.Resolver().Location()))
}

// openIndex opens the SQLite index and brings it up to date.
func (c *core) openIndex(logger *slog.Logger) (*index.DB, error) {
	db, err := index.Open(c.cfg.SQLite.Path)
	if err != nil {
		return nil, err
	}
	if err := index.Sync(db, c.store, c.p, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func printFailures(failures []tracker.ParseFailure) {
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", f.Path, f.Err)
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List relevant records",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Filter by record type"},
			&cli.StringFlag{Name: "tag", Usage: "Filter by tag"},
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "Include completed and no-longer-relevant records"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := buildCore(cmd)
			if err != nil {
				return err
			}

			f := tracker.Filter{Tag: cmd.String("tag"), ShowAll: cmd.Bool("all")}
			if t := cmd.String("type"); t != "" {
				typ, err := models.ParseType(t)
				if err != nil {
					return err
				}
				f.Types = []models.Type{typ}
			}

			records, failures, err := c.svc.List(ctx, f)
			if err != nil {
				return err
			}
			printFailures(failures)
			return render.Table(os.Stdout, records, c.now())
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a record by identifier",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("usage: show <id>")
			}
			c, err := buildCore(cmd)
			if err != nil {
				return err
			}
			rec, err := c.svc.Find(ctx, id)
			if err != nil {
				return err
			}
			return render.Detail(os.Stdout, rec)
		},
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create a record from a template in $EDITOR",
		ArgsUsage: "<type>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			typ, err := models.ParseType(cmd.Args().First())
			if err != nil {
				return err
			}
			c, err := buildCore(cmd)
			if err != nil {
				return err
			}
			path, err := c.svc.Create(ctx, typ, editor.Open)
			if errors.Is(err, tracker.ErrNoChanges) {
				fmt.Println("aborted: no changes made")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("created %s (%s)\n", path, parser.Identifier(path))
			return nil
		},
	}
}

func completeCommand() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Usage:     "Mark a record as completed",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("usage: complete <id>")
			}
			c, err := buildCore(cmd)
			if err != nil {
				return err
			}
			rec, err := c.svc.Complete(ctx, id)
			if err != nil {
				return err
			}
			return render.Detail(os.Stdout, rec)
		},
	}
}

func pushCommand() *cli.Command {
	return &cli.Command{
		Name:      "push",
		Usage:     "Push a record's due date; the expression resolves relative to today",
		ArgsUsage: "<id> <expression>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().Get(0)
			expr := cmd.Args().Get(1)
			if id == "" || expr == "" {
				return fmt.Errorf("usage: push <id> <expression>")
			}
			c, err := buildCore(cmd)
			if err != nil {
				return err
			}
			rec, err := c.svc.PushDue(ctx, id, expr)
			if err != nil {
				return err
			}
			return render.Detail(os.Stdout, rec)
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search through records",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Max results", Value: 20},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := cmd.Args().First()
			if query == "" {
				return fmt.Errorf("usage: search <query>")
			}
			c, err := buildCore(cmd)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			db, err := c.openIndex(logger)
			if err != nil {
				return err
			}
			defer db.Close()

			results, err := db.Search(query, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Printf("%s\t%s\t%s\n", r.Path, r.Event, r.Snippet)
			}
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server with SSE updates and a filesystem watcher",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return internal.Run(ctx, internal.WithConfig(cfg))
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio for LLM integration",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := buildCore(cmd)
			if err != nil {
				return err
			}

			// Stdout belongs to the MCP transport; log to stderr only.
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
			db, err := c.openIndex(logger)
			if err != nil {
				return err
			}
			defer db.Close()

			return mcpserver.New(c.store, db, c.svc, c.p).ServeStdio()
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "dagaz",
		Usage: "Plain-file tracker for tasks, predictions, and notes with humane date expressions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			listCommand(),
			showCommand(),
			newCommand(),
			completeCommand(),
			pushCommand(),
			searchCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
