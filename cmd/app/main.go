package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	"github.com/starford/ansuz/internal/graphsvc"
	"github.com/starford/ansuz/internal/journal"
	"github.com/starford/ansuz/internal/mcpserver"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadApp(cmd *cli.Command) (*internal.App, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return internal.NewApp(internal.WithConfig(cfg))
}

func withApp(fn func(ctx context.Context, cmd *cli.Command, app *internal.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(ctx, cmd, app)
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runImport(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: import <file>")
	}
	started := time.Now().UTC()
	res, err := app.Service.ImportFile(ctx, path)
	if err != nil {
		return err
	}
	recordRun(app, journal.KindImport, path, started, res)
	if err := printJSON(res); err != nil {
		return err
	}
	return res.Report.Err()
}

func runAdd(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	text := strings.Join(cmd.Args().Slice(), " ")
	started := time.Now().UTC()
	report, err := app.Service.AddBlocks(ctx, cmd.String("page"), cmd.String("parent"), text)
	if err != nil {
		return err
	}
	recordJournal(app, journal.Run{
		Kind:       journal.KindAdd,
		PageTitle:  cmd.String("page"),
		Source:     text,
		Created:    report.Created,
		Failed:     report.Failed,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	})
	fmt.Printf("created %d block(s), %d failed\n", report.Created, report.Failed)
	return report.Err()
}

func runGet(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	page := cmd.Args().First()
	if page == "" {
		page = "today"
	}
	out, err := app.Service.GetPage(ctx, page, cmd.String("format"), cmd.String("prefix"))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runDaily(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	if cmd.Args().Len() == 0 {
		out, err := app.Service.GetPage(ctx, "today", graphsvc.FormatMarkdown, cmd.String("prefix"))
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}
	text := strings.Join(cmd.Args().Slice(), " ")
	started := time.Now().UTC()
	report, err := app.Service.AddBlocks(ctx, "", cmd.String("parent"), text)
	if err != nil {
		return err
	}
	recordJournal(app, journal.Run{
		Kind:       journal.KindAdd,
		Source:     text,
		Created:    report.Created,
		Failed:     report.Failed,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	})
	fmt.Printf("created %d block(s), %d failed\n", report.Created, report.Failed)
	return report.Err()
}

func runSearch(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	titles, err := app.Service.SearchPages(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	for _, t := range titles {
		fmt.Println(t)
	}
	return nil
}

func runReferences(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	refs, err := app.Service.PageReferences(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	for _, r := range refs {
		fmt.Println(r)
	}
	return nil
}

func runLink(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	started := time.Now().UTC()
	res, err := app.Service.LinkRecord(ctx, graphsvc.LinkRequest{
		PageTitle:    cmd.String("page"),
		RecordName:   cmd.String("name"),
		RecordLink:   cmd.String("link"),
		DatabaseName: cmd.String("db-name"),
		DatabaseLink: cmd.String("db-link"),
		LinkType:     cmd.String("type"),
		Comment:      cmd.String("comment"),
		SubComment:   cmd.String("sub-comment"),
	})
	if err != nil {
		return err
	}
	recordJournal(app, journal.Run{
		Kind:       journal.KindLink,
		PageTitle:  cmd.String("page"),
		PageUID:    res.PageUID,
		Source:     cmd.String("link"),
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	})
	return printJSON(res)
}

func runHistory(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	runs, err := app.Journal.Recent(int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	for _, r := range runs {
		status := "ok"
		if r.Error != "" {
			status = "error: " + r.Error
		}
		fmt.Printf("%s  %-6s  %-30s  created=%d failed=%d  %s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.Kind, r.PageTitle, r.Created, r.Failed, status)
	}
	return nil
}

func recordRun(app *internal.App, kind, source string, started time.Time, res *graphsvc.ImportResult) {
	run := journal.Run{
		Kind:       kind,
		Source:     source,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	if res != nil {
		run.PageTitle = res.PageTitle
		run.PageUID = res.PageUID
		run.Created = res.Report.Created
		run.Failed = res.Report.Failed
	}
	recordJournal(app, run)
}

// recordJournal is best effort; a journal failure never fails the command.
func recordJournal(app *internal.App, run journal.Run) {
	if err := app.Journal.Record(run); err != nil {
		app.Logger.Warn("journal write failed", slog.String("error", err.Error()))
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "ansuz",
		Usage: "Import markdown into a Roam Research graph as nested blocks",
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
			{
				Name:      "import",
				Usage:     "Import a markdown or JSON file as a page of nested blocks",
				ArgsUsage: "<file>",
				Action:    withApp(runImport),
			},
			{
				Name:      "add",
				Usage:     "Append text blocks to a page (today's daily note by default)",
				ArgsUsage: "<text...>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "page", Aliases: []string{"p"}, Usage: "Page title, YYYY-MM-DD date, or block UID"},
					&cli.StringFlag{Name: "parent", Usage: "Anchor block content to nest under"},
				},
				Action: withApp(runAdd),
			},
			{
				Name:      "get",
				Usage:     "Print a page's block tree",
				ArgsUsage: "[page|today|yesterday|lastweek|YYYY-MM-DD]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: graphsvc.FormatMarkdown, Usage: "Output format: markdown or json"},
					&cli.StringFlag{Name: "prefix", Usage: "Prefix for every markdown line"},
				},
				Action: withApp(runGet),
			},
			{
				Name:      "daily",
				Usage:     "Print today's daily note, or append text to it",
				ArgsUsage: "[text...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "parent", Usage: "Anchor block content to nest under"},
					&cli.StringFlag{Name: "prefix", Usage: "Prefix for every markdown line when printing"},
				},
				Action: withApp(runDaily),
			},
			{
				Name:      "search",
				Usage:     "Search page titles by substring",
				ArgsUsage: "<query>",
				Action:    withApp(runSearch),
			},
			{
				Name:      "references",
				Usage:     "List pages that reference a page",
				ArgsUsage: "<page>",
				Action:    withApp(runReferences),
			},
			{
				Name:  "link",
				Usage: "Link an external record into the graph",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "page", Required: true, Usage: "Topic page title"},
					&cli.StringFlag{Name: "name", Required: true, Usage: "Record display name"},
					&cli.StringFlag{Name: "link", Required: true, Usage: "Record URL"},
					&cli.StringFlag{Name: "db-name", Usage: "Database display name"},
					&cli.StringFlag{Name: "db-link", Usage: "Database URL"},
					&cli.StringFlag{Name: "type", Value: graphsvc.LinkTypeLog, Usage: "Topic page anchor: log or ref"},
					&cli.StringFlag{Name: "comment", Usage: "Comment appended to the link block"},
					&cli.StringFlag{Name: "sub-comment", Usage: "Comment nested under the link block"},
				},
				Action: withApp(runLink),
			},
			{
				Name:  "history",
				Usage: "Show recent runs from the journal",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "Number of runs to show"},
				},
				Action: withApp(runHistory),
			},
			{
				Name:  "watch",
				Usage: "Watch a drop directory and import files as they arrive",
				Action: withApp(func(ctx context.Context, _ *cli.Command, app *internal.App) error {
					return app.RunWatch(ctx)
				}),
			},
			{
				Name:  "mcp",
				Usage: "Serve graph tools over the Model Context Protocol on stdio",
				Action: withApp(func(_ context.Context, _ *cli.Command, app *internal.App) error {
					return mcpserver.New(app.Service).ServeStdio()
				}),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
