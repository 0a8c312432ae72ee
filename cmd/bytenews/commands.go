package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pders01/bytenews/internal/api"
	"github.com/pders01/bytenews/internal/audio"
	"github.com/pders01/bytenews/internal/config"
	"github.com/pders01/bytenews/internal/media"
	"github.com/pders01/bytenews/internal/scheduler"
	"github.com/pders01/bytenews/internal/storage"
	"github.com/pders01/bytenews/internal/tui"
)

var (
	scrapeSource string

	serveAddr       string
	serveNoSchedule bool

	listAll      bool
	listCategory string
	listLimit    int

	showStyle string

	playAudio bool

	searchLimit int
)

func addCommands(root *cobra.Command) {
	scrapeCmd.Flags().StringVar(&scrapeSource, "source", "", "Scrape only the configured source with this name")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveNoSchedule, "no-schedule", false, "Do not scrape on a schedule")

	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include articles awaiting approval")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Only articles in this category")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of articles")

	showCmd.Flags().StringVar(&showStyle, "style", "auto", "Glamour style: auto, dark, light, notty")

	audioCmd.Flags().BoolVarP(&playAudio, "play", "p", false, "Play the audio after generating it")

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of results")

	root.AddCommand(scrapeCmd, serveCmd, listCmd, showCmd, summarizeCmd, audioCmd,
		approveCmd, feedbackCmd, searchCmd, reindexCmd)
}

// withApp loads the configuration, prints the banner and runs fn with a
// wired app that is closed afterwards.
func withApp(cmd *cobra.Command, withAudio bool, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !quiet {
		tui.ShowBanner(cmd.OutOrStdout(), Version)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg, withAudio)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func parseID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid article id %q", arg)
	}
	return id, nil
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch the configured feeds and store new articles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, false, func(ctx context.Context, a *app) error {
			if scrapeSource == "" {
				tui.ScrapeReport(cmd.OutOrStdout(), a.manager.Scrape(ctx))
				return nil
			}

			source, ok := findSource(a.cfg.Sources, scrapeSource)
			if !ok {
				return fmt.Errorf("no configured source named %q", scrapeSource)
			}
			category := a.cfg.Feed.DefaultCategory
			if category == "" {
				category = "General"
			}
			if _, err := a.store.EnsureCategory(category); err != nil {
				return err
			}
			r := a.manager.ScrapeSource(ctx, source, category)
			if r.Err != nil {
				return r.Err
			}
			tui.Status(cmd.OutOrStdout(), tui.StatusSuccess, "%s: %d fetched, %d new", r.Source, r.Fetched, r.Added)
			return nil
		})
	},
}

func findSource(sources []config.SourceConfig, name string) (config.SourceConfig, bool) {
	for _, s := range sources {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return config.SourceConfig{}, false
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API and scrape on the configured schedule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, true, func(ctx context.Context, a *app) error {
			addr := a.cfg.Server.Addr
			if serveAddr != "" {
				addr = serveAddr
			}

			if spec := a.cfg.Server.ScrapeSchedule; spec != "" && !serveNoSchedule {
				sched, err := scheduler.New(spec, a.manager)
				if err != nil {
					return err
				}
				sched.Start(ctx)
				defer sched.Stop()
			}

			var audioFs afero.Fs
			if files, ok := a.blobs.(*audio.FileStore); ok {
				audioFs = files.Fs()
			}
			router := api.NewRouter(a.service, audioFs, strings.TrimSuffix(a.cfg.Audio.BaseURL, "/"))

			tui.Status(cmd.OutOrStdout(), tui.StatusInfo, "Listening on %s", addr)
			return api.Serve(ctx, addr, router)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored articles, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, false, func(ctx context.Context, a *app) error {
			var (
				articles []*storage.Article
				err      error
			)
			if listAll {
				articles, err = a.store.ListArticles(storage.ArticleFilter{Category: listCategory, Limit: listLimit})
			} else {
				articles, err = a.service.ListApproved(listCategory, listLimit)
			}
			if err != nil {
				return err
			}
			tui.ArticleList(cmd.OutOrStdout(), articles)
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, false, func(ctx context.Context, a *app) error {
			article, err := a.store.GetArticle(id)
			if err != nil {
				return err
			}
			out, err := tui.RenderArticle(article, showStyle)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		})
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <id>",
	Short: "Generate and store the summary of an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, false, func(ctx context.Context, a *app) error {
			article, err := a.service.GenerateSummary(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.TitleStyle.Render(article.Title))
			fmt.Fprintln(cmd.OutOrStdout(), article.Summary)
			return nil
		})
	},
}

var audioCmd = &cobra.Command{
	Use:   "audio <id>",
	Short: "Generate the spoken summary of an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, true, func(ctx context.Context, a *app) error {
			ref, err := a.service.GenerateAudio(ctx, id)
			if err != nil {
				return err
			}
			tui.Status(cmd.OutOrStdout(), tui.StatusSuccess, "Audio summary at %s", ref)

			if !playAudio {
				return nil
			}
			return media.NewLauncher(a.cfg).Play(ctx, a.audioPath(ref))
		})
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <id>...",
	Short: "Approve articles for the public listing",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]uint64, 0, len(args))
		for _, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return withApp(cmd, false, func(ctx context.Context, a *app) error {
			for _, id := range ids {
				article, err := a.service.Approve(id)
				if err != nil {
					return fmt.Errorf("article %d: %w", id, err)
				}
				tui.Status(cmd.OutOrStdout(), tui.StatusSuccess, "Approved %d: %s", article.ID, article.Title)
			}
			return nil
		})
	},
}

var feedbackCmd = &cobra.Command{
	Use:       "feedback <id> helpful|not_helpful",
	Short:     "Record whether a summary was helpful",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"helpful", "not_helpful"},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, false, func(ctx context.Context, a *app) error {
			article, err := a.service.Feedback(id, args[1])
			if err != nil {
				return err
			}
			tui.Status(cmd.OutOrStdout(), tui.StatusSuccess, "%d helpful, %d not helpful",
				article.HelpfulCount, article.NotHelpfulCount)
			return nil
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search approved articles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, false, func(ctx context.Context, a *app) error {
			articles, err := a.service.Search(strings.Join(args, " "), searchLimit)
			if err != nil {
				return err
			}
			tui.ArticleList(cmd.OutOrStdout(), articles)
			return nil
		})
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index from the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, false, func(ctx context.Context, a *app) error {
			n, err := a.service.Reindex()
			if err != nil {
				return err
			}
			tui.Status(cmd.OutOrStdout(), tui.StatusSuccess, "Indexed %d articles", n)
			return nil
		})
	},
}
