// Package cli is the ytm command line: the interactive session, search and
// direct play.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/llehouerou/ytm/internal/app"
	"github.com/llehouerou/ytm/internal/errmsg"
	"github.com/llehouerou/ytm/internal/resolver"
	"github.com/llehouerou/ytm/internal/session"
)

// version is set at build time with -ldflags "-X".
var version = "dev"

const maxSearchLimit = 50

// request is what one invocation asks for.
type request struct {
	Query string // initial search; empty for a bare prompt
	URL   string // direct play
	First bool   // play the top search hit without a prompt
	Limit int    // results per search; zero uses the config
}

// oneShot reports whether the request plays a single track without a prompt.
func (r request) oneShot() bool {
	return r.URL != "" || r.First
}

func (r request) target() app.Target {
	return app.Target{URL: r.URL, Query: r.Query}
}

// subject is the URL or query shown in a fatal error.
func (r request) subject() string {
	if r.URL != "" {
		return r.URL
	}
	return r.Query
}

type command struct {
	stdout, stderr io.Writer

	configPath string
	logLevel   string

	// run executes a parsed request.
	run func(ctx context.Context, c *command, req request) error
}

func newCommand(stdout, stderr io.Writer) *command {
	return &command{stdout: stdout, stderr: stderr, run: start}
}

// Execute runs the command line and returns the process exit code.
// SIGINT and SIGTERM cancel the run.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newCommand(os.Stdout, os.Stderr).execute(ctx, os.Args[1:])
}

func (c *command) execute(ctx context.Context, args []string) int {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	err := root.ExecuteContext(ctx)
	code := session.ExitCode(err, ctx.Err() != nil)
	if err != nil && code == session.ExitFailure {
		fmt.Fprintln(c.stderr, "ytm: "+err.Error())
	}
	return code
}

func (c *command) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ytm",
		Short: "Search and play YouTube audio from the terminal",
		Long: `ytm searches YouTube with yt-dlp and plays audio with mpv.

Without a subcommand it opens an interactive prompt: type to search, a number
to play a result, :help for commands.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd.Context(), c, request{})
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file, loaded after the default locations")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(c.searchCmd(), c.playCmd())
	return root
}

func (c *command) searchCmd() *cobra.Command {
	var (
		first bool
		limit int
	)
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search, then pick a result at the prompt",
		Example: `  ytm search lofi beats
  ytm search -1 daft punk around the world`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New("search query is empty")
			}
			if limit < 0 || limit > maxSearchLimit {
				return fmt.Errorf("--limit must be between 1 and %d", maxSearchLimit)
			}
			return c.run(cmd.Context(), c, request{Query: query, First: first, Limit: limit})
		},
	}
	cmd.Flags().BoolVarP(&first, "first", "1", false, "play the top result and exit when it ends")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of results (default from config)")
	return cmd
}

func (c *command) playCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "play <url>",
		Short:   "Play one video URL and exit when it ends",
		Example: "  ytm play https://www.youtube.com/watch?v=jfKfPfyJRdk",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), c, request{URL: strings.TrimSpace(args[0])})
		},
	}
}

// fatalError is a failure that ends the run, printed with its operation.
type fatalError struct {
	op      errmsg.Op
	context string
	err     error
}

func (e *fatalError) Error() string {
	return errmsg.FormatWith(e.op, e.context, e.err)
}

func (e *fatalError) Unwrap() error { return e.err }

// oneShotOp names the step of a direct play that err comes from.
func oneShotOp(err error, t app.Target) errmsg.Op {
	var resErr *resolver.Error
	switch {
	case errors.Is(err, app.ErrNoMatches):
		return errmsg.OpSearch
	case errors.As(err, &resErr) && t.URL == "":
		return errmsg.OpSearch
	case errors.As(err, &resErr):
		return errmsg.OpResolve
	default:
		return errmsg.OpPlayback
	}
}
