package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/llehouerou/ytm/internal/player"
	"github.com/llehouerou/ytm/internal/session"
	"github.com/llehouerou/ytm/internal/state"
	"github.com/llehouerou/ytm/internal/ui/playerbar"
	"github.com/llehouerou/ytm/internal/ui/styles"
)

// maxTranscript bounds the scrollback kept in memory.
const maxTranscript = 500

// Deps are the collaborators of the session loop.
type Deps struct {
	Resolver Resolver
	Player   player.Interface
	State    state.Interface // nil disables history and volume persistence
	Notifier Announcer       // nil disables notifications
	Stderr   <-chan string   // captured fd 2 lines, may be nil
	Log      *zap.Logger
}

// Options tune the session loop.
type Options struct {
	SearchLimit  int
	HistoryLimit int
	Parser       session.Parser
	Warnings     []string // shown once at startup
	Query        string   // searched at startup when set
}

// Model is the interactive session loop: one prompt line, a transcript of
// results and messages, and the player bar.
type Model struct {
	ctx  context.Context
	deps Deps
	opts Options
	log  *zap.Logger

	session *session.Session
	input   textinput.Model
	spinner spinner.Model

	bar        playerbar.State
	transcript []string
	busy       string // label shown next to the spinner; empty when idle

	searchSeq    int
	cancelSearch context.CancelFunc
	launch       *launcher
	sessionID    uuid.UUID // session whose events are ours

	width, height int
}

// New creates the session loop. ctx bounds every search and load.
func New(ctx context.Context, deps Deps, opts Options) Model {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 10
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}

	in := textinput.New()
	in.Prompt = styles.T().S().Prompt.Render("ytm› ")
	in.Placeholder = "search, or :help"
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.T().S().Playing

	m := Model{
		ctx:     ctx,
		deps:    deps,
		opts:    opts,
		log:     deps.Log.Named("app"),
		session: session.New(),
		input:   in,
		spinner: sp,
		launch:  &launcher{},
		width:   80,
		height:  24,
	}
	m.bar = playerbar.State{Status: player.Idle, Volume: deps.Player.Volume()}

	m.println(styles.T().Banner("ytm") + styles.T().S().Muted.Render("  type to search, :help for commands"))
	for _, w := range opts.Warnings {
		m.println(styles.T().S().Warning.Render("warning: " + w))
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		TickCmd(),
		watchEvents(m.deps.Player),
		watchStateChanges(m.deps.Player),
		watchStderr(m.deps.Stderr),
	}
	if q := strings.TrimSpace(m.opts.Query); q != "" {
		cmds = append(cmds, func() tea.Msg { return QueryMsg{Query: q} })
	}
	return tea.Batch(cmds...)
}

// Transcript returns the lines printed so far, oldest first.
func (m Model) Transcript() []string {
	return m.transcript
}

func (m *Model) println(lines ...string) {
	m.transcript = append(m.transcript, lines...)
	if over := len(m.transcript) - maxTranscript; over > 0 {
		m.transcript = append([]string(nil), m.transcript[over:]...)
	}
}
