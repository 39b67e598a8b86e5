// Package session holds the UI-independent part of the interactive loop:
// the command grammar and the selection and queue state.
package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies a parsed command.
type Kind int

const (
	CmdNone Kind = iota // blank line
	CmdSearch
	CmdSelect
	CmdPause
	CmdResume
	CmdToggle
	CmdStop
	CmdNext
	CmdAdd
	CmdQueue
	CmdRemove
	CmdClear
	CmdSeek
	CmdVolume
	CmdHistory
	CmdHelp
	CmdQuit
)

// Command is one parsed input line.
type Command struct {
	Kind  Kind
	Query string        // CmdSearch
	Index int           // CmdSelect, CmdAdd, CmdRemove; 0-based
	Seek  time.Duration // CmdSeek; negative seeks back
	Delta int           // CmdVolume; negative lowers
}

// Defaults for argument-less seek and volume commands.
const (
	DefaultSeekStep   = 10 * time.Second
	DefaultVolumeStep = 5
)

// InputError reports a line that could not be turned into a valid command.
type InputError struct {
	Input  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Input == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Input, e.Reason)
}

// Parser turns input lines into commands.
type Parser struct {
	SeekStep   time.Duration
	VolumeStep int
}

// Parse parses one input line. Lines starting with ':' are commands, a line
// of digits selects a result (1-based), anything else is a search.
func (p Parser) Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return Command{Kind: CmdNone}, nil
	case isDigits(line):
		n, err := parseIndex(line)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdSelect, Index: n}, nil
	case strings.HasPrefix(line, ":"):
		return p.parseColon(line)
	default:
		return Command{Kind: CmdSearch, Query: line}, nil
	}
}

func (p Parser) parseColon(line string) (Command, error) {
	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return Command{}, &InputError{Input: line, Reason: "missing command"}
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	noArgs := func(c Command) (Command, error) {
		if len(args) > 0 {
			return Command{}, &InputError{Input: line, Reason: "takes no argument"}
		}
		return c, nil
	}

	switch name {
	case "p", "pause":
		return noArgs(Command{Kind: CmdPause})
	case "r", "resume":
		return noArgs(Command{Kind: CmdResume})
	case "t", "toggle":
		return noArgs(Command{Kind: CmdToggle})
	case "s", "stop":
		return noArgs(Command{Kind: CmdStop})
	case "n", "next", "skip":
		return noArgs(Command{Kind: CmdNext})
	case "queue":
		return noArgs(Command{Kind: CmdQueue})
	case "clear":
		return noArgs(Command{Kind: CmdClear})
	case "history":
		return noArgs(Command{Kind: CmdHistory})
	case "h", "help", "?":
		return noArgs(Command{Kind: CmdHelp})
	case "q", "quit", "exit":
		return noArgs(Command{Kind: CmdQuit})
	case "a", "add":
		if len(args) != 1 {
			return Command{}, &InputError{Input: line, Reason: "expects one result number"}
		}
		n, err := parseIndex(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdAdd, Index: n}, nil
	case "rm", "remove":
		if len(args) != 1 {
			return Command{}, &InputError{Input: line, Reason: "expects one queue position"}
		}
		n, err := parseIndex(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdRemove, Index: n}, nil
	case "f", "b":
		step, err := p.seekArg(line, args)
		if err != nil {
			return Command{}, err
		}
		if name == "b" {
			step = -step
		}
		return Command{Kind: CmdSeek, Seek: step}, nil
	case "+", "-":
		step, err := p.volumeArg(line, args)
		if err != nil {
			return Command{}, err
		}
		if name == "-" {
			step = -step
		}
		return Command{Kind: CmdVolume, Delta: step}, nil
	default:
		return Command{}, &InputError{Input: line, Reason: "unknown command, :help lists commands"}
	}
}

func (p Parser) seekArg(line string, args []string) (time.Duration, error) {
	switch len(args) {
	case 0:
		if p.SeekStep > 0 {
			return p.SeekStep, nil
		}
		return DefaultSeekStep, nil
	case 1:
		if secs, err := strconv.Atoi(args[0]); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second, nil
		}
		if d, err := time.ParseDuration(args[0]); err == nil && d > 0 {
			return d, nil
		}
		return 0, &InputError{Input: line, Reason: "expects a positive number of seconds"}
	default:
		return 0, &InputError{Input: line, Reason: "expects at most one argument"}
	}
}

func (p Parser) volumeArg(line string, args []string) (int, error) {
	switch len(args) {
	case 0:
		if p.VolumeStep > 0 {
			return p.VolumeStep, nil
		}
		return DefaultVolumeStep, nil
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return 0, &InputError{Input: line, Reason: "expects a positive number"}
		}
		return n, nil
	default:
		return 0, &InputError{Input: line, Reason: "expects at most one argument"}
	}
}

// parseIndex converts a 1-based result number to a 0-based index.
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, &InputError{Input: s, Reason: "result numbers start at 1"}
	}
	return n - 1, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// HelpEntry documents one command for :help.
type HelpEntry struct {
	Keys string
	Desc string
}

// Help lists the commands in display order.
var Help = []HelpEntry{
	{"<text>", "search"},
	{"<n>", "play result n"},
	{":a <n>", "add result n to the queue"},
	{":queue", "show the queue"},
	{":rm <n>", "remove queued track n"},
	{":clear", "empty the queue"},
	{":n", "next queued track"},
	{":p :r :t", "pause, resume, toggle"},
	{":s", "stop"},
	{":f [s] :b [s]", "seek forward/back"},
	{":+ [n] :- [n]", "volume up/down"},
	{":history", "recently played"},
	{":q", "quit"},
}
