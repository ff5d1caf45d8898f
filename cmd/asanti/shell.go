package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/exp/slices"

	"github.com/brightsparklabs/asanti-sub002"
	"github.com/brightsparklabs/asanti-sub002/decoder"
)

var errExit = errors.New("exit")

var shellCommands = []string{"exit", "get", "help", "hex", "pdu", "quit", "tags", "type", "unmapped", "validate"}

// shell is an interactive query loop over decoded PDUs.
type shell struct {
	a       *asanti.Asanti
	pdus    []*decoder.Data
	current int
	out     io.Writer
}

func newShell(a *asanti.Asanti, pdus []*decoder.Data, out io.Writer) *shell {
	return &shell{a: a, pdus: pdus, out: out}
}

// run reads commands until EOF or exit.
func (s *shell) run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    &tagCompleter{shell: s},
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(s.out, "%d PDUs loaded. Type 'help' for commands.\n", len(s.pdus))
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := s.dispatch(line); err != nil {
			if err == errExit {
				return nil
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		rl.SetPrompt(s.prompt())
	}
}

func (s *shell) prompt() string {
	if len(s.pdus) == 0 {
		return "asanti> "
	}
	return fmt.Sprintf("asanti[%d/%d]> ", s.current, len(s.pdus))
}

// dispatch runs one command. Everything after the command word is a single
// argument, since tags such as "2[UNIVERSAL 4]" contain spaces.
func (s *shell) dispatch(line string) error {
	cmd, arg := splitCommand(line)
	if cmd == "" {
		return nil
	}

	switch cmd {
	case "quit", "exit":
		return errExit
	case "help", "?":
		s.help()
		return nil
	case "pdu":
		return s.selectPDU(arg)
	}

	data, err := s.data()
	if err != nil {
		return err
	}
	switch cmd {
	case "tags":
		return s.tags(data, arg)
	case "unmapped":
		for _, tag := range data.UnmappedTags() {
			hex, _ := data.HexString(tag)
			fmt.Fprintf(s.out, "%s = %s\n", tag, hex)
		}
		return nil
	case "get", "hex", "type":
		if arg == "" {
			return fmt.Errorf("usage: %s <tag>", cmd)
		}
		return s.query(data, cmd, arg)
	case "validate":
		result, err := s.a.Validate(context.Background(), data)
		if err != nil {
			return err
		}
		if result.Valid() {
			fmt.Fprintln(s.out, "valid")
		}
		for _, f := range result.Failures {
			fmt.Fprintln(s.out, f)
		}
		return nil
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func splitCommand(line string) (cmd, arg string) {
	cmd, arg, _ = strings.Cut(strings.TrimSpace(line), " ")
	return cmd, strings.TrimSpace(arg)
}

func (s *shell) help() {
	fmt.Fprint(s.out, `Commands:
  pdu [n]          show or select the current PDU
  tags [regexp]    list decoded tags with their values
  unmapped         list tags that did not fit the schema
  get <tag>        print the decoded value of a tag
  hex <tag>        print the bytes of a tag
  type <tag>       print the schema type of a tag
  validate         validate the current PDU
  exit             leave the shell
`)
}

func (s *shell) data() (*decoder.Data, error) {
	if len(s.pdus) == 0 {
		return nil, errors.New("no PDUs loaded")
	}
	return s.pdus[s.current], nil
}

func (s *shell) selectPDU(arg string) error {
	if arg == "" {
		data, err := s.data()
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "pdu %d of %d: %s, %d tags, %d unmapped\n",
			s.current, len(s.pdus), data.TopLevel(), len(data.Tags()), len(data.UnmappedTags()))
		return nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || n >= len(s.pdus) {
		return fmt.Errorf("no pdu %s, have %d", arg, len(s.pdus))
	}
	s.current = n
	return nil
}

func (s *shell) tags(data *decoder.Data, pattern string) error {
	tags := data.Tags()
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("bad pattern: %w", err)
		}
		tags = slices.DeleteFunc(tags, func(tag string) bool { return !re.MatchString(tag) })
	}
	for _, tag := range tags {
		fmt.Fprintf(s.out, "%s = %s\n", tag, printable(data, tag))
	}
	return nil
}

func (s *shell) query(data *decoder.Data, cmd, tag string) error {
	if !data.Contains(tag) {
		return fmt.Errorf("no tag %s", tag)
	}
	switch cmd {
	case "get":
		v, err := data.PrintableString(tag)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, v)
	case "hex":
		hex, _ := data.HexString(tag)
		fmt.Fprintln(s.out, hex)
	case "type":
		typ, ok := data.Type(tag)
		if !ok || typ == nil {
			prefix, _ := data.Prefix(tag)
			fmt.Fprintf(s.out, "unmapped (below %s)\n", prefix)
			return nil
		}
		name := typ.Name()
		if u := typ.Underlying(); u != nil {
			if name == "" {
				name = u.Builtin().String()
			} else {
				name += " (" + u.Builtin().String() + ")"
			}
		}
		fmt.Fprintln(s.out, name)
	}
	return nil
}

// tagCompleter completes command names, then tag names of the current PDU.
type tagCompleter struct {
	shell *shell
}

func (tc *tagCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := strings.TrimLeft(string(line[:pos]), " ")

	var partial string
	var candidates []string
	if cmd, rest, found := strings.Cut(text, " "); !found {
		partial = cmd
		candidates = shellCommands
	} else {
		partial = strings.TrimLeft(rest, " ")
		if data, err := tc.shell.data(); err == nil {
			candidates = data.AllTags()
		}
	}

	var result [][]rune
	for _, c := range candidates {
		if strings.HasPrefix(c, partial) {
			result = append(result, []rune(c[len(partial):]+" "))
		}
	}
	return result, len([]rune(partial))
}
