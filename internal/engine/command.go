package engine

import (
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Command is an assembled invocation. Path is the resolved executable.
type Command struct {
	Path     string
	Args     []string
	Warnings []Warning
}

// Argv returns the executable followed by its arguments.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Path)
	return append(argv, c.Args...)
}

// String renders the command on one line, quoted so it reads like something
// a shell would accept. It is for display only.
func (c Command) String() string {
	argv := c.Argv()
	parts := make([]string, len(argv))
	for i, a := range argv {
		parts[i] = shellQuote(a)
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return strconv.Quote(s)
	}
	return q
}

// Assemble resolves tokens and renders cfg into a command line. Disabled
// entries are skipped; any enabled entry that fails validation fails the
// whole assembly with ValidationErrors.
func Assemble(cfg *BrowserConfig, r *Resolver) (Command, error) {
	if r == nil {
		r = NewResolver()
	}
	r = r.Frozen()

	var (
		cmd  Command
		errs ValidationErrors
	)
	path, warns := r.Resolve(cfg.BrowserPath)
	cmd.Warnings = append(cmd.Warnings, tagWarnings("browser_path", warns)...)
	cmd.Path = strings.TrimSpace(path)
	if cmd.Path == "" {
		errs = append(errs, &ValidationError{Index: -1, Reason: "browser_path is empty"})
	}

	for i, e := range cfg.Args {
		if !e.Enabled {
			continue
		}
		if err := e.Validate(); err != nil {
			errs = append(errs, &ValidationError{Index: i, Name: e.Name, Reason: err.Error()})
			continue
		}
		arg, warns := renderEntry(e, r)
		cmd.Warnings = append(cmd.Warnings, tagWarnings(e.Name, warns)...)
		cmd.Args = append(cmd.Args, arg)
	}
	if len(errs) > 0 {
		return Command{}, errs
	}
	return cmd, nil
}

// renderEntry assumes e has already passed Validate.
func renderEntry(e Entry, r *Resolver) (string, []Warning) {
	flag := e.Flag()
	switch v := e.Value.(type) {
	case StringValue:
		s, warns := r.Resolve(v.S)
		return flag + "=" + s, warns
	case NumberValue:
		return flag + "=" + strings.TrimSpace(v.Literal), nil
	case ListValue:
		elems, warns := r.ResolveList(v.S)
		kept := elems[:0]
		for _, el := range elems {
			if el = strings.TrimSpace(el); el != "" {
				kept = append(kept, el)
			}
		}
		return flag + "=" + strings.Join(kept, ","), warns
	}
	return flag, nil
}

func tagWarnings(entry string, warns []Warning) []Warning {
	for i := range warns {
		warns[i].Entry = entry
	}
	return warns
}
