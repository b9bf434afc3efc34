package scriptfs

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultProcedure is what an unconfigured ScriptFS falls back to: every
// file beginning with "#!" or carrying an execute bit is launched via the
// shebang resolver (spec.md §6 "no -p given: equivalent to -p auto").
func DefaultProcedure() Procedure {
	proc, err := ParseProcedure("auto")
	if err != nil {
		// "auto" is a literal this package always accepts.
		panic(err)
	}
	return proc
}

// ParseProcedure parses a "-p" argument of the form PROGRAM[;TEST], per
// spec.md §4.5.
func ParseProcedure(spec string) (Procedure, error) {
	programPart, testPart, hasTest := cutFirst(spec, ';')

	program, err := parseProgram(programPart)
	if err != nil {
		return Procedure{}, fmt.Errorf("parse procedure %q: %w", spec, err)
	}

	var test Test
	switch {
	case hasTest:
		test, err = parseTest(testPart)
		if err != nil {
			return Procedure{}, fmt.Errorf("parse procedure %q: %w", spec, err)
		}
	case program.Kind == ProgramAuto:
		test = Test{Kind: TestShebangOrExecutable}
	case program.Kind == ProgramSelf:
		test = Test{Kind: TestExecutable}
	default:
		// "the test reuses the program's argv" (spec.md §4.5 defaulting rules).
		test = Test{Kind: TestExternal, Command: program.Command}
	}

	return Procedure{Program: program, Test: test}, nil
}

func cutFirst(s string, sep byte) (before, after string, found bool) {
	i := strings.IndexByte(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

func parseProgram(s string) (Program, error) {
	switch s {
	case "auto":
		return Program{Kind: ProgramAuto}, nil
	case "self":
		return Program{Kind: ProgramSelf}, nil
	}
	return Program{Kind: ProgramExternal, Command: parseCommand(s)}, nil
}

func parseTest(s string) (Test, error) {
	switch s {
	case "always":
		return Test{Kind: TestAlways}, nil
	case "executable":
		return Test{Kind: TestExecutable}, nil
	}
	if strings.HasPrefix(s, "&") {
		re, err := regexp.Compile(s[1:])
		if err != nil {
			return Test{}, fmt.Errorf("invalid pattern %q: %w", s[1:], err)
		}
		return Test{Kind: TestPattern, Pattern: re}, nil
	}
	return Test{Kind: TestExternal, Command: parseCommand(s)}, nil
}

// parseCommand tokenizes a shell-style command line the way scriptfs.c's
// tokenize() does: runs of space/tab/newline collapse to one delimiter,
// leading/trailing blanks are dropped. The first token is the executable;
// the remainder is argv's tail. The first argv element that equals "!"
// marks the file-placeholder position; when none does, Filter is set so the
// caller knows to pipe the file's content on stdin instead.
func parseCommand(s string) Command {
	tokens := tokenize(s)
	if len(tokens) == 0 {
		return Command{PlaceholderIndex: -1, Filter: true}
	}
	cmd := Command{Path: tokens[0], Args: tokens[1:], PlaceholderIndex: -1}
	for i, a := range cmd.Args {
		if a == "!" {
			cmd.PlaceholderIndex = i
			break
		}
	}
	cmd.Filter = cmd.PlaceholderIndex < 0
	return cmd
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n'
	})
}
