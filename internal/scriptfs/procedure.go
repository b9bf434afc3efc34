package scriptfs

import "regexp"

// ProgramKind selects which variant of Program a Procedure carries.
type ProgramKind int

const (
	// ProgramAuto launches the file itself via the shebang resolver.
	ProgramAuto ProgramKind = iota
	// ProgramExternal runs a configured external command over the file.
	ProgramExternal
	// ProgramSelf invokes the file directly as the program, with no
	// shebang rewriting (the literal "self" program spec).
	ProgramSelf
)

// Program describes what to run when a file is classified as a script.
// argv templating (the "!" file placeholder) lives in Command.
type Program struct {
	Kind    ProgramKind
	Command Command // only meaningful when Kind == ProgramExternal
}

// TestKind selects which variant of Test a Procedure carries.
type TestKind int

const (
	// TestAlways matches every file.
	TestAlways TestKind = iota
	// TestExecutable matches files the caller may execute on the mirror.
	TestExecutable
	// TestShebangOrExecutable matches a "#!" prefix or execute permission;
	// this is Auto's default test.
	TestShebangOrExecutable
	// TestPattern matches a regular expression against the full virtual path.
	TestPattern
	// TestExternal runs a configured external command and matches on exit 0.
	TestExternal
)

// Test is the predicate a Classifier evaluates against each candidate path.
type Test struct {
	Kind    TestKind
	Pattern *regexp.Regexp // only meaningful when Kind == TestPattern
	Command Command        // only meaningful when Kind == TestExternal
}

// Command is a shell-style argv template: Path is the executable, Args is
// the argument tail (argv[1:]), and PlaceholderIndex, when >= 0, names the
// position in Args that held the literal "!" file placeholder. Filter is
// true when no "!" placeholder was present, meaning the file's content
// should be piped to the child's stdin instead.
type Command struct {
	Path             string
	Args             []string
	PlaceholderIndex int // -1 if no "!" placeholder
	Filter           bool
}

// Procedure pairs a Program with the Test that selects it. Procedures are
// evaluated in list order; the first Test to match fixes the Procedure
// (spec.md §3 "Procedure-list invariant").
type Procedure struct {
	Program Program
	Test    Test
}
