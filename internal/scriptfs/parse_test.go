package scriptfs

import "testing"

func TestParseProcedureDefaultingRules(t *testing.T) {
	cases := []struct {
		spec        string
		programKind ProgramKind
		testKind    TestKind
		reusesArgv  bool
	}{
		{"auto", ProgramAuto, TestShebangOrExecutable, false},
		{"self", ProgramSelf, TestExecutable, false},
		{"/bin/cat !", ProgramExternal, TestExternal, true},
	}
	for _, c := range cases {
		proc, err := ParseProcedure(c.spec)
		if err != nil {
			t.Fatalf("%q: ParseProcedure: %v", c.spec, err)
		}
		if proc.Program.Kind != c.programKind {
			t.Fatalf("%q: program kind = %v, want %v", c.spec, proc.Program.Kind, c.programKind)
		}
		if proc.Test.Kind != c.testKind {
			t.Fatalf("%q: test kind = %v, want %v", c.spec, proc.Test.Kind, c.testKind)
		}
		if c.reusesArgv && proc.Test.Command.Path != proc.Program.Command.Path {
			t.Fatalf("%q: expected test to reuse program's command", c.spec)
		}
	}
}

func TestParseProcedureExplicitTest(t *testing.T) {
	proc, err := ParseProcedure("/bin/echo !;&file_[0-4]")
	if err != nil {
		t.Fatalf("ParseProcedure: %v", err)
	}
	if proc.Test.Kind != TestPattern {
		t.Fatalf("test kind = %v, want TestPattern", proc.Test.Kind)
	}
	if !proc.Test.Pattern.MatchString("file_3") {
		t.Fatalf("pattern should match file_3")
	}
	if proc.Test.Pattern.MatchString("file_9") {
		t.Fatalf("pattern should not match file_9")
	}
}

func TestParseCommandPlaceholder(t *testing.T) {
	cmd := parseCommand("awk {print} !")
	if cmd.PlaceholderIndex != 1 {
		t.Fatalf("placeholder index = %d, want 1", cmd.PlaceholderIndex)
	}
	if cmd.Filter {
		t.Fatalf("expected Filter=false when a placeholder is present")
	}

	filterCmd := parseCommand("/bin/cat")
	if filterCmd.PlaceholderIndex != -1 || !filterCmd.Filter {
		t.Fatalf("expected a placeholder-less command to set Filter=true")
	}
}

func TestDefaultProcedureIsAuto(t *testing.T) {
	proc := DefaultProcedure()
	if proc.Program.Kind != ProgramAuto {
		t.Fatalf("default procedure program kind = %v, want ProgramAuto", proc.Program.Kind)
	}
	if proc.Test.Kind != TestShebangOrExecutable {
		t.Fatalf("default procedure test kind = %v, want TestShebangOrExecutable", proc.Test.Kind)
	}
}

func TestRelativePath(t *testing.T) {
	cases := map[string]string{
		"":        ".",
		"/":       ".",
		"/a/b":    "a/b",
		"a/b":     "a/b",
		"/hello_": "hello_",
	}
	for in, want := range cases {
		if got := RelativePath(in); got != want {
			t.Fatalf("RelativePath(%q) = %q, want %q", in, got, want)
		}
	}
}
