package scriptfs

import "testing"

// Universal property 3: classification is first-match, even when a later
// procedure's test would also match.
func TestClassifyFirstMatchProperty3(t *testing.T) {
	always, err := ParseProcedure("/bin/echo !;always")
	if err != nil {
		t.Fatalf("ParseProcedure: %v", err)
	}
	alsoAlways, err := ParseProcedure("/bin/cat;always")
	if err != nil {
		t.Fatalf("ParseProcedure: %v", err)
	}

	mirror := t.TempDir()
	p, err := NewPersistent(mirror, []Procedure{always, alsoAlways}, false)
	if err != nil {
		t.Fatalf("NewPersistent: %v", err)
	}
	defer p.Close()
	runner := NewRunner(p)
	classifier := NewClassifier(p, runner)

	writeMirrorFile(t, mirror, "anything", "x", 0644)
	proc := classifier.Classify("/anything", "anything")
	if proc == nil {
		t.Fatalf("expected a match")
	}
	if proc.Program.Command.Path != "/bin/echo" {
		t.Fatalf("expected the first procedure (/bin/echo) to win, got %q", proc.Program.Command.Path)
	}
}

func TestClassifyExecutableTest(t *testing.T) {
	proc, err := ParseProcedure("self")
	if err != nil {
		t.Fatalf("ParseProcedure: %v", err)
	}
	mirror := t.TempDir()
	p, err := NewPersistent(mirror, []Procedure{proc}, false)
	if err != nil {
		t.Fatalf("NewPersistent: %v", err)
	}
	defer p.Close()
	classifier := NewClassifier(p, NewRunner(p))

	writeMirrorFile(t, mirror, "runnable", "#!/bin/sh\n", 0755)
	writeMirrorFile(t, mirror, "plain", "data", 0644)

	if classifier.Classify("/runnable", "runnable") == nil {
		t.Fatalf("expected executable file to match TestExecutable")
	}
	if classifier.Classify("/plain", "plain") != nil {
		t.Fatalf("expected non-executable file not to match TestExecutable")
	}
}

func TestClassifyNoMatchReturnsNil(t *testing.T) {
	pattern, err := ParseProcedure("/bin/echo !;&nomatch")
	if err != nil {
		t.Fatalf("ParseProcedure: %v", err)
	}
	mirror := t.TempDir()
	p, err := NewPersistent(mirror, []Procedure{pattern}, false)
	if err != nil {
		t.Fatalf("NewPersistent: %v", err)
	}
	defer p.Close()
	classifier := NewClassifier(p, NewRunner(p))

	writeMirrorFile(t, mirror, "file", "data", 0644)
	if classifier.Classify("/file", "file") != nil {
		t.Fatalf("expected no procedure to match")
	}
}
