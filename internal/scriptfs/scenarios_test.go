package scriptfs

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

// E1: a shebang script under -p auto reads back as its stdout.
func TestShebangScriptE1(t *testing.T) {
	fsys, mirror := newTestFilesystem(t)
	writeMirrorFile(t, mirror, "hello_script", "#!/bin/sh\n\necho Hi\n", 0755)

	got := readAll(t, fsys, "/hello_script")
	if string(got) != "Hi\n" {
		t.Fatalf("got %q, want %q", got, "Hi\n")
	}
}

// E2: an external filter program (no "!" placeholder) receives the mirror
// file's content on stdin.
func TestFilterProgramE2(t *testing.T) {
	proc, err := ParseProcedure("/bin/cat;always")
	if err != nil {
		t.Fatalf("ParseProcedure: %v", err)
	}
	fsys, mirror := newTestFilesystem(t, proc)
	writeMirrorFile(t, mirror, "hello_text", "A\nB\n", 0644)

	got := readAll(t, fsys, "/hello_text")
	if string(got) != "A\nB\n" {
		t.Fatalf("got %q, want %q", got, "A\nB\n")
	}
}

// E3: pattern-based first-match classification. file_1 matches the pattern
// procedure and is run through /bin/echo with a temp-copy placeholder;
// file_5 falls through to a plain pass-through read.
func TestPatternFirstMatchE3(t *testing.T) {
	echoProc, err := ParseProcedure(`/bin/echo !;&file_[0-4]`)
	if err != nil {
		t.Fatalf("ParseProcedure: %v", err)
	}
	fsys, mirror := newTestFilesystem(t, echoProc)

	writeMirrorFile(t, mirror, "file_1", "one\n", 0644)
	writeMirrorFile(t, mirror, "file_5", "5\n", 0644)

	got1 := readAll(t, fsys, "/file_1")
	if len(got1) == 0 {
		t.Fatalf("file_1: expected echo'd temp-copy path, got empty output")
	}

	got5 := readAll(t, fsys, "/file_5")
	if string(got5) != "5\n" {
		t.Fatalf("file_5: got %q, want %q (pattern should not match, plain read expected)", got5, "5\n")
	}
}

// E4: self-as-test asymmetry. The same command spec is used as both
// Program and Test; "!" resolves to the virtual path during classification
// and to a temp-copy path during program invocation.
func TestSelfAsTestAsymmetryE4(t *testing.T) {
	proc, err := ParseProcedure("/bin/echo !")
	if err != nil {
		t.Fatalf("ParseProcedure: %v", err)
	}
	if proc.Test.Kind != TestExternal {
		t.Fatalf("expected default Test to reuse the program's command, got %v", proc.Test.Kind)
	}
	fsys, mirror := newTestFilesystem(t, proc)
	writeMirrorFile(t, mirror, "hello_text", "A\n", 0644)

	// Classification passes the virtual path to the reused command.
	classified := fsys.Classifier.Classify("/hello_text", "hello_text")
	if classified == nil {
		t.Fatalf("expected /bin/echo to classify hello_text as a match")
	}

	// Reading runs the program with a temp-copy path substituted instead.
	got := readAll(t, fsys, "/hello_text")
	if len(got) == 0 {
		t.Fatalf("expected program invocation to echo a temp-copy path, got empty output")
	}
}

// E5: lazy vs eager size reporting.
func TestLazyVsEagerSizeE5(t *testing.T) {
	const script = "#!/bin/sh\necho 0123456789\n"
	proc := DefaultProcedure()

	lazy, mirror := newTestFilesystem(t, proc)
	writeMirrorFile(t, mirror, "seq", script, 0755)
	st, err := lazy.Getattr("/seq")
	if err != nil {
		t.Fatalf("Getattr: %v", err)
	}
	if int(st.Size) != len(script) {
		t.Fatalf("lazy size: got %d, want mirror source size %d", st.Size, len(script))
	}

	eagerMirror := t.TempDir()
	p, err := NewPersistent(eagerMirror, []Procedure{proc}, true)
	if err != nil {
		t.Fatalf("NewPersistent: %v", err)
	}
	defer p.Close()
	eager := New(p)
	writeMirrorFile(t, eagerMirror, "seq", script, 0755)

	st, err = eager.Getattr("/seq")
	if err != nil {
		t.Fatalf("Getattr: %v", err)
	}
	if int(st.Size) != len("0123456789\n") {
		t.Fatalf("eager size: got %d, want captured stdout length %d", st.Size, len("0123456789\n"))
	}
}

// Universal property 1: non-script files pass through byte-exact.
func TestPassthroughByteExact(t *testing.T) {
	fsys, mirror := newTestFilesystem(t)
	writeMirrorFile(t, mirror, "plain.txt", "just data, no shebang, no exec bit", 0644)

	got := readAll(t, fsys, "/plain.txt")
	if string(got) != "just data, no shebang, no exec bit" {
		t.Fatalf("got %q", got)
	}
}

// Universal property 4: scripts are read-only at every write-capable entry
// point.
func TestScriptsReadOnlyProperty4(t *testing.T) {
	fsys, mirror := newTestFilesystem(t)
	writeMirrorFile(t, mirror, "hello_script", "#!/bin/sh\necho Hi\n", 0755)

	if _, err := fsys.Open("/hello_script", os.O_WRONLY, 0); err != unix.EACCES {
		t.Fatalf("O_WRONLY open: got %v, want EACCES", err)
	}
	if _, err := fsys.Open("/hello_script", os.O_RDWR, 0); err != unix.EACCES {
		t.Fatalf("O_RDWR open: got %v, want EACCES", err)
	}
	if err := fsys.Truncate("/hello_script", 0); err != unix.EACCES {
		t.Fatalf("truncate: got %v, want EACCES", err)
	}
	if err := fsys.Chmod("/hello_script", 0777); err != nil {
		t.Fatalf("chmod: unexpected error %v", err)
	}
	if err := fsys.Access("/hello_script", unix.W_OK); err != unix.EACCES {
		t.Fatalf("access W_OK: got %v, want EACCES", err)
	}
}

// Universal property 7: writes to a non-script file are visible both at
// the mount and directly in the mirror.
func TestWritesVisibleBothSidesProperty7(t *testing.T) {
	fsys, mirror := newTestFilesystem(t)
	writeMirrorFile(t, mirror, "data.txt", "before", 0644)

	h, err := fsys.Open("/data.txt", os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := fsys.Write(h, []byte("after!"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	fsys.Release(h)

	onDisk, err := os.ReadFile(mirror + "/data.txt")
	if err != nil {
		t.Fatalf("read mirror file: %v", err)
	}
	if string(onDisk) != "after!" {
		t.Fatalf("mirror content = %q, want %q", onDisk, "after!")
	}
}
