package config

import "testing"

func TestFromArgsRequiresMirrorAndMountpoint(t *testing.T) {
	if _, err := FromArgs([]string{}); err == nil {
		t.Fatalf("expected error with no positional arguments")
	}
	if _, err := FromArgs([]string{"/mirror"}); err == nil {
		t.Fatalf("expected error with only one positional argument")
	}
}

func TestFromArgsParsesFlags(t *testing.T) {
	cfg, err := FromArgs([]string{
		"-l", "-f", "-d",
		"-p", "auto;always",
		"-p", "/bin/cat;&\\.txt$",
		"-o", "allow_other",
		"/mirror", "/mnt",
	})
	if err != nil {
		t.Fatalf("FromArgs: %v", err)
	}
	if !cfg.EagerSize || !cfg.Foreground || !cfg.Debug {
		t.Fatalf("boolean flags not set: %+v", cfg)
	}
	if len(cfg.Procedures) != 2 {
		t.Fatalf("expected 2 procedures, got %d", len(cfg.Procedures))
	}
	if len(cfg.FuseOptions) != 1 || cfg.FuseOptions[0] != "allow_other" {
		t.Fatalf("fuse options not parsed: %+v", cfg.FuseOptions)
	}
	if cfg.Mirror != "/mirror" || cfg.Mountpoint != "/mnt" {
		t.Fatalf("positional args not parsed: %+v", cfg)
	}
}

func TestFromArgsVersionSkipsPositional(t *testing.T) {
	cfg, err := FromArgs([]string{"-version"})
	if err != nil {
		t.Fatalf("FromArgs: %v", err)
	}
	if !cfg.ShowVersion {
		t.Fatalf("expected ShowVersion=true")
	}
}
