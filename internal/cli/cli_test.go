package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"tux/internal/executor"
	"tux/internal/history"
	"tux/internal/ui"
	"tux/pkg/repository"
	"tux/pkg/tuxerr"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
)

// run executes the root command with args and returns everything printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	oldOut, oldNoColor := ui.Out, color.NoColor
	ui.Out = &buf
	color.NoColor = true
	t.Cleanup(func() {
		ui.Out = oldOut
		color.NoColor = oldNoColor
	})

	resetFlags := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue) //nolint:errcheck
			f.Changed = false
		})
	}
	resetFlags(rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		resetFlags(c.Flags())
	}

	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

type catalogPackage struct {
	name    string
	depends []string
}

// writeEnv creates a populated mirror, an artifact server and a config
// file pointing at both. It returns the config path and the staging root.
func writeEnv(t *testing.T, pkgs ...catalogPackage) (string, string) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "artifact %s", r.URL.Path)
	}))
	t.Cleanup(srv.Close)

	tmpDir := t.TempDir()
	mirror := filepath.Join(tmpDir, "mirror")
	staging := filepath.Join(tmpDir, "staging")
	locator := filepath.Join(tmpDir, "repository")

	if err := os.WriteFile(locator, []byte("https://example.invalid/catalog.git\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var index strings.Builder
	for _, p := range pkgs {
		index.WriteString(p.name + "\n")
		deps := `[]`
		if len(p.depends) > 0 {
			deps = `["` + strings.Join(p.depends, `","`) + `"]`
		}
		content := fmt.Sprintf(`{"name":%q,"version":"1.0","patches":false,"filename":"%s.tar.gz","url":"%s/%s","depends":%s}`,
			p.name, p.name, srv.URL, p.name, deps)
		if err := os.MkdirAll(filepath.Join(mirror, p.name), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(mirror, p.name, "package.json"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(mirror, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(mirror, repository.IndexFile), []byte(index.String()), 0644); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(tmpDir, "config.toml")
	content := fmt.Sprintf(`
[repository]
locator_file = %q
mirror_dir = %q

[install]
staging_dir = %q

[history]
path = %q
`, locator, mirror, staging, filepath.Join(tmpDir, "history.db"))
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	return cfgPath, staging
}

func TestNoArgumentsShowsUsage(t *testing.T) {
	out, err := run(t)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("expected usage output, got %q", out)
	}
}

func TestUnknownCommandShowsUsage(t *testing.T) {
	out, err := run(t, "frobnicate", "vim")
	if err != nil {
		t.Fatalf("unknown command should succeed, got %v", err)
	}
	if !strings.Contains(out, "install") {
		t.Errorf("usage should list commands: %q", out)
	}
}

func TestStubCommands(t *testing.T) {
	cfgPath, _ := writeEnv(t)

	for _, name := range []string{"remove", "update", "build"} {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, "--config", cfgPath, name, "vim")
			if !errors.Is(err, ErrNotImplemented) {
				t.Errorf("%s: expected ErrNotImplemented, got %v", name, err)
			}
			if tuxerr.ExitCode(err) != 1 {
				t.Errorf("%s: exit code = %d, want 1", name, tuxerr.ExitCode(err))
			}
		})
	}
}

func TestInstallRequiresPackage(t *testing.T) {
	_, err := run(t, "install")
	if !errors.Is(err, ErrNoPackage) {
		t.Errorf("expected ErrNoPackage, got %v", err)
	}

	_, err = run(t, "install", "a", "b")
	if !errors.Is(err, ErrTooManyPackages) {
		t.Errorf("expected ErrTooManyPackages, got %v", err)
	}
}

func TestInstallEndToEnd(t *testing.T) {
	cfgPath, staging := writeEnv(t,
		catalogPackage{name: "vim", depends: []string{"ncurses"}},
		catalogPackage{name: "ncurses"},
	)

	out, err := run(t, "--config", cfgPath, "--yes", "install", "vim")
	if err != nil {
		t.Fatalf("install failed: %v\n%s", err, out)
	}

	if !strings.Contains(out, "ncurses vim") {
		t.Errorf("install set not shown in order: %q", out)
	}
	for _, name := range []string{"ncurses", "vim"} {
		data, err := os.ReadFile(filepath.Join(staging, name, name+".tar.gz"))
		if err != nil {
			t.Errorf("%s not staged: %v", name, err)
			continue
		}
		if string(data) != "artifact /"+name {
			t.Errorf("%s artifact = %q", name, data)
		}
	}

	store, err := history.Open(cfg.HistoryFile())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	last, err := store.Last()
	if err != nil || last == nil {
		t.Fatalf("history not recorded: %v", err)
	}
	if last.Root != "vim" || !last.Success || last.Origin != "https://example.invalid/catalog.git" {
		t.Errorf("unexpected history entry %+v", last)
	}
}

func TestInstallDryRun(t *testing.T) {
	cfgPath, staging := writeEnv(t, catalogPackage{name: "vim"})

	out, err := run(t, "--config", cfgPath, "--dry-run", "install", "vim")
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if !strings.Contains(out, "Dry run") {
		t.Errorf("expected dry run notice: %q", out)
	}
	if _, err := os.Stat(staging); !os.IsNotExist(err) {
		t.Error("dry run should not create the staging directory")
	}
}

func TestInstallUnknownPackage(t *testing.T) {
	cfgPath, _ := writeEnv(t, catalogPackage{name: "vim"})

	_, err := run(t, "--config", cfgPath, "--yes", "install", "emacs")
	if !errors.Is(err, repository.ErrPackageNotFound) {
		t.Fatalf("expected ErrPackageNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "unable to find package emacs") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestInstallRejectsBadOrder(t *testing.T) {
	cfgPath, _ := writeEnv(t, catalogPackage{name: "vim"})

	if _, err := run(t, "--config", cfgPath, "--order", "sideways", "install", "vim"); err == nil {
		t.Error("expected an error for an unknown order")
	}
}

func TestHistoryCommand(t *testing.T) {
	cfgPath, _ := writeEnv(t, catalogPackage{name: "vim"})

	if _, err := run(t, "--config", cfgPath, "-y", "install", "vim"); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--config", cfgPath, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "install") || !strings.Contains(out, "vim") {
		t.Errorf("history should list the install: %q", out)
	}

	if _, err := run(t, "--config", cfgPath, "history", "--clear"); err != nil {
		t.Fatal(err)
	}
	out, _ = run(t, "--config", cfgPath, "history")
	if !strings.Contains(out, "No history entries") {
		t.Errorf("history should be empty after --clear: %q", out)
	}
}

func TestDoctor(t *testing.T) {
	cfgPath, _ := writeEnv(t, catalogPackage{name: "vim"})

	out, err := run(t, "--config", cfgPath, "doctor")
	if err != nil {
		t.Fatalf("doctor failed: %v", err)
	}
	for _, want := range []string{"Origin: https://example.invalid/catalog.git", "lists 1 packages", "is writable"} {
		if !strings.Contains(out, want) {
			t.Errorf("doctor output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Last install") {
		t.Errorf("no install has run yet:\n%s", out)
	}

	if _, err := run(t, "--config", cfgPath, "-y", "install", "vim"); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "--config", cfgPath, "doctor")
	if err != nil {
		t.Fatalf("doctor failed: %v", err)
	}
	if !strings.Contains(out, "Last install") || !strings.Contains(out, "install vim [success]") {
		t.Errorf("doctor should report the last install:\n%s", out)
	}
}

func TestHistoryShow(t *testing.T) {
	cfgPath, _ := writeEnv(t,
		catalogPackage{name: "vim", depends: []string{"ncurses"}},
		catalogPackage{name: "ncurses"},
	)

	if _, err := run(t, "--config", cfgPath, "-y", "install", "vim"); err != nil {
		t.Fatal(err)
	}

	store, err := history.Open(cfg.HistoryFile())
	if err != nil {
		t.Fatal(err)
	}
	last, err := store.Last()
	store.Close()
	if err != nil || last == nil {
		t.Fatalf("history not recorded: %v", err)
	}

	out, err := run(t, "--config", cfgPath, "history", "show", last.ID[:8])
	if err != nil {
		t.Fatalf("history show failed: %v", err)
	}
	for _, want := range []string{last.ID, "https://example.invalid/catalog.git", "ncurses vim", "success"} {
		if !strings.Contains(out, want) {
			t.Errorf("history show missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "--config", cfgPath, "history")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, last.ID[:8]) {
		t.Errorf("history list should show the short ID:\n%s", out)
	}

	if _, err := run(t, "--config", cfgPath, "history", "show", "zzzz"); !errors.Is(err, history.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestInstallPrunesHistory(t *testing.T) {
	cfgPath, _ := writeEnv(t, catalogPackage{name: "vim"})
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	content := strings.Replace(string(data), "[history]\n", "[history]\nmax_age = \"24h\"\n", 1)
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(filepath.Dir(cfgPath), "history.db")
	store, err := history.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	old := history.NewEntry(history.OpInstall, "emacs")
	old.Timestamp = time.Now().Add(-72 * time.Hour)
	if err := store.Record(old); err != nil {
		t.Fatal(err)
	}
	store.Close()

	if _, err := run(t, "--config", cfgPath, "-y", "install", "vim"); err != nil {
		t.Fatal(err)
	}

	store, err = history.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if count, _ := store.Count(); count != 1 {
		t.Errorf("expected only the new entry, got %d entries", count)
	}
	if _, err := store.Get(old.ID); !errors.Is(err, history.ErrEntryNotFound) {
		t.Errorf("old entry should be pruned, got %v", err)
	}
}

// stubPrivileges fakes the privilege checks for one test.
func stubPrivileges(t *testing.T, root, sudo bool, fn func(context.Context, []string) error) {
	t.Helper()
	oldRoot, oldSudo, oldElevate := isRoot, canSudo, elevate
	isRoot = func() bool { return root }
	canSudo = func() bool { return sudo }
	elevate = fn
	t.Cleanup(func() { isRoot, canSudo, elevate = oldRoot, oldSudo, oldElevate })
}

// blockStaging moves the configured staging dir below a regular file so
// no user can create it.
func blockStaging(t *testing.T, cfgPath, staging string) string {
	t.Helper()

	blocker := filepath.Join(filepath.Dir(staging), "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	blocked := filepath.Join(blocker, "staging")

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfgPath, []byte(strings.Replace(string(data), staging, blocked, 1)), 0644); err != nil {
		t.Fatal(err)
	}
	return blocked
}

func noElevation(t *testing.T) func(context.Context, []string) error {
	return func(context.Context, []string) error {
		t.Error("install should not re-run itself")
		return nil
	}
}

func TestInstallWithoutPrivileges(t *testing.T) {
	cfgPath, staging := writeEnv(t, catalogPackage{name: "vim"})
	blockStaging(t, cfgPath, staging)
	stubPrivileges(t, false, false, noElevation(t))

	out, err := run(t, "--config", cfgPath, "-y", "install", "vim")
	if !errors.Is(err, executor.ErrNoPrivileges) || !tuxerr.Is(err, tuxerr.KindIO) {
		t.Fatalf("expected ErrNoPrivileges, got %v", err)
	}
	if strings.Contains(out, "will be installed") {
		t.Errorf("nothing should be resolved without privileges:\n%s", out)
	}
}

func TestInstallElevatesThroughSudo(t *testing.T) {
	cfgPath, staging := writeEnv(t, catalogPackage{name: "vim"})
	blockStaging(t, cfgPath, staging)

	var got []string
	stubPrivileges(t, false, true, func(_ context.Context, args []string) error {
		got = args
		return nil
	})

	out, err := run(t, "--config", cfgPath, "-y", "--order", "raw", "install", "vim")
	if err != nil {
		t.Fatalf("elevated install failed: %v", err)
	}

	want := []string{"--config", cfgPath, "--yes", "--order", "raw", "install", "vim"}
	if !slices.Equal(got, want) {
		t.Errorf("elevated args = %q, want %q", got, want)
	}
	if strings.Contains(out, "will be installed") {
		t.Errorf("the parent should leave the install to the elevated run:\n%s", out)
	}
	if _, err := os.Stat(cfg.HistoryFile()); !os.IsNotExist(err) {
		t.Error("the parent should not record history")
	}
}

func TestInstallElevatedFailureIsNotRepeated(t *testing.T) {
	cfgPath, staging := writeEnv(t, catalogPackage{name: "vim"})
	blockStaging(t, cfgPath, staging)
	stubPrivileges(t, false, true, func(context.Context, []string) error {
		return exec.Command("sh", "-c", "exit 3").Run()
	})

	_, err := run(t, "--config", cfgPath, "-y", "install", "vim")
	if !errors.Is(err, errReported) {
		t.Fatalf("expected the child's failure to count as reported, got %v", err)
	}
	if tuxerr.ExitCode(err) != 1 {
		t.Errorf("exit code = %d, want 1", tuxerr.ExitCode(err))
	}
}

func TestInstallAsRootSkipsElevation(t *testing.T) {
	cfgPath, staging := writeEnv(t, catalogPackage{name: "vim"})
	blockStaging(t, cfgPath, staging)
	stubPrivileges(t, true, true, noElevation(t))

	_, err := run(t, "--config", cfgPath, "-y", "install", "vim")
	if !tuxerr.Is(err, tuxerr.KindIO) || errors.Is(err, executor.ErrNoPrivileges) {
		t.Errorf("root should go straight to staging and fail there, got %v", err)
	}
}

func TestFormatPackages(t *testing.T) {
	tests := []struct {
		packages []string
		want     string
	}{
		{[]string{"vim"}, "vim"},
		{nil, "vim"},
		{[]string{"ncurses", "vim"}, "vim [ncurses]"},
		{[]string{"a", "b", "c", "d", "vim"}, "vim (+4 dependencies)"},
	}

	for _, tt := range tests {
		if got := formatPackages("vim", tt.packages); got != tt.want {
			t.Errorf("formatPackages(%v) = %q, want %q", tt.packages, got, tt.want)
		}
	}
}
