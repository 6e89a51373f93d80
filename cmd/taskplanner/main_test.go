package main

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T) *cli {
	dir := t.TempDir()
	return &cli{
		t: t,
		base: []string{
			"--config", filepath.Join(dir, "config.yaml"),
			"--backend", "file",
			"--data-dir", filepath.Join(dir, "data"),
		},
	}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(append([]string{}, c.base...), args...))
	err := cmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	if err != nil {
		c.t.Fatalf("%v: %v", args, err)
	}
	return out
}

var addedID = regexp.MustCompile(`Added (\S+) `)

func TestCLISessionSurvivesRestart(t *testing.T) {
	c := newCLI(t)

	c.mustRun("signup", "-u", "alice", "-p", "pw1")
	if out := c.mustRun("whoami"); strings.TrimSpace(out) != "alice" {
		t.Errorf("whoami = %q", out)
	}
	c.mustRun("logout")
	if out := c.mustRun("whoami"); !strings.Contains(out, "Not logged in") {
		t.Errorf("whoami after logout = %q", out)
	}
	if _, err := c.run("", "list"); err == nil {
		t.Error("list without a session succeeded")
	}

	if _, err := c.run("", "login", "-u", "alice", "-p", "wrong"); err == nil {
		t.Error("login with wrong password succeeded")
	}
	out, err := c.run("pw1\n", "login", "-u", "alice")
	if err != nil {
		t.Fatalf("login with stdin password: %v", err)
	}
	if !strings.Contains(out, "Welcome, alice!") {
		t.Errorf("login output = %q", out)
	}
}

func TestCLITaskCommands(t *testing.T) {
	c := newCLI(t)
	c.mustRun("signup", "-u", "alice", "-p", "pw1")

	var ids []string
	for _, args := range [][]string{
		{"add", "write", "report", "-P", "medium"},
		{"add", "pay rent", "-P", "high", "--deadline", "2026-11-01", "--urgent"},
		{"add", "read", "-P", "low", "-c", "study"},
	} {
		m := addedID.FindStringSubmatch(c.mustRun(args...))
		if m == nil {
			t.Fatalf("%v: no id in output", args)
		}
		ids = append(ids, m[1])
	}

	c.mustRun("done", ids[0])
	c.mustRun("comment", ids[1], "call", "landlord")
	c.mustRun("rm", ids[2])
	if out := c.mustRun("rm", ids[2]); !strings.Contains(out, "No task") {
		t.Errorf("second rm = %q", out)
	}

	out := c.mustRun("list", "--filter", "pending")
	if !strings.Contains(out, "pay rent (urgent)") || strings.Contains(out, "write report") {
		t.Errorf("pending list = %q", out)
	}

	out = c.mustRun("sort")
	if strings.Index(out, "pay rent") > strings.Index(out, "write report") {
		t.Errorf("sort did not put high first:\n%s", out)
	}

	out = c.mustRun("export", "--format", "csv")
	if !strings.HasPrefix(out, "id,title,") || strings.Count(out, "\n") != 3 {
		t.Errorf("csv export = %q", out)
	}

	if _, err := c.run("", "add", "bad", "-P", "urgent"); err == nil {
		t.Error("invalid priority accepted")
	}
	if _, err := c.run("", "list", "--filter", "overdue"); err == nil {
		t.Error("invalid filter accepted")
	}
}

func TestCLIRemindDryRun(t *testing.T) {
	c := newCLI(t)
	c.mustRun("signup", "-u", "alice", "-p", "pw1")
	c.mustRun("add", "overdue thing", "--deadline", "2000-01-01")
	c.mustRun("add", "far away", "--deadline", "2999-01-01")

	out := c.mustRun("remind", "--dry-run")
	if !strings.Contains(out, "overdue thing") || strings.Contains(out, "far away") {
		t.Errorf("digest = %q", out)
	}
	if _, err := c.run("", "remind"); err == nil {
		t.Error("remind without --to succeeded")
	}
}

func TestCLIThemeAndConfig(t *testing.T) {
	c := newCLI(t)

	if out := c.mustRun("theme"); strings.TrimSpace(out) != "light" {
		t.Errorf("theme = %q", out)
	}
	if out := c.mustRun("theme", "toggle"); strings.TrimSpace(out) != "dark" {
		t.Errorf("toggle = %q", out)
	}
	if out := c.mustRun("theme"); strings.TrimSpace(out) != "dark" {
		t.Errorf("theme not persisted: %q", out)
	}
	if _, err := c.run("", "theme", "sepia"); err == nil {
		t.Error("unknown theme accepted")
	}

	if out := c.mustRun("config", "init"); !strings.Contains(out, "config.yaml") {
		t.Errorf("config init = %q", out)
	}
}
