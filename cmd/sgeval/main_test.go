package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cgast/sgeval/internal/fixture"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	vocabPath := fixture.WriteVocab(t, dir)
	data, err := json.Marshal(fixture.Kitchen())
	if err != nil {
		t.Fatal(err)
	}
	scenePath := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(scenePath, data, 0644); err != nil {
		t.Fatal(err)
	}
	planPath := filepath.Join(dir, "plan.txt")
	if err := os.WriteFile(planPath, []byte("OPEN(fridge.2)\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "check",
		"--config", filepath.Join(dir, "none.yaml"), "--env", filepath.Join(dir, "none.env"),
		"--vocab", vocabPath, "--scene", scenePath, "--goal", "OPEN(fridge.2)", "--plan", planPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	for _, want := range []string{"Verdict: Correct", "[OPEN] <fridge> (2)", "+ fridge.2 OPEN", "full 1/1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".sgeval", "config.yaml")

	out, err := execute(t, "init", "--output", path)
	if err != nil {
		t.Fatalf("init: %v\n%s", err, out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "step_timeout: 10s") {
		t.Errorf("config missing step_timeout:\n%s", data)
	}

	if _, err := execute(t, "init", "--output", path); err == nil {
		t.Error("expected error when the config already exists")
	}
}

func TestShowRequiresTask(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "show",
		"--config", filepath.Join(dir, "none.yaml"), "--env", filepath.Join(dir, "none.env"),
		"--db", filepath.Join(dir, "results.db"))
	if err == nil || !strings.Contains(err.Error(), `"task"`) {
		t.Errorf("err = %v, want required flag task", err)
	}
}
