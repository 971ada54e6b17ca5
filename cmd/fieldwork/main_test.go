package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	uploadsDir string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))

	uploads := filepath.Join(base, "uploads")
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[sync]
destination = %q

[logging]
format = "json"
level = "error"
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		uploads,
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{baseDir: base, configPath: configPath, uploadsDir: uploads}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeQuestions(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "questions.json")
	payload := `[
		{"id": "q1", "type": "text", "prompt": "Respondent name?", "required": true},
		{"id": "q2", "type": "multiple_choice", "prompt": "District", "required": true, "options": ["north", "south"]},
		{"id": "q3", "type": "text", "prompt": "Comments"}
	]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write questions: %v", err)
	}
	return path
}

func writeAnswers(t *testing.T, dir string, answers map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, "answers.json")
	data, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("marshal answers: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write answers: %v", err)
	}
	return path
}

func TestCLICollectSyncAndInspect(t *testing.T) {
	env := setupCLITestEnv(t)
	questions := writeQuestions(t, env.baseDir)
	answers := writeAnswers(t, env.baseDir, map[string]any{
		"q1": "Ann",
		"q2": "north",
	})

	out, _, err := runCLI(t, env.configPath,
		"collect", "--id", "survey-1", "--questions", questions, "--answers", answers, "--notes", "first visit")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !strings.Contains(out, "Survey survey-1 stored") {
		t.Fatalf("unexpected collect output: %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "packets", "list")
	if err != nil {
		t.Fatalf("packets list: %v", err)
	}
	if !strings.Contains(out, "survey-1") || !strings.Contains(out, "pending") {
		t.Fatalf("packet missing from list: %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "packets", "show", "survey-1")
	if err != nil {
		t.Fatalf("packets show: %v", err)
	}
	var packet map[string]any
	if err := json.Unmarshal([]byte(out), &packet); err != nil {
		t.Fatalf("show output is not JSON: %v\n%s", err, out)
	}
	if packet["survey_id"] != "survey-1" || packet["notes"] != "first visit" {
		t.Fatalf("unexpected packet payload: %v", packet)
	}
	if packet["verification"] == nil {
		t.Fatalf("verification record missing: %v", packet)
	}

	out, _, err = runCLI(t, env.configPath, "sync")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !strings.Contains(out, "Synced 1 of 1") {
		t.Fatalf("unexpected sync output: %q", out)
	}

	matches, err := filepath.Glob(filepath.Join(env.uploadsDir, "surveys", "*", "*", "*", "survey-1_*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one uploaded file, got %v (err %v)", matches, err)
	}

	out, _, err = runCLI(t, env.configPath, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status map[string]any
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("status output is not JSON: %v\n%s", err, out)
	}
	if status["synced"] != float64(1) || status["pending"] != float64(0) {
		t.Fatalf("unexpected status counts: %v", status)
	}
	if status["uploader"] != "dir" || status["online"] != true {
		t.Fatalf("unexpected status fields: %v", status)
	}

	out, _, err = runCLI(t, env.configPath, "packets", "clear", "--synced")
	if err != nil {
		t.Fatalf("packets clear --synced: %v", err)
	}
	if !strings.Contains(out, "Removed 1 packet(s)") {
		t.Fatalf("unexpected clear output: %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "packets", "list")
	if err != nil {
		t.Fatalf("packets list after clear: %v", err)
	}
	if !strings.Contains(out, "No packets stored") {
		t.Fatalf("store should be empty: %q", out)
	}
}

func TestCLICollectRejectsMissingRequiredAnswer(t *testing.T) {
	env := setupCLITestEnv(t)
	questions := writeQuestions(t, env.baseDir)
	answers := writeAnswers(t, env.baseDir, map[string]any{"q1": "Ann"})

	_, _, err := runCLI(t, env.configPath,
		"collect", "--id", "survey-1", "--questions", questions, "--answers", answers)
	if err == nil {
		t.Fatal("expected failure for unanswered required question")
	}
	if !strings.Contains(err.Error(), "q2") {
		t.Fatalf("error should name the blocking question: %v", err)
	}

	out, _, listErr := runCLI(t, env.configPath, "packets", "list")
	if listErr != nil {
		t.Fatalf("packets list: %v", listErr)
	}
	if !strings.Contains(out, "No packets stored") {
		t.Fatalf("failed collect must not persist a packet: %q", out)
	}
}

func TestCLIConfigInit(t *testing.T) {
	setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite must fail")
	}
	if _, _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init --overwrite: %v", err)
	}
}
