package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsg1/fmms/domain/revision"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeEdit(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edit.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write edit: %v", err)
	}
	return path
}

const edit = `{
  "code": "JOS", "name": "Java on steroids", "credits": 4,
  "topics": ["Do some stuff"],
  "assessmentComponents": [{"code": "BUKI", "weight": 1.0, "minimumGrade": 5.5}],
  "learningGoals": [{"text": "explain major concepts", "weight": 1.0}],
  "constituentPartMappings": [{"learningGoal": 1, "assessmentComponent": "BUKI"}]
}`

func TestPlanCommand_JSON(t *testing.T) {
	out, err := runCmd(t, "plan", "--module", "9", "--file", writeEdit(t, edit), "--format", "json")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	var plan revision.Plan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("output is not a plan: %v\n%s", err, out)
	}
	if len(plan) == 0 || plan[0].Kind != revision.UpdateScalarRow || plan[0].Table != "module" {
		t.Fatalf("plan = %v", plan)
	}
	if got := plan.Count(revision.DeleteChildRows); got != 7 {
		t.Errorf("deletes = %d, want 7", got)
	}
	for _, op := range plan {
		if op.ModuleID != 9 {
			t.Errorf("%s: module = %d, want 9", op, op.ModuleID)
		}
	}
}

func TestPlanCommand_Table(t *testing.T) {
	out, err := runCmd(t, "plan", "--module", "9", "--file", writeEdit(t, edit), "--format", "table")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, want := range []string{"KIND", "module_topic", "learning_goal_assessment", "1 update, 7 delete"} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
}

func TestPlanCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"invalid document", []string{"plan", "--module", "9", "--file", writeEdit(t, `{"code":"JOS"}`), "--format", "json"}},
		{"malformed JSON", []string{"plan", "--module", "9", "--file", writeEdit(t, `{`), "--format", "json"}},
		{"missing file", []string{"plan", "--module", "9", "--file", "/does/not/exist.json", "--format", "json"}},
		{"unknown format", []string{"plan", "--module", "9", "--file", writeEdit(t, edit), "--format", "xml"}},
		{"bad module id", []string{"plan", "--module", "0", "--file", writeEdit(t, edit), "--format", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCmd(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fmms.yaml")
	yaml := "database:\n  dsn: " + filepath.Join(dir, "fmms.db") + "\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := runCmd(t, "validate", "--config", path, "--check-database")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Database ready") || !strings.Contains(out, "Configuration is valid") {
		t.Errorf("output = %s", out)
	}
}

func TestValidateCommand_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fmms.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 70000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := runCmd(t, "validate", "--config", path, "--check-database=false"); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fmms.yaml")
	yaml := "database:\n  dsn: " + filepath.Join(dir, "fmms.db") + "\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := runCmd(t, "migrate", "--config", path)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "Applied 2 migration(s)") {
		t.Errorf("output = %s", out)
	}

	out, err = runCmd(t, "migrate", "--config", path)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if !strings.Contains(out, "No pending migrations") {
		t.Errorf("output = %s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "fmms dev") {
		t.Errorf("output = %q", out)
	}
}
