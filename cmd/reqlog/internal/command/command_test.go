package command

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &out

	err := app.Run(append([]string{"reqlog"}, args...))
	return out.String(), err
}

func TestApp_Commands(t *testing.T) {
	app := App()

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}

	for _, name := range []string{"serve", "redact", "skip"} {
		if !names[name] {
			t.Errorf("missing command: %s", name)
		}
	}
}

func TestRedact_Stdin(t *testing.T) {
	out, err := runApp(t, `{"user":"a","password":"p","nested":{"apiKey":"k","note":"ok"},"items":[{"token":"t"},1]}`, "redact")
	if err != nil {
		t.Fatalf("redact failed: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("Invalid output %q: %v", out, err)
	}

	if got["user"] != "a" || got["password"] != "[REDACTED]" {
		t.Errorf("Unexpected top level %v", got)
	}
	nested := got["nested"].(map[string]any)
	if nested["apiKey"] != "[REDACTED]" || nested["note"] != "ok" {
		t.Errorf("Unexpected nested %v", nested)
	}
	items := got["items"].([]any)
	if items[0].(map[string]any)["token"] != "[REDACTED]" || items[1] != float64(1) {
		t.Errorf("Unexpected items %v", items)
	}
}

func TestRedact_FileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.json")
	if err := os.WriteFile(path, []byte(`{"ssn":"123","name":"x","amount":12.50}`), 0644); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}

	out, err := runApp(t, "", "redact", "--field", "ssn", "--marker", "***", path)
	if err != nil {
		t.Fatalf("redact failed: %v", err)
	}

	want := `{"amount":12.50,"name":"x","ssn":"***"}`
	if strings.TrimSpace(out) != want {
		t.Errorf("Expected %s, got %s", want, out)
	}
}

func TestRedact_Headers(t *testing.T) {
	out, err := runApp(t, `{"authorization":"Bearer abc","cookie":"x=1","x-real-ip":"1.2.3.4","x-api-key":"k"}`, "redact", "--headers")
	if err != nil {
		t.Fatalf("redact failed: %v", err)
	}

	want := `{"authorization":"[REDACTED]","cookie":"[REDACTED]","x-api-key":"k","x-real-ip":"1.2.3.4"}`
	if strings.TrimSpace(out) != want {
		t.Errorf("Expected %s, got %s", want, out)
	}
}

func TestRedact_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"Invalid JSON", `{"a":`, []string{"redact"}},
		{"Headers not an object", `["a"]`, []string{"redact", "--headers"}},
		{"Missing file", "", []string{"redact", filepath.Join(os.TempDir(), "reqlog-missing.json")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := runApp(t, tc.stdin, tc.args...); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestSkip(t *testing.T) {
	out, err := runApp(t, "", "skip", "--prefix", "/internal", "/health/live", "/api/health", "/internal/debug", "/assets")
	if err != nil {
		t.Fatalf("skip failed: %v", err)
	}

	want := "skip\t/health/live\nlog\t/api/health\nskip\t/internal/debug\nskip\t/assets\n"
	if out != want {
		t.Errorf("Expected %q, got %q", want, out)
	}
}

func TestSkip_NoArgs(t *testing.T) {
	if _, err := runApp(t, "", "skip"); err == nil {
		t.Error("Expected an error without paths")
	}
}

func TestServe_BadConfig(t *testing.T) {
	_, err := runApp(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "serve")
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Expected config not found error, got %v", err)
	}
}
