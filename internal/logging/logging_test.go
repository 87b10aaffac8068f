package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pyproject-tools/pybuild/internal/logging"
)

func TestJSONLevels(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(logging.Config{Level: "warn", Format: logging.FormatJSON, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	log.Debugf("hidden %d", 1)
	log.Infof("hidden %d", 2)
	log.With("project", "foo").Warnf("shown %d", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["level"] != "warn" || entry["message"] != "shown 3" || entry["project"] != "foo" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(logging.Config{Level: "DEBUG", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	log.Debugf("hello %s", "world")

	if !strings.Contains(buf.String(), "hello world") {
		t.Fatalf("expected message in output, got %q", buf.String())
	}
}

func TestInvalid(t *testing.T) {
	if _, err := logging.New(logging.Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
	if _, err := logging.New(logging.Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for invalid format")
	}
}

func TestNop(t *testing.T) {
	logging.NewNop().Errorf("nothing %v", "happens")
}
