package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Fails bool   `yaml:"-"`
}

func (s *sample) Validate() error {
	if s.Fails || s.Port == 0 {
		return errors.New("port is required")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("CONFIG_TEST_NAME", "notes")
	path := writeFile(t, "name: ${CONFIG_TEST_NAME}\nport: 8080\n")

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Name != "notes" || s.Port != 8080 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	path := writeFile(t, "name: x\n")

	var s sample
	if err := Load(path, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "name: [unterminated\n")

	var s sample
	if err := Load(path, &s); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadIfExists(t *testing.T) {
	s := sample{Port: 9000}
	found, err := LoadIfExists(filepath.Join(t.TempDir(), "missing.yaml"), &s)
	if err != nil || found {
		t.Fatalf("missing file: found=%v err=%v", found, err)
	}
	if s.Port != 9000 {
		t.Errorf("defaults changed: %+v", s)
	}

	s.Fails = true
	if _, err := LoadIfExists(filepath.Join(t.TempDir(), "missing.yaml"), &s); err == nil {
		t.Error("defaults must still be validated")
	}

	path := writeFile(t, "port: 7000\n")
	s = sample{Port: 9000}
	found, err = LoadIfExists(path, &s)
	if err != nil || !found || s.Port != 7000 {
		t.Errorf("existing file: found=%v err=%v s=%+v", found, err, s)
	}
}
