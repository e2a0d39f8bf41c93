package pattern

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const extraRegionYAML = `
name: "germanophone"
version: "1.0.0"
regions:
  - canonical: "GERMANOPHONE"
    aliases:
      - "germanophone"
      - "de langue allemande"
document_types:
  erlass: "ARRETE"
`

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()
	if registry == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if registry.Count() != 0 {
		t.Errorf("Count() = %d, want 0", registry.Count())
	}
	if registry.Matcher() == nil {
		t.Fatal("Matcher() should serve the built-in vocabulary")
	}
	if _, ok := registry.Matcher().Regions().Canonical("wallone"); !ok {
		t.Error("built-in matcher should know the wallone spelling")
	}
}

func TestRegistryRegister(t *testing.T) {
	registry := NewRegistry()

	vocabulary := &Vocabulary{
		Name:    "extra",
		Version: "1.0.0",
		Regions: []RegionAlias{{Canonical: "GERMANOPHONE", Aliases: []string{"germanophone"}}},
	}

	before := registry.Matcher()
	if err := registry.Register(vocabulary); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if registry.Count() != 1 {
		t.Errorf("Count() = %d, want 1", registry.Count())
	}
	if registry.Matcher() == before {
		t.Error("Register() should publish a new matcher")
	}
	if got, ok := registry.Matcher().Regions().Canonical("Germanophone"); !ok || got != "GERMANOPHONE" {
		t.Errorf("Canonical(Germanophone) = %q, %v", got, ok)
	}
	if _, ok := before.Regions().Canonical("germanophone"); ok {
		t.Error("previous matcher must not change")
	}

	if err := registry.Register(nil); err == nil {
		t.Error("Register(nil) should return error")
	}
}

func TestRegistryRegisterInvalidVocabulary(t *testing.T) {
	registry := NewRegistry()

	tests := []struct {
		name       string
		vocabulary *Vocabulary
	}{
		{"missing name", &Vocabulary{Version: "1"}},
		{"empty canonical", &Vocabulary{Name: "x", Regions: []RegionAlias{{Aliases: []string{"a"}}}}},
		{"empty alias", &Vocabulary{Name: "x", Regions: []RegionAlias{{Canonical: "A", Aliases: []string{" "}}}}},
		{"empty document type", &Vocabulary{Name: "x", DocumentTypes: map[string]string{"loi": ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := registry.Register(tt.vocabulary); err == nil {
				t.Error("Register() invalid vocabulary should return error")
			}
		})
	}
}

func TestRegistryUnregister(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(&Vocabulary{Name: "extra", Regions: []RegionAlias{{Canonical: "X", Aliases: []string{"ix"}}}}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := registry.Unregister("extra"); err != nil {
		t.Errorf("Unregister() error = %v", err)
	}
	if _, ok := registry.Matcher().Regions().Canonical("ix"); ok {
		t.Error("alias should be gone after Unregister()")
	}
	if err := registry.Unregister("extra"); err == nil {
		t.Error("Unregister() unknown vocabulary should return error")
	}
}

func TestRegistryListIsSorted(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mu"} {
		if err := registry.Register(&Vocabulary{Name: name}); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}

	list := registry.List()
	if len(list) != 3 {
		t.Fatalf("List() len = %d, want 3", len(list))
	}
	want := []string{"alpha", "mu", "zeta"}
	for i, v := range list {
		if v.Name != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, v.Name, want[i])
		}
	}
}

func TestRegistryLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "germanophone.yaml")
	if err := os.WriteFile(path, []byte(extraRegionYAML), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	registry := NewRegistry()
	if err := registry.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	v, ok := registry.Get("germanophone")
	if !ok {
		t.Fatal("Get() should find loaded vocabulary")
	}
	if len(v.Regions) != 1 || v.Regions[0].Canonical != "GERMANOPHONE" {
		t.Errorf("Regions = %+v", v.Regions)
	}

	matcher := registry.Matcher()
	if got, ok := matcher.Regions().Canonical("de langue allemande"); !ok || got != "GERMANOPHONE" {
		t.Errorf("Canonical() = %q, %v", got, ok)
	}
	if got, ok := matcher.DocumentType("erlass"); !ok || got != "ARRETE" {
		t.Errorf("DocumentType(erlass) = %q, %v", got, ok)
	}
	if got, ok := matcher.DocumentType("loi"); !ok || got != "LOI" {
		t.Errorf("built-in DocumentType(loi) = %q, %v", got, ok)
	}
}

func TestRegistryLoadFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("name: [unterminated"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := NewRegistry().LoadFile(path); err == nil {
		t.Error("LoadFile() invalid YAML should return error")
	}
}

func TestRegistryLoadDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	files := map[string]string{
		"a.yaml":    "name: a\nregions:\n  - canonical: A\n    aliases: [aa]\n",
		"b.yml":     "name: b\nregions:\n  - canonical: B\n    aliases: [bb]\n",
		"notes.txt": "This should be ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
	}

	registry := NewRegistry()
	if err := registry.LoadDirectory(tmpDir); err != nil {
		t.Errorf("LoadDirectory() error = %v", err)
	}
	if registry.Count() != 2 {
		t.Errorf("Count() = %d, want 2", registry.Count())
	}
}

func TestRegistryLoadDirectoryNonExistent(t *testing.T) {
	registry := NewRegistry()

	if err := registry.LoadDirectory("/non/existent/path"); err != nil {
		t.Errorf("LoadDirectory() non-existent should not error, got: %v", err)
	}
	if registry.Count() != 0 {
		t.Errorf("Count() = %d, want 0", registry.Count())
	}
}

func TestRegistryReload(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "extra.yaml")
	if err := os.WriteFile(path, []byte("name: extra\nversion: \"1\"\nregions:\n  - canonical: A\n    aliases: [first]\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	registry, err := NewRegistryWithDirectory(tmpDir)
	if err != nil {
		t.Fatalf("NewRegistryWithDirectory() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("name: extra\nversion: \"2\"\nregions:\n  - canonical: A\n    aliases: [second]\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := registry.Reload(); err != nil {
		t.Errorf("Reload() error = %v", err)
	}

	v, _ := registry.Get("extra")
	if v.Version != "2" {
		t.Errorf("Version after reload = %q, want 2", v.Version)
	}
	if _, ok := registry.Matcher().Regions().Canonical("first"); ok {
		t.Error("stale alias survived Reload()")
	}
}

func TestRegistryReloadNoDirectory(t *testing.T) {
	if err := NewRegistry().Reload(); err == nil {
		t.Error("Reload() without directory should return error")
	}
}

func TestRegistryWatch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping watch test in short mode")
	}

	tmpDir := t.TempDir()
	registry, err := NewRegistryWithDirectory(tmpDir)
	if err != nil {
		t.Fatalf("NewRegistryWithDirectory() error = %v", err)
	}

	changed := make(chan *Matcher, 1)
	registry.SetOnChange(func(event string, matcher *Matcher) {
		select {
		case changed <- matcher:
		default:
		}
	})

	if err := registry.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer registry.StopWatch()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(tmpDir, "germanophone.yaml"), []byte(extraRegionYAML), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case <-changed:
		time.Sleep(100 * time.Millisecond)
	case <-time.After(3 * time.Second):
		t.Log("Watch() did not detect file change within timeout (may be CI environment)")
		return
	}

	if _, ok := registry.Matcher().Regions().Canonical("germanophone"); !ok {
		t.Error("watched vocabulary should be served by the new matcher")
	}
}

func TestRegistryWatchNoDirectory(t *testing.T) {
	if err := NewRegistry().Watch(); err == nil {
		t.Error("Watch() without directory should return error")
	}
}

func TestRegistryClear(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(&Vocabulary{Name: "extra"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	registry.Clear()

	if registry.Count() != 0 {
		t.Errorf("Count() after Clear() = %d, want 0", registry.Count())
	}
}
