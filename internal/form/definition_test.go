// internal/form/definition_test.go
//
// Unit-tests for the YAML loader, registry, and catalog conversion.
//
// Run: go test ./internal/form -v

package form

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yanizio/complaintdesk/internal/complaint"
)

func defaults(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := r.LoadDefaults(); err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	return r
}

func TestLoadDefaults(t *testing.T) {
	r := defaults(t)

	ids := r.IDs()
	if len(ids) != 2 || ids[0] != "complaint/v1" || ids[1] != "complaint/v2" {
		t.Fatalf("ids = %v", ids)
	}

	v1, _ := r.Get("complaint/v1")
	cat := v1.Catalog()
	if cat.RequireToken {
		t.Errorf("v1 must not require the token gate")
	}
	if cat.Platform != complaint.DefaultPlatform {
		t.Errorf("platform = %q", cat.Platform)
	}
	if strings.Join(cat.IssueTypes, "|") != strings.Join(complaint.IssueTypesV1, "|") {
		t.Errorf("v1 issue types drifted from complaint.IssueTypesV1: %v", cat.IssueTypes)
	}

	v2, _ := r.Get("complaint/v2")
	cat2 := v2.Catalog()
	if !cat2.RequireToken {
		t.Errorf("v2 must require the token gate")
	}
	if strings.Join(cat2.IssueTypes, "|") != strings.Join(complaint.IssueTypesV2, "|") {
		t.Errorf("v2 issue types drifted from complaint.IssueTypesV2: %v", cat2.IssueTypes)
	}
	if cat2.Message(complaint.MsgUsernameRequired) != "Username harus diisi" {
		t.Errorf("v2 copy override missing")
	}
	if cat2.Message(complaint.MsgDateFuture) != complaint.DefaultMessages[complaint.MsgDateFuture] {
		t.Errorf("v2 should inherit default copy")
	}
}

func TestParseFormDef_StructuralErrors(t *testing.T) {
	raw, err := defaultsFS.ReadFile("defaults/complaint-v1.yaml")
	if err != nil {
		t.Fatal(err)
	}
	good := string(raw)

	cases := map[string]string{
		"missing id":     strings.Replace(good, "id: complaint/v1", "", 1),
		"unknown type":   strings.Replace(good, "type: tel", "type: phone", 1),
		"unknown field":  strings.Replace(good, "name: gameId", "name: gameTag", 1),
		"missing label":  strings.Replace(good, "label: Email", "label: \"\"", 1),
		"bad yaml":       good + "\n  - :::",
		"select options": strings.Replace(good, "type: select", "type: text", 1),
	}
	for name, doc := range cases {
		if _, err := ParseFormDef([]byte(doc), name); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadDir_OverridesAndMissing(t *testing.T) {
	r := defaults(t)

	if err := r.LoadDir(filepath.Join(t.TempDir(), "absent")); err != nil {
		t.Fatalf("missing dir should be ignored: %v", err)
	}

	raw, _ := defaultsFS.ReadFile("defaults/complaint-v1.yaml")
	custom := strings.Replace(string(raw), "platform: PENASLOT", "platform: OTHERSLOT", 1)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "v1.yaml"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	fd, _ := r.Get("complaint/v1")
	if fd.Platform != "OTHERSLOT" {
		t.Fatalf("override not applied, platform = %q", fd.Platform)
	}
}

func TestLoadDir_BadFileLeavesRegistry(t *testing.T) {
	r := defaults(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("id: x\nfields: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.LoadDir(dir); err == nil {
		t.Fatalf("expected parse error")
	}
	if len(r.IDs()) != 2 {
		t.Fatalf("registry changed: %v", r.IDs())
	}
}
