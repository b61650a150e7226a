package form

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yanizio/complaintdesk/internal/complaint"
)

func TestRenderForm(t *testing.T) {
	fd, _ := defaults(t).Get("complaint/v1")

	out, err := RenderForm(fd, RenderOptions{
		Values: map[string]string{
			complaint.FieldUsername:    `<b>x</b>`,
			complaint.FieldIssueType:   "Kerusakan Game",
			complaint.FieldDescription: "abc",
		},
		Errors: map[string]string{complaint.FieldEmail: "Email tidak valid"},
		Token:  "tok123",
		Today:  "2026-10-18",
	})
	if err != nil {
		t.Fatalf("RenderForm: %v", err)
	}
	s := string(out)

	mustContain := []string{
		`id="fld-username"`,
		`value="&lt;b&gt;x&lt;/b&gt;"`,
		`<option value="Kerusakan Game" selected>`,
		`<p class="error" aria-live="polite">Email tidak valid</p>`,
		`name="csrf_token" value="tok123"`,
		`type="date" required max="2026-10-18"`,
		`<p class="counter">3/2000</p>`,
		`maxlength="50"`,
	}
	for _, want := range mustContain {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(s, "<b>x</b>") {
		t.Errorf("value not escaped")
	}
	if strings.Contains(s, " disabled") {
		t.Errorf("controls disabled without Disabled option")
	}
}

func TestRenderForm_Disabled(t *testing.T) {
	fd, _ := defaults(t).Get("complaint/v2")
	out, err := RenderForm(fd, RenderOptions{Disabled: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(out), " disabled"); got != len(fd.Fields) {
		t.Fatalf("disabled count = %d, want %d", got, len(fd.Fields))
	}
	if strings.Contains(string(out), "csrf_token") {
		t.Fatalf("hidden token rendered without Token")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	r := defaults(t)

	reloaded := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, r, func() {
			select {
			case reloaded <- struct{}{}:
			default:
			}
		}, nil)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	raw, _ := defaultsFS.ReadFile("defaults/complaint-v1.yaml")
	doc := strings.Replace(string(raw), "id: complaint/v1", "id: complaint/v3", 1)
	if err := os.WriteFile(filepath.Join(dir, "v3.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatalf("no reload within 5s")
	}
	if _, ok := r.Get("complaint/v3"); !ok {
		t.Fatalf("new variant not registered: %v", r.IDs())
	}
}
