package form

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := defaults(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan struct{}, 4)
	errs := make(chan error, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, r,
			func() {
				select {
				case reloaded <- struct{}{}:
				default:
				}
			},
			func(err error) {
				select {
				case errs <- err:
				default:
				}
			},
		)
	}()

	raw, _ := defaultsFS.ReadFile("defaults/complaint-v1.yaml")
	custom := strings.Replace(string(raw), "platform: PENASLOT", "platform: WATCHSLOT", 1)

	// The watcher registers asynchronously.  Rewrite the file every second,
	// which is well past WatchDebounce, until a reload lands.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	path := filepath.Join(dir, "v1.yaml")
wait:
	for {
		if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case <-reloaded:
			break wait
		case err := <-errs:
			t.Fatalf("reload error: %v", err)
		case <-deadline:
			t.Fatal("no reload within 5s")
		case <-tick.C:
		}
	}

	fd, _ := r.Get("complaint/v1")
	if fd.Platform != "WATCHSLOT" {
		t.Fatalf("platform = %q after reload", fd.Platform)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "absent"), NewRegistry(), nil, nil)
	if err == nil {
		t.Fatal("expected error for a missing directory")
	}
}
