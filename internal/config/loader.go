// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from four layers (highest
precedence last):

  1. Built-in defaults (defaults.go).
  2. Optional `.env` file at `<root>/conf/.env`.
  3. `conf/global.yaml`, when present.
  4. Environment variables prefixed `COMPLAINT_`, where `__` maps to “.”
     (e.g., `COMPLAINT_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, every string value that starts with `vault:` is swapped for
the secret it names, the tree is unmarshalled into strongly-typed structs,
validated, enriched with the runtime root path, and cached in an
`atomic.Pointer` for lock-free reads.  `Reload()` simply calls `Load()`
again and swaps the pointer.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, env overlay, secret lookups.
  • ERROR spans: YAML parse, env overlay, secrets, unmarshal, validation.
  • INFO  span:  final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "COMPLAINT_"

// VaultPrefix marks a value to be resolved as a secret reference.
const VaultPrefix = "vault:"

// SecretResolver turns a `vault:` reference (without the prefix) into its
// secret value.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

var (
	current atomic.Pointer[Config]
	secrets atomic.Pointer[SecretResolver]
)

// UseSecrets installs the resolver used for `vault:` values.  Passing nil
// removes it.
func UseSecrets(r SecretResolver) {
	if r == nil {
		secrets.Store(nil)
		return
	}
	secrets.Store(&r)
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves COMPLAINT_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to executable heuristic for
// production layout.
func rootDir() string {
	if r := os.Getenv("COMPLAINT_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads every layer from the discovered root, validates, and caches
// the Config.
func Load() (*Config, error) {
	return LoadFrom(context.Background(), rootDir())
}

// LoadFrom is Load with an explicit root.
func LoadFrom(ctx context.Context, root string) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, err
		}
	}

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if _, err := os.Stat(yamlPath); errors.Is(err, fs.ErrNotExist) {
		zap.S().Debugw("config yaml absent, using defaults", "file", yamlPath)
	} else {
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, err
		}
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	// Env overrides: COMPLAINT_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"backend", cfg.Backend.BaseURL,
		"variant", cfg.Form.Variant,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveSecrets rewrites every `vault:` string in k.
func resolveSecrets(ctx context.Context, k *koanf.Koanf) error {
	for key, val := range k.All() {
		s, ok := val.(string)
		if !ok || !strings.HasPrefix(s, VaultPrefix) {
			continue
		}
		rp := secrets.Load()
		if rp == nil {
			return fmt.Errorf("%s: %q needs a secret resolver (set VAULT_ADDR)", key, s)
		}
		plain, err := (*rp).ResolveSecret(ctx, strings.TrimPrefix(s, VaultPrefix))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := k.Set(key, plain); err != nil {
			return err
		}
		zap.S().Debugw("config secret resolved", "key", key)
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }

// NeedsSecrets reports whether any layer of the discovered root contains a
// `vault:` reference.  cmd/web uses it to decide whether to dial Vault.
func NeedsSecrets(root string) bool {
	if raw, err := os.ReadFile(filepath.Join(root, "conf", "global.yaml")); err == nil {
		for _, line := range strings.Split(string(raw), "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "#") && strings.Contains(line, VaultPrefix) {
				return true
			}
		}
	}
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, EnvPrefix) && strings.Contains(kv, "="+VaultPrefix) {
			return true
		}
	}
	return false
}

// RootDir exposes root discovery to entry points.
func RootDir() string { return rootDir() }
