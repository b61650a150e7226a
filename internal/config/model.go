// internal/config/model.go
//
// Typed configuration model for complaintdesk.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from four overlay layers:
//
//   • built-in defaults                           – see defaults.go,
//   • optional `.env`                             – dotenv values,
//   • `conf/global.yaml`                          – primary static file,
//   • `COMPLAINT_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the secret resolver *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"path/filepath"
	"strings"
	"time"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr      string        `koanf:"listen_addr"      validate:"required,hostname_port"`
	ForceHTTPS      bool          `koanf:"force_https"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"gte=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

//
// Backend section
//

// Backend points at the remote support backend.  Timeout 0 means the
// frontend waits as long as the backend takes.
type Backend struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout"  validate:"gte=0"`
}

//
// Form section
//

// Form selects the variant served at "/" and where operator-supplied
// definitions live.  Variant accepts a full id ("complaint/v2") or the
// short forms "v1" and "v2".
type Form struct {
	Variant string `koanf:"variant" validate:"required,formvariant"`
	Dir     string `koanf:"dir"`
	Watch   bool   `koanf:"watch"`
}

//
// Security section
//

// Security holds the page-token key.  CSRFKey is base64 (std or url,
// padded or raw) of at least 32 bytes, usually a `vault:` reference.  Empty
// means a random key per process.
type Security struct {
	CSRFKey string `koanf:"csrf_key"`
}

//
// Session section
//

// Session bounds the in-memory visitor store.
type Session struct {
	IdleTTL       time.Duration `koanf:"idle_ttl"       validate:"gt=0"`
	MaxEntries    int           `koanf:"max_entries"    validate:"gt=0"`
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gt=0"`
}

//
// Logging section
//

// Logging controls the zap logger.  Dir is relative to Paths.Root unless
// absolute.
type Logging struct {
	Dir     string `koanf:"dir"     validate:"required"`
	Level   string `koanf:"level"   validate:"oneof=debug info warn error"`
	Console bool   `koanf:"console"`
}

//
// Geo section
//

// Geo points at an optional MaxMind country database.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or COMPLAINT_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // COMPLAINT_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Backend  Backend  `koanf:"backend"`
	Form     Form     `koanf:"form"`
	Security Security `koanf:"security"`
	Session  Session  `koanf:"session"`
	Logging  Logging  `koanf:"logging"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

// VariantID expands the short "v<N>" alias to "complaint/v<N>".
func (f Form) VariantID() string {
	if len(f.Variant) > 1 && f.Variant[0] == 'v' && !strings.Contains(f.Variant, "/") {
		return "complaint/" + f.Variant
	}
	return f.Variant
}

// Abs resolves p against the root unless it is already absolute.  Empty
// stays empty.
func (p Paths) Abs(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Root, rel)
}
