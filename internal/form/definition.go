// internal/form/definition.go
//
// Complaintdesk – Forms subsystem: YAML definition loader.
//
// Context
//   Each complaint form variant is declared in a YAML file.  The file names
//   the variant, the fixed platform label, the field list (labels, types,
//   placeholders, HTML5 hints, issue-type options), the error copy, and
//   whether the security-token gate applies.  Two variants ship embedded
//   under defaults/; operators may add or override variants with a
//   directory of “*.yaml” files.
//
// Workflow
//   •  Structs mirror the YAML schema: FormDef → FieldDef.
//   •  ParseFormDef / LoadFormDef parse one document and validate structural
//      rules.
//   •  Registry holds the parsed definitions by ID.  LoadDefaults seeds it
//      from the embedded files and LoadDir layers a directory on top.
//   •  Catalog converts a FormDef into the complaint.Catalog the validator
//      and session holder consume.
//
// Style
//   Comments follow the house guide: full sentences, two spaces after
//   periods, Oxford commas.  Helper comments use short noun phrases.
//
//------------------------------------------------------------------------------

package form

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yanizio/complaintdesk/internal/complaint"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one complaint form variant loaded from YAML.
type FormDef struct {
	ID       string            `yaml:"id"`        // e.g. “complaint/v1”.
	Title    string            `yaml:"title"`     // Page heading.
	Platform string            `yaml:"platform"`  // Fixed platform label.
	CSRFGate bool              `yaml:"csrf_gate"` // Require the token check before submit.
	Fields   []FieldDef        `yaml:"fields"`    // Display order.
	Messages map[string]string `yaml:"messages"`  // Overrides for complaint.DefaultMessages.
}

// FieldDef describes a single input control on the form.  Validation hints
// mirror the server rules so browsers can catch mistakes early.
type FieldDef struct {
	Name        string   `yaml:"name"`        // Complaint field name.  Required.
	Label       string   `yaml:"label"`       // Human-readable label.  Required.
	Type        string   `yaml:"type"`        // text, email, tel, date, select, textarea.
	Placeholder string   `yaml:"placeholder"` // Optional placeholder text.
	Required    bool     `yaml:"required"`    // Marks the label with an asterisk.
	MinLength   int      `yaml:"minlength"`   // ≥ 0, 0 means unset.
	MaxLength   int      `yaml:"maxlength"`   // ≥ 0, 0 means unset.
	Pattern     string   `yaml:"pattern"`     // Regex pattern string.
	Options     []string `yaml:"options"`     // For select.
	Rows        int      `yaml:"rows"`        // For textarea.
}

// Field returns the definition for name.
func (fd *FormDef) Field(name string) (FieldDef, bool) {
	for _, f := range fd.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Catalog builds the complaint.Catalog described by fd.
func (fd *FormDef) Catalog() complaint.Catalog {
	platform := fd.Platform
	if platform == "" {
		platform = complaint.DefaultPlatform
	}
	var issues []string
	if f, ok := fd.Field(complaint.FieldIssueType); ok {
		issues = append(issues, f.Options...)
	}
	return complaint.Catalog{
		ID:           fd.ID,
		Platform:     platform,
		IssueTypes:   issues,
		Messages:     complaint.MergeMessages(fd.Messages),
		RequireToken: fd.CSRFGate,
	}
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// Registry maps form ID → *FormDef.  Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	forms map[string]*FormDef
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]*FormDef)}
}

// Get returns a parsed FormDef by ID.  The boolean is false when the ID is
// unknown.
func (r *Registry) Get(id string) (*FormDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fd, ok := r.forms[id]
	return fd, ok
}

// IDs returns the registered form IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.forms))
	for id := range r.forms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Register inserts or overrides fd.  Caller must ensure fd passed validation.
func (r *Registry) Register(fd *FormDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms[fd.ID] = fd
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// ParseFormDef parses one YAML document and validates its structure.  name
// is used in error messages only.
func ParseFormDef(raw []byte, name string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", name, err)
	}
	if err := validateFormDef(&fd, name); err != nil {
		return nil, err
	}
	return &fd, nil
}

// LoadFormDef reads and parses one YAML file.  It NEVER mutates a registry.
func LoadFormDef(path string) (*FormDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", path, err)
	}
	return ParseFormDef(raw, path)
}

// LoadDefaults registers the embedded variants.
func (r *Registry) LoadDefaults() error {
	entries, err := fs.ReadDir(defaultsFS, "defaults")
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := "defaults/" + e.Name()
		raw, err := defaultsFS.ReadFile(name)
		if err != nil {
			return err
		}
		fd, err := ParseFormDef(raw, name)
		if err != nil {
			return err
		}
		r.Register(fd)
	}
	return nil
}

// LoadDir registers every “*.yaml” file directly under dir, overriding any
// variant with the same ID.  A missing directory is not an error.  The whole
// directory is parsed before anything is registered, so one bad file leaves
// the registry untouched.
func (r *Registry) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	var parsed []*FormDef
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		fd, err := LoadFormDef(filepath.Join(dir, e.Name()))
		if err != nil {
			return err // fail fast so issues surface loudly.
		}
		parsed = append(parsed, fd)
	}
	for _, fd := range parsed {
		r.Register(fd)
	}
	return nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

var knownFields = map[string]bool{
	complaint.FieldUsername:    true,
	complaint.FieldEmail:       true,
	complaint.FieldGameID:      true,
	complaint.FieldIssueType:   true,
	complaint.FieldDescription: true,
	complaint.FieldDateOfIssue: true,
	complaint.FieldPhoneNumber: true,
}

var knownTypes = map[string]bool{
	"text": true, "email": true, "tel": true, "date": true, "select": true, "textarea": true,
}

// validateFormDef enforces structural rules that cannot be expressed via YAML
// tags alone.  It returns a descriptive error referencing the offending file.
func validateFormDef(fd *FormDef, path string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", path)
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields'", path)
	}

	seen := make(map[string]struct{})
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if err := validateField(f, path); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", path, f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	for name := range knownFields {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("form %s: missing field '%s'", path, name)
		}
	}

	issue, _ := fd.Field(complaint.FieldIssueType)
	if issue.Type != "select" || len(issue.Options) == 0 {
		return fmt.Errorf("form %s: '%s' must be a select with options", path, complaint.FieldIssueType)
	}
	return nil
}

// validateField confirms that essential attributes are present and sane.
func validateField(f *FieldDef, path string) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", path)
	}
	if !knownFields[f.Name] {
		return fmt.Errorf("form %s: unknown field '%s'", path, f.Name)
	}
	if f.Label == "" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", path, f.Name)
	}
	if !knownTypes[f.Type] {
		return fmt.Errorf("form %s: field '%s' has unsupported type '%s'", path, f.Name, f.Type)
	}

	if f.Pattern != "" {
		if _, err := regexp.Compile(f.Pattern); err != nil {
			return fmt.Errorf("form %s: field '%s' invalid regex pattern: %v", path, f.Name, err)
		}
	}

	if f.MinLength < 0 || f.MaxLength < 0 {
		return fmt.Errorf("form %s: field '%s' minlength/maxlength cannot be negative", path, f.Name)
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return fmt.Errorf("form %s: field '%s' minlength greater than maxlength", path, f.Name)
	}
	return nil
}
