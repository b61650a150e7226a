// internal/form/renderer.go
//
// Complaintdesk – Forms subsystem: HTML renderer.
//
// Context
//   Given a parsed FormDef this file converts the definition plus the
//   visitor's current values and errors into safe, accessible HTML markup.
//   The page template (internal/web) wraps the result in a <form> element
//   and adds the banner and submit button.
//
// Workflow
//   •  RenderForm walks the FieldDefs in order and writes each via writeField.
//   •  Required, minlength, maxlength, pattern, max (dates), and placeholder
//      attributes are attached where relevant.  Select options come from the
//      YAML Options slice with an empty “choose” entry first.
//   •  Each field carries its error message, if any, in <p class="error">.
//   •  The page CSRF token is embedded as a hidden <input>.
//
// Style
//   Output HTML is deliberately plain so themes can style via element
//   selectors or class hooks.  Each input gets id="fld-{name}" and is wrapped
//   in <div class="form-field">.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"unicode/utf8"
)

// TokenField is the hidden input carrying the page CSRF token.
const TokenField = "csrf_token"

// RenderOptions bundles the per-request state influencing HTML output.
type RenderOptions struct {
	// Values holds current field values keyed by field name.
	Values map[string]string
	// Errors holds field error messages keyed by field name.
	Errors map[string]string
	// Token is the page CSRF token.  Empty omits the hidden input.
	Token string
	// Today is the "YYYY-MM-DD" upper bound for date inputs.
	Today string
	// Disabled renders every control disabled (submission in flight).
	Disabled bool
}

// RenderForm returns the field markup for fd.
func RenderForm(fd *FormDef, opts RenderOptions) (template.HTML, error) {
	if fd == nil {
		return "", fmt.Errorf("RenderForm: nil form definition")
	}

	var buf bytes.Buffer
	buf.WriteString(`<div class="complaint-form" data-form="` + html.EscapeString(fd.ID) + `">` + "\n")

	for i := range fd.Fields {
		if err := writeField(&buf, &fd.Fields[i], opts); err != nil {
			return "", err
		}
	}

	if opts.Token != "" {
		buf.WriteString(`<input type="hidden" name="` + TokenField + `" value="` + html.EscapeString(opts.Token) + `">` + "\n")
	}

	buf.WriteString(`</div>`)
	return template.HTML(buf.String()), nil
}

// writeField emits HTML for an individual field into buf.
func writeField(buf *bytes.Buffer, f *FieldDef, opts RenderOptions) error {
	val := lookup(opts.Values, f.Name)
	msg := lookup(opts.Errors, f.Name)
	name := html.EscapeString(f.Name)

	cls := "form-field"
	if msg != "" {
		cls += " has-error"
	}
	buf.WriteString(`<div class="` + cls + `">` + "\n")

	// Label first (for accessibility)
	buf.WriteString(`<label for="fld-` + name + `">` + html.EscapeString(f.Label))
	if f.Required {
		buf.WriteString(` <span class="required">*</span>`)
	}
	buf.WriteString(`</label>` + "\n")

	idAttr := `id="fld-` + name + `"`
	nameAttr := `name="` + name + `"`

	switch f.Type {
	case "text", "email", "tel", "date":
		buf.WriteString(`<input ` + idAttr + ` ` + nameAttr + ` type="` + f.Type + `"`)
		writeCommonAttrs(buf, f, opts)
		if f.Type == "date" && opts.Today != "" {
			buf.WriteString(` max="` + html.EscapeString(opts.Today) + `"`)
		}
		if val != "" {
			buf.WriteString(` value="` + html.EscapeString(val) + `"`)
		}
		buf.WriteString(`>` + "\n")

	case "textarea":
		buf.WriteString(`<textarea ` + idAttr + ` ` + nameAttr)
		if f.Rows > 0 {
			buf.WriteString(` rows="` + strconv.Itoa(f.Rows) + `"`)
		}
		writeCommonAttrs(buf, f, opts)
		buf.WriteString(`>`)
		buf.WriteString(html.EscapeString(val))
		buf.WriteString(`</textarea>` + "\n")
		if f.MaxLength > 0 {
			fmt.Fprintf(buf, `<p class="counter">%d/%d</p>`+"\n", utf8.RuneCountInString(val), f.MaxLength)
		}

	case "select":
		buf.WriteString(`<select ` + idAttr + ` ` + nameAttr)
		if f.Required {
			buf.WriteString(` required`)
		}
		if opts.Disabled {
			buf.WriteString(` disabled`)
		}
		buf.WriteString(`>` + "\n")
		buf.WriteString(`<option value="">-- Pilih --</option>` + "\n")
		for _, opt := range f.Options {
			sel := ""
			if val == opt {
				sel = ` selected`
			}
			buf.WriteString(`<option value="` + html.EscapeString(opt) + `"` + sel + `>` + html.EscapeString(opt) + `</option>` + "\n")
		}
		buf.WriteString(`</select>` + "\n")

	default:
		return fmt.Errorf("writeField: unsupported field type %q in form field %s", f.Type, f.Name)
	}

	if msg != "" {
		buf.WriteString(`<p class="error" aria-live="polite">` + html.EscapeString(msg) + `</p>` + "\n")
	}

	buf.WriteString(`</div>` + "\n")
	return nil
}

// writeCommonAttrs appends placeholder, required, length, pattern, and
// disabled attributes.
func writeCommonAttrs(buf *bytes.Buffer, f *FieldDef, opts RenderOptions) {
	if f.Placeholder != "" {
		buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
	}
	if f.Required {
		buf.WriteString(` required`)
	}
	if f.MinLength > 0 {
		buf.WriteString(` minlength="` + strconv.Itoa(f.MinLength) + `"`)
	}
	if f.MaxLength > 0 {
		buf.WriteString(` maxlength="` + strconv.Itoa(f.MaxLength) + `"`)
	}
	if f.Pattern != "" {
		buf.WriteString(` pattern="` + html.EscapeString(f.Pattern) + `"`)
	}
	if opts.Disabled {
		buf.WriteString(` disabled`)
	}
}

func lookup(m map[string]string, k string) string {
	if m == nil {
		return ""
	}
	return m[k]
}
