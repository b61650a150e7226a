// internal/complaint/form.go
//
// Complaint form state and field transitions.
//
// Context
// -------
// A Form is the flat aggregate a visitor fills in.  It lives for one session
// only: created empty on mount, mutated field-by-field, and replaced wholesale
// after a successful submission or a "submit another" action.
//
// Transitions are pure.  ApplyInput returns a new Form and never mutates its
// argument, so the session holder can keep snapshots without copying.
//
// Notes
// -----
// • JSON names match the backend payload exactly.
// • Oxford commas, two spaces after periods.
package complaint

import "fmt"

// Field names, shared by the validator, renderer, and JSON payload.
const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldGameID      = "gameId"
	FieldPlatform    = "platform"
	FieldIssueType   = "issueType"
	FieldDescription = "description"
	FieldDateOfIssue = "dateOfIssue"
	FieldPhoneNumber = "phoneNumber"
)

// EditableFields lists the fields a visitor may change, in display order.
var EditableFields = []string{
	FieldUsername,
	FieldEmail,
	FieldPhoneNumber,
	FieldGameID,
	FieldIssueType,
	FieldDateOfIssue,
	FieldDescription,
}

// Form is one complaint as typed by the visitor.
type Form struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	GameID      string `json:"gameId"`
	Platform    string `json:"platform"`
	IssueType   string `json:"issueType"`
	Description string `json:"description"`
	DateOfIssue string `json:"dateOfIssue"`
	PhoneNumber string `json:"phoneNumber"`
}

// NewForm returns the empty form for cat.  Platform is the only prefilled
// value.
func NewForm(cat Catalog) Form {
	return Form{Platform: cat.Platform}
}

// ApplyInput stores value under field and returns the updated form.  The
// phone number is sanitized before storage.  Writes to platform are ignored
// because the value is fixed by the catalog.
func ApplyInput(f Form, field, value string) (Form, error) {
	switch field {
	case FieldUsername:
		f.Username = value
	case FieldEmail:
		f.Email = value
	case FieldGameID:
		f.GameID = value
	case FieldIssueType:
		f.IssueType = value
	case FieldDescription:
		f.Description = value
	case FieldDateOfIssue:
		f.DateOfIssue = value
	case FieldPhoneNumber:
		f.PhoneNumber = SanitizePhone(value)
	case FieldPlatform:
		// read-only
	default:
		return f, fmt.Errorf("unknown field %q", field)
	}
	return f, nil
}

// Value returns the current value of field, or "" for unknown names.
func (f Form) Value(field string) string {
	switch field {
	case FieldUsername:
		return f.Username
	case FieldEmail:
		return f.Email
	case FieldGameID:
		return f.GameID
	case FieldPlatform:
		return f.Platform
	case FieldIssueType:
		return f.IssueType
	case FieldDescription:
		return f.Description
	case FieldDateOfIssue:
		return f.DateOfIssue
	case FieldPhoneNumber:
		return f.PhoneNumber
	}
	return ""
}

// Values flattens the form into a name → value map for the renderer.
func (f Form) Values() map[string]string {
	out := make(map[string]string, len(EditableFields)+1)
	for _, name := range EditableFields {
		out[name] = f.Value(name)
	}
	out[FieldPlatform] = f.Platform
	return out
}
