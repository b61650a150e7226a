// internal/complaint/validate.go
//
// Field validation for complaint forms.
//
// Context
// -------
// Validate maps a Form to field-level error messages.  Each field is checked
// on its own and the first failing rule wins, so a visitor sees one message
// per field.  There are no cross-field rules and no side effects; the caller
// passes the clock so "not in the future" is testable.
//
// Rule order per field
// --------------------
//   username     required → 3-50 chars → [A-Za-z0-9_]
//   email        required → \S+@\S+\.\S+ → ≤100 chars
//   gameId       optional; when present [A-Za-z0-9_-] and ≤50 chars
//   issueType    required → member of the catalog
//   description  required (trimmed) → ≤2000 chars
//   dateOfIssue  required → valid date → not after today
//   phoneNumber  required (trimmed) → ^\+?[0-9]{10,15}$
//
// Notes
// -----
// • Lengths count runes, not bytes.
// • Oxford commas, two spaces after periods.
package complaint

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Limits shared with the renderer's maxlength attributes.
const (
	UsernameMin    = 3
	UsernameMax    = 50
	EmailMax       = 100
	GameIDMax      = 50
	DescriptionMax = 2000
)

// DateLayout is the wire format of dateOfIssue.
const DateLayout = "2006-01-02"

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	emailRe    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	gameIDRe   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	phoneRe    = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

// Errors maps a field name to one user-facing message.  Empty means valid.
type Errors map[string]string

// Fields returns the failing field names in sorted order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks f against the rules above using cat for issue types and
// copy.  now is the validation-time clock; its location defines "today".
func Validate(f Form, cat Catalog, now time.Time) Errors {
	errs := Errors{}
	set := func(field, key string) { errs[field] = cat.Message(key) }

	// username
	switch n := utf8.RuneCountInString(f.Username); {
	case strings.TrimSpace(f.Username) == "":
		set(FieldUsername, MsgUsernameRequired)
	case n < UsernameMin || n > UsernameMax:
		set(FieldUsername, MsgUsernameLength)
	case !usernameRe.MatchString(f.Username):
		set(FieldUsername, MsgUsernameCharset)
	}

	// email
	switch {
	case strings.TrimSpace(f.Email) == "":
		set(FieldEmail, MsgEmailRequired)
	case !emailRe.MatchString(f.Email):
		set(FieldEmail, MsgEmailInvalid)
	case utf8.RuneCountInString(f.Email) > EmailMax:
		set(FieldEmail, MsgEmailLength)
	}

	// gameId is optional.
	if f.GameID != "" {
		if !gameIDRe.MatchString(f.GameID) || utf8.RuneCountInString(f.GameID) > GameIDMax {
			set(FieldGameID, MsgGameIDInvalid)
		}
	}

	// issueType
	switch {
	case f.IssueType == "":
		set(FieldIssueType, MsgIssueTypeRequired)
	case !cat.HasIssueType(f.IssueType):
		set(FieldIssueType, MsgIssueTypeInvalid)
	}

	// description
	switch {
	case strings.TrimSpace(f.Description) == "":
		set(FieldDescription, MsgDescriptionRequired)
	case utf8.RuneCountInString(f.Description) > DescriptionMax:
		set(FieldDescription, MsgDescriptionLength)
	}

	// dateOfIssue
	if f.DateOfIssue == "" {
		set(FieldDateOfIssue, MsgDateRequired)
	} else if day, ok := ParseDate(f.DateOfIssue, now.Location()); !ok {
		set(FieldDateOfIssue, MsgDateInvalid)
	} else if day.After(startOfDay(now)) {
		set(FieldDateOfIssue, MsgDateFuture)
	}

	// phoneNumber
	switch {
	case strings.TrimSpace(f.PhoneNumber) == "":
		set(FieldPhoneNumber, MsgPhoneRequired)
	case !phoneRe.MatchString(f.PhoneNumber):
		set(FieldPhoneNumber, MsgPhoneInvalid)
	}

	return errs
}

// ParseDate accepts "YYYY-MM-DD" or an RFC 3339 timestamp and returns the
// start of that calendar day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return startOfDay(t.In(loc)), true
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
