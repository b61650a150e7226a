// internal/complaint/catalog.go
//
// Issue-type catalogs and user-facing copy.
//
// Context
// -------
// The two shipped form variants differ in their issue-type list, their error
// copy, and whether a security token must be acquired before submitting.  A
// Catalog captures exactly those differences so the validator and session
// holder stay variant-agnostic.  Catalogs are normally built from YAML form
// definitions (internal/form); the defaults below mirror the shipped files
// and are what tests and the CLI fall back to.
//
// Notes
// -----
// • Message keys are "<field>.<rule>" plus "banner.<kind>".
// • Oxford commas, two spaces after periods.
package complaint

// DefaultPlatform is the fixed platform label sent with every complaint.
const DefaultPlatform = "PENASLOT"

// Message keys.
const (
	MsgUsernameRequired    = "username.required"
	MsgUsernameLength      = "username.length"
	MsgUsernameCharset     = "username.charset"
	MsgEmailRequired       = "email.required"
	MsgEmailInvalid        = "email.invalid"
	MsgEmailLength         = "email.length"
	MsgGameIDInvalid       = "gameId.invalid"
	MsgIssueTypeRequired   = "issueType.required"
	MsgIssueTypeInvalid    = "issueType.invalid"
	MsgDescriptionRequired = "description.required"
	MsgDescriptionLength   = "description.length"
	MsgDateRequired        = "dateOfIssue.required"
	MsgDateInvalid         = "dateOfIssue.invalid"
	MsgDateFuture          = "dateOfIssue.future"
	MsgPhoneRequired       = "phoneNumber.required"
	MsgPhoneInvalid        = "phoneNumber.invalid"
	MsgBannerSubmit        = "banner.submit"
	MsgBannerToken         = "banner.token"
)

// Messages maps a message key to user-facing copy.
type Messages map[string]string

// DefaultMessages is the Indonesian copy of the first form variant.
var DefaultMessages = Messages{
	MsgUsernameRequired:    "Username wajib diisi",
	MsgUsernameLength:      "Username harus antara 3-50 karakter",
	MsgUsernameCharset:     "Username hanya boleh mengandung huruf, angka, dan underscore",
	MsgEmailRequired:       "Email wajib diisi",
	MsgEmailInvalid:        "Email tidak valid",
	MsgEmailLength:         "Email terlalu panjang (maksimal 100 karakter)",
	MsgGameIDInvalid:       "ID Game tidak valid, hanya huruf, angka, tanda hubung dan underscore",
	MsgIssueTypeRequired:   "Jenis masalah wajib dipilih",
	MsgIssueTypeInvalid:    "Jenis masalah tidak valid",
	MsgDescriptionRequired: "Deskripsi wajib diisi",
	MsgDescriptionLength:   "Deskripsi terlalu panjang (maksimal 2000 karakter)",
	MsgDateRequired:        "Tanggal masalah wajib diisi",
	MsgDateInvalid:         "Tanggal tidak valid",
	MsgDateFuture:          "Tanggal tidak boleh di masa depan",
	MsgPhoneRequired:       "Nomor telepon wajib diisi",
	MsgPhoneInvalid:        "Nomor telepon tidak valid (10-15 digit)",
	MsgBannerSubmit:        "Terjadi kesalahan saat mengirim pengaduan. Silakan coba lagi.",
	MsgBannerToken:         "Gagal memuat token keamanan. Silakan muat ulang halaman.",
}

// IssueTypesV1 is the issue list of the first variant.
var IssueTypesV1 = []string{
	"Deposit/Penarikan Bermasalah",
	"Kerusakan Game",
	"Masalah Akses Akun",
	"Masalah Bonus/Promosi",
	"Kesalahan Proses Pembayaran",
	"Logout Tiba-tiba",
	"Masalah Pembayaran Jackpot",
	"Lainnya",
}

// IssueTypesV2 is the issue list of the second variant.
var IssueTypesV2 = []string{
	"Deposit/Penarikan Bermasalah",
	"Kerusakan Game",
	"Masalah Akses Akun",
	"Masalah Bonus/Promosi",
	"Kesalahan Proses Pembayaran",
	"Logout Tiba-tiba",
	"Masalah Pembayaran Jackpot",
	"Saldo Tidak Sesuai",
	"Lainnya",
}

// Catalog is everything variant-specific the core needs.
type Catalog struct {
	ID         string
	Platform   string
	IssueTypes []string
	Messages   Messages
	// RequireToken gates submission on a successful security-token check.
	RequireToken bool
}

// CatalogV1 returns the built-in first variant.
func CatalogV1() Catalog {
	return Catalog{
		ID:         "complaint/v1",
		Platform:   DefaultPlatform,
		IssueTypes: append([]string(nil), IssueTypesV1...),
		Messages:   DefaultMessages,
	}
}

// CatalogV2 returns the built-in second variant, which requires the token
// check.
func CatalogV2() Catalog {
	return Catalog{
		ID:           "complaint/v2",
		Platform:     DefaultPlatform,
		IssueTypes:   append([]string(nil), IssueTypesV2...),
		Messages:     DefaultMessages,
		RequireToken: true,
	}
}

// Message returns the copy for key, falling back to DefaultMessages and
// finally to the key itself.
func (c Catalog) Message(key string) string {
	if s, ok := c.Messages[key]; ok && s != "" {
		return s
	}
	if s, ok := DefaultMessages[key]; ok {
		return s
	}
	return key
}

// HasIssueType reports whether v is one of the catalog's issue types.
func (c Catalog) HasIssueType(v string) bool {
	for _, t := range c.IssueTypes {
		if t == v {
			return true
		}
	}
	return false
}

// MergeMessages overlays override on DefaultMessages.
func MergeMessages(override map[string]string) Messages {
	out := make(Messages, len(DefaultMessages)+len(override))
	for k, v := range DefaultMessages {
		out[k] = v
	}
	for k, v := range override {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
