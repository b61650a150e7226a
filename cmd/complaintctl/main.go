// cmd/complaintctl/main.go
//
// complaintctl – terminal front end for the complaint core.
//
// Context
// -------
// The CLI drives the same pieces the web frontend does: form definitions
// from internal/form, validation from internal/complaint, and the
// per-visitor Holder plus token gate from internal/session.  A complaint
// file is a flat JSON object keyed by the backend field names:
//
//	{"username": "player_01", "email": "a@b.co", "issueType": "Lainnya", …}
//
// Commands
// --------
//
//	complaintctl validate --file f.json [--variant v1] [--today 2026-01-31]
//	complaintctl submit   --file f.json [--variant v2] [--base-url URL]
//	complaintctl forms    [--forms-dir DIR]
//
// Exit status is 1 whenever a command returns an error, including a file
// that fails validation.
package main

import (
	"os"
)

func main() {
	if err := execute(newRootCmd()); err != nil {
		os.Exit(1)
	}
}
