package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/marcelocantos/crsh/internal/audit"
)

// DefaultTail is how many entries audit tail shows by default.
const DefaultTail = 20

// AuditVerify checks the audit log chain at logPath.
func AuditVerify(w io.Writer, logPath string) int {
	if err := audit.Verify(afero.NewOsFs(), logPath); err != nil {
		fmt.Fprintf(w, "audit verification FAILED: %v\n", err)
		return 1
	}
	fmt.Fprintln(w, "audit log integrity verified")
	return 0
}

// AuditTail prints the last n audit entries as indented JSON.
func AuditTail(w io.Writer, logPath string, n int) int {
	entries, err := audit.Tail(afero.NewOsFs(), logPath, n)
	if err != nil {
		fmt.Fprintf(w, "crsh audit: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "no audit entries")
		return 0
	}
	for _, e := range entries {
		data, _ := json.MarshalIndent(e, "", "  ")
		fmt.Fprintf(w, "%s\n", data)
	}
	return 0
}
