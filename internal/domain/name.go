// Package domain name.go contains filename rules for uploads and artifacts.
package domain

import (
	"path"
	"strings"
)

// pdfExt is the only recognized input extension, matched case-insensitively.
const pdfExt = ".pdf"

// unlockedSuffix is appended to the source stem when deriving artifact names.
const unlockedSuffix = "_unlocked"

// IsPDFName reports whether name carries the recognized .pdf extension.
// The check is case-insensitive and purely lexical; content sniffing is the
// codec's job.
func IsPDFName(name string) bool {
	return strings.EqualFold(path.Ext(name), pdfExt)
}

// ArtifactName derives the output filename for a successfully unlocked
// document: the source stem plus "_unlocked.pdf". It is a pure function of
// the source name, so deriving twice yields the same string. Callers must
// have verified IsPDFName first; any extension present is stripped.
func ArtifactName(source string) string {
	base := path.Base(source)
	stem := strings.TrimSuffix(base, path.Ext(base))
	return stem + unlockedSuffix + pdfExt
}
