package filemanager

import (
	"regexp"
	"strings"

	"github.com/outshift-open/hax-cli/internal/registry"
)

var (
	shebangPattern = regexp.MustCompile(`^#![^\r\n]*\r?\n`)

	// headerPattern matches the run of comments at the top of a file:
	// block comments, HTML comments and // or # line comments.
	headerPattern = regexp.MustCompile(`^(?:\s*(?:/\*[\s\S]*?\*/\s*|<!--[\s\S]*?-->\s*|(?://|#)[^\r\n]*\r?\n))+`)

	licenseIndicators = regexp.MustCompile(`(?i)(spdx-license-identifier|copyright|license|licensed|apache|mit|bsd|gpl|lgpl|agpl|mpl|epl|isc|unlicense|cc0)`)

	leadingBlankLines = regexp.MustCompile(`^(?:[ \t]*\r?\n){3,}`)

	relativeUtilsImport = regexp.MustCompile(`(["'])(?:\.\./)+lib/utils(["'])`)
)

const bom = "\uFEFF"

// StripLicenseHeaders removes a license notice from the top of content.
// A byte order mark and shebang line are kept. The leading comment run is
// only removed when it mentions a license.
func StripLicenseHeaders(content string) string {
	if content == "" {
		return content
	}

	text, hasBOM := strings.CutPrefix(content, bom)

	shebang := shebangPattern.FindString(text)
	text = text[len(shebang):]

	if header := headerPattern.FindString(text); header != "" && licenseIndicators.MatchString(header) {
		text = text[len(header):]
	}

	var b strings.Builder
	if hasBOM {
		b.WriteString(bom)
	}
	b.WriteString(shebang)
	b.WriteString(text)
	return b.String()
}

// CleanContent prepares a registry file for writing into a project.
func CleanContent(t registry.ItemType, content string) string {
	if content == "" {
		return content
	}

	eol := "\n"
	if strings.Contains(content, "\r\n") {
		eol = "\r\n"
	}

	cleaned := StripLicenseHeaders(content)
	cleaned = leadingBlankLines.ReplaceAllLiteralString(cleaned, eol+eol)

	if t == registry.TypeUI {
		cleaned = relativeUtilsImport.ReplaceAllString(cleaned, "${1}@/lib/utils${2}")
	}
	return cleaned
}
