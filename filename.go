package docconv

import (
	"mime"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxFilenameLength caps attachment filenames before the extension.
const maxFilenameLength = 120

// contentTypes is the fixed format-to-MIME mapping for artifact
// responses and forward uploads. Unknown formats fall back to a
// generic binary type.
var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"odt":  "application/vnd.oasis.opendocument.text",
	"ods":  "application/vnd.oasis.opendocument.spreadsheet",
	"odp":  "application/vnd.oasis.opendocument.presentation",
	"rtf":  "application/rtf",
	"txt":  "text/plain",
	"html": "text/html",
	"md":   "text/markdown",
	"csv":  "text/csv",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"svg":  "image/svg+xml",
}

// ContentTypeFor returns the MIME type for a normalized format tag.
func ContentTypeFor(format string) string {
	if ct, ok := contentTypes[NormalizeFormat(format)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// SanitizeFilename strips directory components, replaces control and
// filesystem-unsafe characters with underscores, and caps the length
// on a rune boundary. An empty or fully rejected name becomes
// "document".
func SanitizeFilename(name string) string {
	// Drop any path prefix, both separators considered.
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			b.WriteByte('_')
		case strings.ContainsRune(`<>:"|?*`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}

	cleaned := strings.Trim(b.String(), ". ")
	if cleaned == "" {
		return "document"
	}
	if len(cleaned) > maxFilenameLength {
		// Never slice a multibyte rune in half.
		cut := maxFilenameLength
		for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
			cut--
		}
		cleaned = cleaned[:cut]
	}
	return cleaned
}

// AttachmentFilename derives the artifact filename from an optional
// suggested name and the target format, swapping the extension.
func AttachmentFilename(suggested, to string) string {
	name := SanitizeFilename(suggested)
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name + "." + NormalizeFormat(to)
}

// ContentDisposition builds an attachment header value. ASCII names
// use the plain quoted form alone; non-ASCII names carry both an
// ASCII-degraded fallback in filename= and the percent-encoded RFC
// 5987 form in filename*=, so clients that ignore the extended
// parameter still get a usable name.
func ContentDisposition(filename string) string {
	plain := mime.FormatMediaType("attachment", map[string]string{
		"filename": asciiFallback(filename),
	})
	if isASCII(filename) {
		return plain
	}
	return plain + "; filename*=utf-8''" + percentEncode(filename)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// asciiFallback replaces every non-ASCII rune with an underscore.
func asciiFallback(s string) string {
	if isASCII(s) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r > unicode.MaxASCII {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

// attrChar reports whether c may appear unescaped in an RFC 5987
// ext-value.
func attrChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '&', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

// percentEncode escapes s per RFC 5987: attr-chars pass through, every
// other byte of the UTF-8 encoding becomes %XX.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if attrChar(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xf])
		}
	}
	return b.String()
}
