package errors

import (
	"strings"
	"unicode"
)

// ReservedTypeNames are the discriminators of the transport grammar.
// A registered record type may not shadow any of them.
var ReservedTypeNames = []string{
	"null",
	"undefined",
	"Date",
	"Number",
	"String",
	"Boolean",
	"Array",
	"ref",
}

// maxTypeNameLength bounds type names so that tagged documents stay readable.
const maxTypeNameLength = 256

// ValidateTypeName validates a record type name before it enters a registry.
//
// The validation rules:
//   - No empty names
//   - No reserved discriminators (see ReservedTypeNames)
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateTypeName(name string) error {
	if name == "" {
		return New(ErrCodeMissingName, "type name cannot be empty")
	}

	if len(name) > maxTypeNameLength {
		return New(ErrCodeInvalidTypeName, "type name too long (max %d characters)", maxTypeNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTypeName, "type name contains invalid control characters")
		}
	}

	for _, reserved := range ReservedTypeNames {
		if name == reserved {
			return New(ErrCodeInvalidTypeName, "type name %q is reserved by the transport format", name)
		}
	}

	return nil
}

// ValidateDocumentID validates a stored document identifier.
// It prevents path traversal in file-backed stores and key injection in
// shared key spaces.
func ValidateDocumentID(id string) error {
	if id == "" {
		return New(ErrCodeNotFound, "document id cannot be empty")
	}

	const maxIDLength = 128
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidFormat, "document id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidFormat, "document id contains invalid characters")
		}
	}

	if strings.Contains(id, "..") || strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidFormat, "document id cannot contain path separators or traversal sequences")
	}

	return nil
}
