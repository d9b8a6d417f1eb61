package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// typeIDRegex matches component type identifiers: lowercase, starting with a letter.
// Underscores are excluded because they separate type and instance id in namespaces.
var typeIDRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidateTypeID validates a component type identifier.
//
// Type ids end up in translation namespaces (type_instanceId), file names and
// generated source, so the accepted alphabet is intentionally small.
func ValidateTypeID(id string) error {
	if id == "" {
		return New(ErrCodeValidation, "component type cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeValidation, "component type too long (max 64 characters)")
	}
	if !typeIDRegex.MatchString(id) {
		return New(ErrCodeValidation, "invalid component type: %q", id)
	}
	return nil
}

// ValidateSegment validates a single path segment such as a locale or namespace
// before it is used to build a storage path or archive entry name.
//
// Validation rules:
//   - Segment cannot be empty
//   - Maximum length of 128 characters
//   - No control characters
//   - No path separators or traversal sequences
func ValidateSegment(kind, seg string) error {
	if seg == "" {
		return New(ErrCodeValidation, "%s cannot be empty", kind)
	}
	if len(seg) > 128 {
		return New(ErrCodeValidation, "%s too long (max 128 characters)", kind)
	}
	for _, r := range seg {
		if unicode.IsControl(r) {
			return New(ErrCodeValidation, "%s contains invalid control characters", kind)
		}
	}
	if strings.ContainsAny(seg, `/\`) || strings.Contains(seg, "..") {
		return New(ErrCodeValidation, "%s contains invalid characters: %q", kind, seg)
	}
	return nil
}

// ValidateInstanceID validates a component instance id. Ids become part of
// translation namespaces and keys, which are joined with ".", so a dot is
// rejected along with everything ValidateSegment rejects.
func ValidateInstanceID(id string) error {
	if err := ValidateSegment("instance id", id); err != nil {
		return err
	}
	if strings.ContainsAny(id, ". ") {
		return New(ErrCodeValidation, "instance id %q must not contain dots or spaces", id)
	}
	return nil
}

// ValidatePath validates a relative archive entry path. It prevents path traversal and absolute paths.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeValidation, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeValidation, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeValidation, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeValidation, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeValidation, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeValidation, "path cannot contain backslashes")
	}

	return nil
}
