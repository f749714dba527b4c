package model

import "strings"

// RepositoryRecord is one GitHub repository as an open JSON object. Records
// fetched from the API are kept verbatim; records built from manual
// configuration carry at least "name" and, when the owner is known,
// "full_name" and "html_url". The accessors below cover the keys the
// pipeline relies on; every other key passes through untouched.
type RepositoryRecord map[string]any

// Name returns the "name" field, or "" if absent or not a string.
func (r RepositoryRecord) Name() string {
	return r.str("name")
}

// FullName returns the "full_name" field ("owner/repo").
func (r RepositoryRecord) FullName() string {
	return r.str("full_name")
}

// HTMLURL returns the "html_url" field.
func (r RepositoryRecord) HTMLURL() string {
	return r.str("html_url")
}

// Owner returns the owner part of FullName, or "" if FullName has no slash.
func (r RepositoryRecord) Owner() string {
	owner, _, ok := strings.Cut(r.FullName(), "/")
	if !ok {
		return ""
	}
	return owner
}

// IsFork reports whether the "fork" field is truthy.
func (r RepositoryRecord) IsFork() bool {
	return r.truthy("fork")
}

// IsArchived reports whether the "archived" field is truthy.
func (r RepositoryRecord) IsArchived() bool {
	return r.truthy("archived")
}

func (r RepositoryRecord) str(key string) string {
	s, _ := r[key].(string)
	return s
}

// truthy mirrors JSON-ish truthiness: false, null, 0 and "" are false.
func (r RepositoryRecord) truthy(key string) bool {
	switch v := r[key].(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}
