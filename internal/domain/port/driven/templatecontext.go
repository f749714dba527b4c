package driven

// TemplateContext is the host's shared template context. SetGlobal writes
// value under key into every alias of the context the host exposes.
type TemplateContext interface {
	SetGlobal(key string, value any)
}
