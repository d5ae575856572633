package notify

import (
	"strings"

	"github.com/mgallego/posada/internal/models"
)

// Placeholder is returned when no formatter matches and the raw body is empty.
const Placeholder = "-"

// Formatter renders display text for the notification types it declares.
// Returning an error makes the registry fall back to the raw body.
type Formatter interface {
	Types() []string
	Format(n *models.Notification) (string, error)
}

// Registry maps notification types to formatters. Registration order decides
// ties: the first formatter registered for a type keeps it.
type Registry struct {
	entries map[string]Formatter
}

// NewRegistry builds an empty formatter registry.
func NewRegistry(formatters ...Formatter) *Registry {
	r := &Registry{entries: make(map[string]Formatter)}
	for _, f := range formatters {
		r.Register(f)
	}
	return r
}

// Register adds a formatter for each type it declares. Types already claimed
// by an earlier registration are left untouched.
func (r *Registry) Register(f Formatter) {
	if f == nil {
		return
	}
	for _, t := range f.Types() {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, taken := r.entries[t]; !taken {
			r.entries[t] = f
		}
	}
}

// Format renders display text for the notification. It never fails: an
// unmatched type, an unset type, or a formatter error all fall back to the
// trimmed raw body, and an empty body yields the placeholder.
func (r *Registry) Format(n *models.Notification) string {
	if n == nil {
		return Placeholder
	}

	if f, ok := r.entries[n.Type]; ok {
		if text, err := f.Format(n); err == nil {
			return text
		}
	}

	return fallbackText(n)
}

func fallbackText(n *models.Notification) string {
	body := strings.TrimSpace(n.Body)
	if body == "" {
		return Placeholder
	}
	return body
}
