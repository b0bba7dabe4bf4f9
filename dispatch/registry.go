package dispatch

import (
	"github.com/illuscio-dev/spanrespond-go/mimetype"
)

// Handler produces the response content for one format. It is called at most once per
// dispatch.
type Handler func() (interface{}, error)

// Registry maps the mimetypes an action supports to the handler producing each one.
// Build one per action invocation; a Registry is not safe for concurrent mutation.
type Registry struct {
	handlers map[mimetype.MimeType]Handler
	// First-registration order, used for listing and wildcard ranges.
	order []mimetype.MimeType
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[mimetype.MimeType]Handler),
	}
}

// Register sets the handler for mimeType. A later registration for the same mimetype
// replaces the earlier handler but keeps its original position. The zero Registry is
// ready to use.
func (registry *Registry) Register(mimeType mimetype.MimeType, handler Handler) *Registry {
	if registry.handlers == nil {
		registry.handlers = make(map[mimetype.MimeType]Handler)
	}
	if _, ok := registry.handlers[mimeType]; !ok {
		registry.order = append(registry.order, mimeType)
	}
	registry.handlers[mimeType] = handler
	return registry
}

// HTML registers handler for text/html.
func (registry *Registry) HTML(handler Handler) *Registry {
	return registry.Register(mimetype.HTML, handler)
}

// JSON registers handler for application/json.
func (registry *Registry) JSON(handler Handler) *Registry {
	return registry.Register(mimetype.JSON, handler)
}

// XML registers handler for application/xml.
func (registry *Registry) XML(handler Handler) *Registry {
	return registry.Register(mimetype.XML, handler)
}

// YAML registers handler for application/yaml.
func (registry *Registry) YAML(handler Handler) *Registry {
	return registry.Register(mimetype.YAML, handler)
}

// BSON registers handler for application/bson.
func (registry *Registry) BSON(handler Handler) *Registry {
	return registry.Register(mimetype.BSON, handler)
}

// Text registers handler for text/plain.
func (registry *Registry) Text(handler Handler) *Registry {
	return registry.Register(mimetype.TEXT, handler)
}

// Lookup returns the handler registered for exactly mimeType.
func (registry *Registry) Lookup(mimeType mimetype.MimeType) (Handler, bool) {
	if registry == nil {
		return nil, false
	}
	handler, ok := registry.handlers[mimeType]
	return handler, ok
}

// lookupRange returns the first registered mimetype covered by a wildcard range,
// skipping any a refused range covers unless the client also named it in accept.
func (registry *Registry) lookupRange(
	mediaRange mimetype.MimeType, accept mimetype.AcceptSet, refused mimetype.AcceptSet,
) (mimetype.MimeType, bool) {
	if registry == nil {
		return mimetype.UNKNOWN, false
	}
	for _, registered := range registry.order {
		if !mediaRange.Covers(registered) {
			continue
		}
		if isRefused(registered, accept, refused) {
			continue
		}
		return registered, true
	}
	return mimetype.UNKNOWN, false
}

func isRefused(
	mimeType mimetype.MimeType, accept mimetype.AcceptSet, refused mimetype.AcceptSet,
) bool {
	for _, accepted := range accept {
		if accepted == mimeType {
			return false
		}
	}
	for _, refusedRange := range refused {
		if refusedRange.Covers(mimeType) {
			return true
		}
	}
	return false
}

// Formats lists the supported mimetypes in first-registration order.
func (registry *Registry) Formats() []mimetype.MimeType {
	if registry == nil {
		return nil
	}
	formats := make([]mimetype.MimeType, len(registry.order))
	copy(formats, registry.order)
	return formats
}

// Len is the number of distinct mimetypes registered.
func (registry *Registry) Len() int {
	if registry == nil {
		return 0
	}
	return len(registry.order)
}
