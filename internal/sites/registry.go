// Package sites holds per-domain handler overrides for markup idioms the
// generic strategies cannot read reliably. A handler short-circuits the
// pipeline for its domains; its failure falls through to the generic
// strategies, never outward.
package sites

import (
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/hyperifyio/pricescan/internal/format"
	"github.com/hyperifyio/pricescan/internal/price"
)

// Handler is one site-specific extraction override.
type Handler struct {
	// Name identifies the handler in traces and logs.
	Name string

	// Domains lists the domains the handler owns, without a "www." prefix.
	// Matching is exact or by suffix (a registration for "amazon.com"
	// covers "smile.amazon.com").
	Domains []string

	// IsTargetNode reports whether the node carries this site's price
	// markup idiom.
	IsTargetNode func(n *html.Node) bool

	// Process extracts prices from the node, invoking emit once per
	// discovered text unit, and reports whether it handled the node.
	Process func(n *html.Node, emit func(price.Candidate), d format.Descriptor) bool
}

// Registry is the explicit registration table. It has no ambient global
// state; callers construct one per process (or per test) and mutate it only
// through Register and Clear, at startup or test setup, not during
// steady-state extraction.
type Registry struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a handler. Handlers registered earlier win when several
// claim the same domain, so exactly one is active per site context.
func (r *Registry) Register(h Handler) error {
	if h.Name == "" {
		return errors.New("handler name required")
	}
	if len(h.Domains) == 0 {
		return errors.New("handler must declare at least one domain")
	}
	if h.Process == nil {
		return errors.New("handler must declare a process function")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, h)
	return nil
}

// Clear empties the registration table.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = nil
}

// HandlerFor returns the handler owning the host, if any. Lookup is a pure
// function of the host and the registered set.
func (r *Registry) HandlerFor(host string) (Handler, bool) {
	host = normalizeHost(host)
	if host == "" {
		return Handler{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.handlers {
		for _, d := range h.Domains {
			d = normalizeHost(d)
			if host == d || strings.HasSuffix(host, "."+d) {
				return h, true
			}
		}
	}
	return Handler{}, false
}

// Process runs the host's handler against the node. It returns false when
// no handler is registered, the node is not a target, or the handler
// faults; the caller then falls through to the generic strategies.
func (r *Registry) Process(host string, n *html.Node, emit func(price.Candidate), d format.Descriptor) (handled bool) {
	h, ok := r.HandlerFor(host)
	if !ok || n == nil {
		return false
	}
	if h.IsTargetNode != nil && !safeIsTarget(h, n) {
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Warn().Str("handler", h.Name).Interface("panic", rec).
				Msg("site handler fault contained")
			handled = false
		}
	}()
	return h.Process(n, emit, d)
}

func safeIsTarget(h Handler, n *html.Node) (target bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Warn().Str("handler", h.Name).Interface("panic", rec).
				Msg("site handler target check fault contained")
			target = false
		}
	}()
	return h.IsTargetNode(n)
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimPrefix(host, "www.")
	return host
}
