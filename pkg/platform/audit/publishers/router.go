// Package publishers routes audit events to the publisher for their category.
package publishers

import (
	"context"

	audit "opdclaims/pkg/platform/audit"
)

// Router dispatches events by category. Security events go to the ops
// publisher unless a dedicated one is configured.
type Router struct {
	compliance audit.Emitter
	ops        audit.Emitter
	security   audit.Emitter
}

func NewRouter(compliance, ops audit.Emitter) *Router {
	return &Router{compliance: compliance, ops: ops, security: ops}
}

// WithSecurity returns a router that sends security events to e.
func (r *Router) WithSecurity(e audit.Emitter) *Router {
	cp := *r
	cp.security = e
	return &cp
}

func (r *Router) Emit(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	switch category {
	case audit.CategoryCompliance:
		return r.compliance.Emit(ctx, event)
	case audit.CategorySecurity:
		return r.security.Emit(ctx, event)
	default:
		return r.ops.Emit(ctx, event)
	}
}
