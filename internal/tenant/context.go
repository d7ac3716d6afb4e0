// Package tenant carries the organization of a request.
package tenant

import (
	"context"

	"github.com/google/uuid"
)

type organizationContextKey struct{}

// WithOrganization stores the organization id in context.
func WithOrganization(ctx context.Context, org uuid.UUID) context.Context {
	return context.WithValue(ctx, organizationContextKey{}, org)
}

// FromContext extracts the organization id from context.
func FromContext(ctx context.Context) (uuid.UUID, bool) {
	org, ok := ctx.Value(organizationContextKey{}).(uuid.UUID)
	if !ok || org == uuid.Nil {
		return uuid.Nil, false
	}
	return org, true
}
