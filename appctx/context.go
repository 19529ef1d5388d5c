package appctx

import (
	"context"

	"mmjira/models"
)

// Context key for storing the authenticated admin
type contextKey string

const AdminContextKey contextKey = "admin"

// SetAdmin adds the authenticated admin to the request context
func SetAdmin(ctx context.Context, admin *models.Admin) context.Context {
	return context.WithValue(ctx, AdminContextKey, admin)
}

// GetAdmin extracts the authenticated admin from the request context
func GetAdmin(ctx context.Context) (*models.Admin, bool) {
	admin, ok := ctx.Value(AdminContextKey).(*models.Admin)
	return admin, ok
}
