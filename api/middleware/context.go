package middleware

import "context"

type contextKey string

const (
	ctxStaff     contextKey = "staff_email"
	ctxRequestID contextKey = "request_id"
)

// StaffFromContext returns the authenticated staff email, if any.
func StaffFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxStaff).(string); ok {
		return v
	}
	return ""
}

// WithStaff injects the staff identity into the context.
func WithStaff(ctx context.Context, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxStaff, email)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRequestID).(string); ok {
		return v
	}
	return ""
}
