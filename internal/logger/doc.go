// Package logger wraps zap with a global sugared logger and context helpers.
//
// Services never hold a logger field: they take a context, scope it with
// WithName or WithKV and log through the package-level helpers, which pull
// the logger back out of the context.
package logger
