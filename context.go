package agent

import "context"

type contextKey int

const (
	ctxKeyWorkDir contextKey = iota
	ctxKeyEnv
	ctxKeyActor
)

// WithContextWorkDir returns a context with the working directory set.
// File and shell tools resolve relative paths against it.
func WithContextWorkDir(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, ctxKeyWorkDir, dir)
}

// ContextWorkDir returns the working directory from context, or empty string.
func ContextWorkDir(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyWorkDir).(string); ok {
		return v
	}
	return ""
}

// WithContextEnv returns a context with environment variables set.
func WithContextEnv(ctx context.Context, env map[string]string) context.Context {
	return context.WithValue(ctx, ctxKeyEnv, env)
}

// ContextEnv returns the environment variables from context, or nil.
func ContextEnv(ctx context.Context) map[string]string {
	if v, ok := ctx.Value(ctxKeyEnv).(map[string]string); ok {
		return v
	}
	return nil
}

// WithContextActor returns a context naming the agent currently running,
// e.g. "main" or "explore".
func WithContextActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

// ContextActor returns the running actor from context, or empty string.
func ContextActor(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyActor).(string); ok {
		return v
	}
	return ""
}
