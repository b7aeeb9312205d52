package activity

import "context"

type operatorKey struct{}

// WithOperator adjunta al contexto el operador que origina la operación.
func WithOperator(ctx context.Context, operator string) context.Context {
	if operator == "" {
		return ctx
	}
	return context.WithValue(ctx, operatorKey{}, operator)
}

// OperatorFrom devuelve el operador del contexto o "" si la petición es anónima.
func OperatorFrom(ctx context.Context) string {
	op, _ := ctx.Value(operatorKey{}).(string)
	return op
}
