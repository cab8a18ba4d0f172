package log

import (
	"context"
)

type contextFieldsKey struct{}

// AppendContextFields returns a context carrying the given fields, merged over
// any fields already stored in ctx. Every record logged with the returned
// context carries these fields in addition to the logger's own fields.
func AppendContextFields(ctx context.Context, fields Fields) context.Context {
	return context.WithValue(ctx, contextFieldsKey{}, mergeFields(ContextFieldsResolver(ctx), fields))
}

// ContextFieldsResolver extracts the fields stored in a context and, if not
// present, it returns an empty map.
func ContextFieldsResolver(ctx context.Context) Fields {
	if ctx == nil {
		return Fields{}
	}

	if fields, ok := ctx.Value(contextFieldsKey{}).(Fields); ok {
		return fields
	}

	return Fields{}
}
