package llm

import "context"

type labelsKey struct{}

// labels name a request in the event log and the debug log.
type labels struct {
	purpose string
	subject string
}

func labelsFrom(ctx context.Context) labels {
	l, _ := ctx.Value(labelsKey{}).(labels)
	return l
}

// WithPurpose tags requests made with ctx, e.g. "feedback" or "tutor-chat".
func WithPurpose(ctx context.Context, purpose string) context.Context {
	l := labelsFrom(ctx)
	l.purpose = purpose
	return context.WithValue(ctx, labelsKey{}, l)
}

// WithSubject records what a request is about, such as the word being
// pronounced. It only appears in the debug log.
func WithSubject(ctx context.Context, subject string) context.Context {
	l := labelsFrom(ctx)
	l.subject = subject
	return context.WithValue(ctx, labelsKey{}, l)
}

// PurposeFrom returns the purpose tag, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if p := labelsFrom(ctx).purpose; p != "" {
		return p
	}
	return "unknown"
}
