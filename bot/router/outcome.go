package router

// OutcomeKind classifies the result of routing one message
type OutcomeKind int

const (
	// OutcomeRoutingIgnored means the message was not a command for this bot
	OutcomeRoutingIgnored OutcomeKind = iota
	// OutcomeHandled means the handler ran and succeeded
	OutcomeHandled
	// OutcomePreconditionFailed means a precondition rejected the invocation
	OutcomePreconditionFailed
	// OutcomeHandlerFailure means the handler returned an error or panicked
	OutcomeHandlerFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeHandled:
		return "handled"
	case OutcomePreconditionFailed:
		return "precondition_failed"
	case OutcomeHandlerFailure:
		return "handler_failure"
	default:
		return "ignored"
	}
}

// Outcome is returned by Route. Reason is set for failures and is safe to
// show to the invoking user.
type Outcome struct {
	Kind    OutcomeKind
	Command string
	Reason  string
	Err     error
}

// NeedsReply reports whether the caller should surface Reason to the channel
func (o Outcome) NeedsReply() bool {
	return o.Kind == OutcomePreconditionFailed || o.Kind == OutcomeHandlerFailure
}
