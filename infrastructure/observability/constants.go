package observability

// Metric name prefixes
const (
	MetricPrefix = "questhelper"
)

// Metric names
const (
	// Command routing metrics
	CommandsRoutedTotal = MetricPrefix + ".commands.routed_total"
	CommandDuration     = MetricPrefix + ".commands.duration"

	// Diary metrics
	ReactionsProcessedTotal = MetricPrefix + ".diaries.reactions_processed_total"

	// Role metrics
	RoleReferencesPrunedTotal = MetricPrefix + ".roles.references_pruned_total"
	AutoRoleAssignmentsTotal  = MetricPrefix + ".roles.auto_assignments_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelCommand   = "command"
	LabelOutcome   = "outcome"
	LabelResult    = "result"
	LabelKind      = "kind"
	LabelEventType = "event_type"
)
