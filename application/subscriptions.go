package application

import (
	"context"

	"questhelper/events"
	"questhelper/infrastructure/observability"
)

// RegisterApplicationSubscriptions registers all in-process event subscriptions
func RegisterApplicationSubscriptions(bus *events.Bus, notifier *LogChannelNotifier) {
	bus.Subscribe(events.EventTypePrefixChanged, notifier.Handle)
	bus.Subscribe(events.EventTypeDiaryStatusChanged, notifier.Handle)

	bus.Subscribe(events.EventTypeRoleReferencesPruned, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.RoleReferencesPrunedEvent); ok {
			observability.GetMetrics().RecordPrunedReferences(string(e.Kind), len(e.RoleIDs))
		}
	})
}
