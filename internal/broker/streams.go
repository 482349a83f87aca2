package broker

import "strings"

const (
	// TopicExchange is the broker's built-in topic exchange relayed to STOMP
	// clients.
	TopicExchange = "amq.topic"

	CommentCommandExchange = "comment.command"
	CommentDeletedExchange = "commentservice.event.comment.deleted"

	RoomAccessSyncRequestQueue  = "backend.event.room.access.sync.request"
	RoomAccessSyncResponseQueue = "backend.event.room.access.sync.response"

	FeedbackCreateCommandQueue = "backend.command.feedback.create"
	FeedbackResetCommandQueue  = "backend.command.feedback.reset"
)

var (
	RoomAfterCreationExchange = EntityExchange("Room", "AfterCreation")
	RoomAfterDeletionExchange = EntityExchange("Room", "AfterDeletion")
	RoomAfterPatchExchange    = EntityExchange("Room", "AfterPatch")
	RoomDuplicatedExchange    = EntityExchange("Room", "Duplicated")
)

// EntityExchange names the fanout exchange of an (entity type, event type)
// pair.
func EntityExchange(entityType, eventType string) string {
	return "backend.event." + strings.ToLower(entityType) + "." + strings.ToLower(eventType)
}

// ConsumerQueue names a service's queue on another service's exchange.
func ConsumerQueue(exchange, service string) string {
	return exchange + ".consumer." + service
}

// RoomAccessSyncTopology is shared by both ends of the room-access sync.
func RoomAccessSyncTopology() Topology {
	return Merge(
		EventStream(RoomAccessSyncRequestQueue, RoomAccessSyncRequestQueue),
		EventStream(RoomAccessSyncResponseQueue, RoomAccessSyncResponseQueue),
	)
}

func CommentServiceTopology(service string) Topology {
	return Merge(
		EventStream(CommentCommandExchange, CommentCommandExchange),
		PublishOnly(CommentDeletedExchange),
		EventStream(RoomAfterCreationExchange, ConsumerQueue(RoomAfterCreationExchange, service)),
		EventStream(RoomAfterDeletionExchange, ConsumerQueue(RoomAfterDeletionExchange, service)),
		EventStream(RoomAfterPatchExchange, ConsumerQueue(RoomAfterPatchExchange, service)),
		EventStream(RoomDuplicatedExchange, ConsumerQueue(RoomDuplicatedExchange, service)),
		RoomAccessSyncTopology(),
	)
}

func CoreServiceTopology() Topology {
	return Merge(
		CommandStream(FeedbackCreateCommandQueue, FeedbackCreateCommandQueue),
		CommandStream(FeedbackResetCommandQueue, FeedbackResetCommandQueue),
		PublishOnly(RoomAfterCreationExchange),
		PublishOnly(RoomAfterDeletionExchange),
		PublishOnly(RoomAfterPatchExchange),
		PublishOnly(RoomDuplicatedExchange),
		RoomAccessSyncTopology(),
	)
}
