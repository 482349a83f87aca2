package events

const (
	commentStream          = ".comment.stream"
	commentModeratorStream = ".comment.moderator.stream"
	settingsStream         = ".comment.settings.stream"
	feedbackStream         = ".feedback.stream"
)

// TopicFor returns the STOMP routing key an event of kind must be published
// to. For comment events isPublic is the comment's ack flag; settings and
// feedback events ignore it.
func TopicFor(roomId string, isPublic bool, kind Kind) string {
	switch kind {
	case SettingsUpdated:
		return roomId + settingsStream
	case FeedbackChanged, FeedbackReset, FeedbackStarted, FeedbackStopped:
		return roomId + feedbackStream
	}

	if isPublic {
		return roomId + commentStream
	}
	return roomId + commentModeratorStream
}
