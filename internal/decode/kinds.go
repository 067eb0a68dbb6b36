package decode

import "github.com/five82/deskhub/internal/resource"

// NewTaskDecoder decodes task list responses ({"tasks": [...], "count", "pendingCount"}).
func NewTaskDecoder() *Decoder[resource.Task] {
	return newDecoder(kindSpec[taskWire, resource.Task]{
		kind:        resource.Tasks,
		field:       "tasks",
		unreadField: "pendingCount",
		entityKeys:  []string{"id", "taskId", "title", "name"},
		normalize:   taskWire.normalize,
		unread:      resource.Task.Open,
		fallback: func(id, title, detail string) resource.Task {
			return resource.Task{
				ID:          id,
				Title:       title,
				Description: detail,
				Status:      "error",
				Priority:    resource.DefaultTaskPriority,
				Synthetic:   true,
			}
		},
	})
}

// NewNotificationDecoder decodes notification responses ({"notifications": [...], "count", "unreadCount"}).
func NewNotificationDecoder() *Decoder[resource.Notification] {
	return newDecoder(kindSpec[notificationWire, resource.Notification]{
		kind:        resource.Notifications,
		field:       "notifications",
		unreadField: "unreadCount",
		entityKeys:  []string{"id", "title", "message"},
		normalize:   notificationWire.normalize,
		unread:      resource.Notification.Unread,
		fallback: func(id, title, detail string) resource.Notification {
			return resource.Notification{
				ID:        id,
				Title:     title,
				Message:   detail,
				Type:      "error",
				Synthetic: true,
			}
		},
	})
}

// NewActionDecoder decodes quick-action responses ({"actions": [...], "count"}).
func NewActionDecoder() *Decoder[resource.Action] {
	return newDecoder(kindSpec[actionWire, resource.Action]{
		kind:       resource.Actions,
		field:      "actions",
		entityKeys: []string{"id", "title", "name", "url"},
		normalize:  actionWire.normalize,
		fallback: func(id, title, detail string) resource.Action {
			return resource.Action{
				ID:          id,
				Title:       title,
				Description: detail,
				Icon:        "alert",
				Method:      resource.DefaultActionMethod,
				Synthetic:   true,
			}
		},
	})
}

// NewConversationDecoder decodes conversation list responses ({"conversations": [...], "count", "unreadCount"}).
func NewConversationDecoder() *Decoder[resource.Conversation] {
	return newDecoder(kindSpec[conversationWire, resource.Conversation]{
		kind:        resource.Conversations,
		field:       "conversations",
		unreadField: "unreadCount",
		entityKeys:  []string{"id", "conversationId", "title"},
		normalize:   conversationWire.normalize,
		unread: func(c resource.Conversation) bool {
			return c.UnreadCount > 0 && !c.Synthetic
		},
		fallback: func(id, title, detail string) resource.Conversation {
			return resource.Conversation{
				ID:          id,
				Title:       title,
				LastMessage: detail,
				Synthetic:   true,
			}
		},
	})
}

// NewHistoryDecoder decodes conversation history responses ({"messages": [...], "count"}).
func NewHistoryDecoder() *Decoder[resource.ChatMessagePair] {
	return newDecoder(kindSpec[chatPairWire, resource.ChatMessagePair]{
		kind:       resource.ConversationHistory,
		field:      "messages",
		entityKeys: []string{"id", "userMessage", "assistantMessage", "user", "assistant"},
		normalize:  chatPairWire.normalize,
		fallback: func(id, title, detail string) resource.ChatMessagePair {
			return resource.ChatMessagePair{
				ID:               id,
				AssistantMessage: title,
				UserMessage:      detail,
				Synthetic:        true,
			}
		},
	})
}
