package hubsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/five82/deskhub/internal/hubapi"
	"github.com/five82/deskhub/internal/resource"
)

// Task actions accepted by TaskAction.
const (
	TaskStart = "start"
	TaskStop  = "stop"
	TaskClose = "close"
)

const (
	notificationRead    = "read"
	notificationReadAll = "read_all"
	allNotificationsID  = "all"
)

// endpointsSnapshot reads the mutation endpoints on the engine goroutine.
func (e *Engine) endpointsSnapshot(ctx context.Context) (Endpoints, string, error) {
	var eps Endpoints
	var conv string
	err := e.submit(ctx, func(context.Context) {
		eps = e.endpoints
		conv = e.conversationID
	})
	return eps, conv, err
}

// afterMutation marks kinds stale and asks for a refresh of each.
func (e *Engine) afterMutation(ctx context.Context, kinds ...resource.Kind) error {
	err := e.submit(ctx, func(context.Context) {
		for _, kind := range kinds {
			e.coords[kind].invalidate()
		}
	})
	if err != nil {
		return err
	}
	for _, kind := range kinds {
		e.Refresh(kind)
	}
	return nil
}

// MarkNotificationRead reports a notification as read.
func (e *Engine) MarkNotificationRead(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("notification id required")
	}
	return e.updateNotifications(ctx, id, notificationRead)
}

// MarkAllNotificationsRead reports every notification as read.
func (e *Engine) MarkAllNotificationsRead(ctx context.Context) error {
	return e.updateNotifications(ctx, allNotificationsID, notificationReadAll)
}

func (e *Engine) updateNotifications(ctx context.Context, id, action string) error {
	eps, _, err := e.endpointsSnapshot(ctx)
	if err != nil {
		return err
	}
	req := hubapi.NewUpdateRequest(id, action, e.now())
	if err := e.transport.Update(ctx, eps.NotificationUpdate, req); err != nil {
		return fmt.Errorf("mark notification %s: %w", id, err)
	}
	e.logger.Info("notification updated", "id", id, "action", action)
	return e.afterMutation(ctx, resource.Notifications)
}

// TaskAction starts, stops or closes a task.
func (e *Engine) TaskAction(ctx context.Context, id, action string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("task id required")
	}
	action = strings.ToLower(strings.TrimSpace(action))
	switch action {
	case TaskStart, TaskStop, TaskClose:
	default:
		return fmt.Errorf("unsupported task action %q", action)
	}

	eps, _, err := e.endpointsSnapshot(ctx)
	if err != nil {
		return err
	}
	req := hubapi.NewUpdateRequest(id, action, e.now())
	if err := e.transport.Update(ctx, eps.TaskUpdate, req); err != nil {
		return fmt.Errorf("%s task %s: %w", action, id, err)
	}
	e.logger.Info("task updated", "id", id, "action", action)
	return e.afterMutation(ctx, resource.Tasks)
}

// RunAction triggers the quick action with id from the published list.
func (e *Engine) RunAction(ctx context.Context, id string) error {
	var action resource.Action
	found := false
	for _, a := range e.store.Actions.Snapshot().Items {
		if a.ID == id && !a.Synthetic {
			action = a
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("quick action %q not found", id)
	}
	if err := e.transport.Trigger(ctx, action); err != nil {
		return fmt.Errorf("run action %q: %w", action.Title, err)
	}
	e.logger.Info("quick action triggered", "id", action.ID, "title", action.Title)
	return nil
}

// SendMessage posts text to the selected conversation and reloads its history.
func (e *Engine) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("message is empty")
	}
	eps, conv, err := e.endpointsSnapshot(ctx)
	if err != nil {
		return err
	}
	req := hubapi.ChatRequest{
		ConversationID: conv,
		Message:        text,
		UserID:         e.userID,
	}
	if _, err := e.transport.SendMessage(ctx, eps.ChatSend, req); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	e.logger.Info("message sent", "conversation", conv)

	kinds := []resource.Kind{resource.Conversations}
	if conv != "" {
		kinds = append(kinds, resource.ConversationHistory)
	}
	return e.afterMutation(ctx, kinds...)
}
