package services

import (
	"context"
	"encoding/json"

	"github.com/medigate/medigate-cli/internal/api"
	"github.com/medigate/medigate-cli/internal/models"
)

type NotificationService struct {
	client *api.Client
}

func NewNotificationService(client *api.Client) *NotificationService {
	return &NotificationService{client: client}
}

func (s *NotificationService) All(ctx context.Context) api.Result[[]models.Notification] {
	return api.Get[[]models.Notification](ctx, s.client, api.Notifications, nil)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id int) api.Result[models.Notification] {
	return api.Patch[models.Notification](ctx, s.client, api.NotificationMarkRead, struct{}{}, api.ID(id))
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context) api.Result[json.RawMessage] {
	return api.Post[json.RawMessage](ctx, s.client, api.NotificationMarkAllRead, struct{}{}, nil)
}

func (s *NotificationService) Unread(ctx context.Context) api.Result[[]models.Notification] {
	return filter(s.All(ctx), func(n models.Notification) bool { return !n.Read })
}

func (s *NotificationService) UnreadCount(ctx context.Context) api.Result[int] {
	return api.Map(s.Unread(ctx), func(unread []models.Notification) int { return len(unread) })
}
