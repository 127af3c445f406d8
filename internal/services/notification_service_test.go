package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/certchain/credential-service/internal/events"
	"github.com/certchain/credential-service/internal/models"
)

func newNotificationFixture() (NotificationService, *memoryRepository, *events.MockEventPublisher) {
	logger := testLogger()
	repo := newMemoryRepository()
	publisher := events.NewMockEventPublisher(logger)
	service := NewNotificationService(repo, publisher, logger)
	return service, repo, publisher
}

func TestNotificationService_Notify(t *testing.T) {
	ctx := context.Background()
	service, _, publisher := newNotificationFixture()

	service.Notify(ctx, models.NotificationSuccess, "Certificate issued for S-1")

	notifications, err := service.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifications))
	}
	if notifications[0].Type != models.NotificationSuccess {
		t.Errorf("Expected success type, got %s", notifications[0].Type)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.TypeSystemNotification {
		t.Errorf("Expected one system.notification event, got %+v", published)
	}
}

func TestNotificationService_FeedCap(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newNotificationFixture()

	for i := 0; i < models.MaxNotifications+10; i++ {
		service.Notify(ctx, models.NotificationInfo, fmt.Sprintf("message %d", i))
	}

	notifications, err := service.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(notifications) != models.MaxNotifications {
		t.Errorf("Expected feed capped at %d, got %d", models.MaxNotifications, len(notifications))
	}
	if notifications[0].Message != fmt.Sprintf("message %d", models.MaxNotifications+9) {
		t.Errorf("Expected newest first, got %q", notifications[0].Message)
	}
}

func TestNotificationService_ReadState(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newNotificationFixture()

	service.Notify(ctx, models.NotificationInfo, "first")
	service.Notify(ctx, models.NotificationWarning, "second")

	count, err := service.UnreadCount(ctx)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 unread, got %d", count)
	}

	notifications, _ := service.List(ctx)
	if err := service.MarkRead(ctx, notifications[0].ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if count, _ = service.UnreadCount(ctx); count != 1 {
		t.Errorf("Expected 1 unread after MarkRead, got %d", count)
	}

	if err := service.MarkAllRead(ctx); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	if count, _ = service.UnreadCount(ctx); count != 0 {
		t.Errorf("Expected 0 unread after MarkAllRead, got %d", count)
	}

	t.Run("unknown notification is not found", func(t *testing.T) {
		if err := service.MarkRead(ctx, 99999); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if err := service.Delete(ctx, 99999); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("clear empties the feed", func(t *testing.T) {
		if err := service.Clear(ctx); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		notifications, _ := service.List(ctx)
		if len(notifications) != 0 {
			t.Errorf("Expected empty feed, got %d entries", len(notifications))
		}
	})
}
