package domain

import "context"

// EventStore is the registration side of the spreadsheet boundary.
type EventStore interface {
	FetchEvents(ctx context.Context) ([]Event, error)
	FetchEventByID(ctx context.Context, id string) (*Event, error)
	FetchEventColumns(ctx context.Context, event *Event) ([]string, error)
	FetchAgeGroups(ctx context.Context, eventID string) ([]string, error)
	FetchCoaches(ctx context.Context, eventID string) ([]Coach, error)
	SaveRegistration(ctx context.Context, rec *RegistrationRecord) error
}

// ShopStore is the shop side of the spreadsheet boundary.
type ShopStore interface {
	FetchCatalog(ctx context.Context) ([]Product, error)
	FetchCategoryBanners(ctx context.Context) (map[string]string, error)
	SaveOrderRows(ctx context.Context, rows []OrderRow) error
}

// NotificationStore lists pending broadcast rows.
type NotificationStore interface {
	FetchNotifications(ctx context.Context) ([]Notification, error)
}

// ChatRegistry records every chat that has talked to the bot, for
// notification broadcasts.
type ChatRegistry interface {
	RegisterChat(ctx context.Context, chatID int64) error
	ListChats(ctx context.Context) ([]int64, error)
}
