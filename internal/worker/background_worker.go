package worker

import (
	"context"
	"sync"
	"time"

	"registration-assistant/internal/domain"
	"registration-assistant/internal/services"
)

const (
	refreshInterval = 5 * time.Minute
	notifyInterval  = 1 * time.Minute

	workerCallTimeout = 30 * time.Second
)

// Broadcaster delivers a plain text message straight to a chat, outside
// any conversation.
type Broadcaster interface {
	SendToChat(ctx context.Context, chatID int64, text string) error
}

// BackgroundWorker keeps the catalog caches warm and broadcasts scheduled
// notifications to every known chat once their send time is due.
type BackgroundWorker struct {
	catalogService  *services.CatalogService
	registryService *services.RegistryService
	notifications   domain.NotificationStore
	broadcaster     Broadcaster
	logger          domain.Logger

	stopCh       chan struct{}
	wg           sync.WaitGroup
	isRunning    bool
	runningMutex sync.Mutex

	// ids already broadcast this process lifetime; the sheet row is not
	// mutated, so a restart may re-send a still-due notification.
	sent map[string]bool
}

// NewBackgroundWorker creates a new background worker instance
func NewBackgroundWorker(
	catalogService *services.CatalogService,
	registryService *services.RegistryService,
	notifications domain.NotificationStore,
	broadcaster Broadcaster,
	logger domain.Logger,
) *BackgroundWorker {
	return &BackgroundWorker{
		catalogService:  catalogService,
		registryService: registryService,
		notifications:   notifications,
		broadcaster:     broadcaster,
		logger:          logger,
		stopCh:          make(chan struct{}),
		sent:            make(map[string]bool),
	}
}

// Start starts the background worker
func (w *BackgroundWorker) Start() {
	w.runningMutex.Lock()
	defer w.runningMutex.Unlock()

	if w.isRunning {
		return
	}
	w.isRunning = true

	w.wg.Add(1)
	go w.run()
}

// Stop signals the loop and waits for the in-flight cycle to finish
func (w *BackgroundWorker) Stop() {
	w.runningMutex.Lock()
	defer w.runningMutex.Unlock()

	if !w.isRunning {
		return
	}

	close(w.stopCh)
	w.wg.Wait()
	w.isRunning = false
}

func (w *BackgroundWorker) run() {
	defer w.wg.Done()

	w.refreshCaches()
	w.deliverDueNotifications()

	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()
	notifyTicker := time.NewTicker(notifyInterval)
	defer notifyTicker.Stop()

	for {
		select {
		case <-refreshTicker.C:
			w.refreshCaches()
		case <-notifyTicker.C:
			w.deliverDueNotifications()
		case <-w.stopCh:
			return
		}
	}
}

func (w *BackgroundWorker) refreshCaches() {
	ctx, cancel := context.WithTimeout(context.Background(), workerCallTimeout)
	defer cancel()

	if err := w.catalogService.Refresh(ctx); err != nil {
		w.logger.WithError(err).Warn("Фонове оновлення каталогу не вдалося")
	}
}

// deliverDueNotifications sends every notification whose send time has
// passed and that was not sent yet this process lifetime.
func (w *BackgroundWorker) deliverDueNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), workerCallTimeout)
	defer cancel()

	notifications, err := w.notifications.FetchNotifications(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("Не вдалося отримати сповіщення")
		return
	}

	due := w.dueNotifications(notifications)
	if len(due) == 0 {
		return
	}

	chats, err := w.registryService.Chats(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("Не вдалося отримати список чатів для розсилки")
		return
	}

	for _, notification := range due {
		delivered := 0
		for _, chatID := range chats {
			if err := w.broadcaster.SendToChat(ctx, chatID, notification.Message); err != nil {
				w.logger.WithError(err).WithField("chat_id", chatID).Warn("Сповіщення не доставилося")
				continue
			}
			delivered++
		}
		w.sent[notification.ID] = true
		w.logger.WithFields(map[string]any{
			"notification_id": notification.ID,
			"delivered":       delivered,
			"chats":           len(chats),
		}).Success("Сповіщення розіслано")
	}
}

func (w *BackgroundWorker) dueNotifications(notifications []domain.Notification) []domain.Notification {
	now := time.Now()

	var due []domain.Notification
	for _, notification := range notifications {
		if notification.ID == "" || w.sent[notification.ID] {
			continue
		}
		sendAt, err := services.ParseSheetDate(notification.SendDateTime)
		if err != nil {
			w.logger.WithField("notification_id", notification.ID).
				WithField("send_date_time", notification.SendDateTime).
				Warn("Сповіщення з нечитабельною датою пропущене")
			continue
		}
		if sendAt.After(now) {
			continue
		}
		due = append(due, notification)
	}
	return due
}
