package portal

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// DefaultPollInterval is the fixed notification poll cadence.
const DefaultPollInterval = 30 * time.Second

// DefaultNotificationsEndpoint serves member dashboard shells; admin shells
// configure the admin endpoint instead.
const DefaultNotificationsEndpoint = "/api/user/notifications"

// NotificationService owns the local notification list for a dashboard
// shell: fetch, unread count, optimistic mark-as-read, mark-all, and the
// seen-id diffing that drives the "new notification" signal. Read state is
// eventually consistent with the server; local flips are resynced by the
// next poll.
type NotificationService struct {
	client   *Client
	store    SessionStore
	logger   Logger
	endpoint string

	mu          sync.Mutex
	items       []Notification
	newArrivals []Notification
}

// NotificationOption customizes a NotificationService.
type NotificationOption func(*NotificationService)

// WithNotificationsEndpoint points the service at a different list endpoint
// (e.g. /api/admin/notifications for admin shells).
func WithNotificationsEndpoint(endpoint string) NotificationOption {
	return func(s *NotificationService) {
		if endpoint != "" {
			s.endpoint = endpoint
		}
	}
}

// WithNotificationsLogger overrides the default logger.
func WithNotificationsLogger(logger Logger) NotificationOption {
	return func(s *NotificationService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewNotificationService returns a service over the shared client + store.
func NewNotificationService(client *Client, store SessionStore, opts ...NotificationOption) *NotificationService {
	s := &NotificationService{
		client:   client,
		store:    store,
		logger:   defLogger{},
		endpoint: DefaultNotificationsEndpoint,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// notificationPayload absorbs both response shapes the backend uses: a bare
// array or an object with a notifications key.
func decodeNotificationList(raw json.RawMessage) ([]Notification, error) {
	trimmed := leadingByte(raw)
	if trimmed == '[' {
		var items []Notification
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var wrapper struct {
		Notifications []Notification `json:"notifications"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Notifications, nil
}

func leadingByte(raw []byte) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

// Refresh fetches the list from the server, replacing the local cache and
// recomputing which notifications are new since the last seen set.
func (s *NotificationService) Refresh(ctx context.Context) ([]Notification, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, s.endpoint, &raw); err != nil {
		return nil, err
	}

	items, err := decodeNotificationList(raw)
	if err != nil {
		s.logger.Warn("unable to decode notification list", "error", err)
		return nil, err
	}

	seen := make(map[int64]bool)
	for _, id := range s.store.SeenNotificationIDs() {
		seen[id] = true
	}

	var arrivals []Notification
	ids := make([]int64, 0, len(items))
	for _, n := range items {
		ids = append(ids, n.ID)
		if !seen[n.ID] {
			arrivals = append(arrivals, n)
		}
	}

	if err := s.store.SetSeenNotificationIDs(ids); err != nil {
		s.logger.Warn("unable to persist seen notification ids", "error", err)
	}

	s.mu.Lock()
	s.items = items
	s.newArrivals = arrivals
	s.mu.Unlock()

	return s.Notifications(), nil
}

// Notifications returns a copy of the cached list.
func (s *NotificationService) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

// NewArrivals returns the notifications first observed by the latest Refresh.
func (s *NotificationService) NewArrivals() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.newArrivals))
	copy(out, s.newArrivals)
	return out
}

// UnreadCount returns the number of cached unread notifications.
func (s *NotificationService) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.items {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// MarkAsRead flips the given ids locally first, then notifies the server.
// A failed call is logged and left for the next poll tick to reconcile; no
// refetch happens here.
func (s *NotificationService) MarkAsRead(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}

	s.mu.Lock()
	target := make(map[int64]bool, len(ids))
	for _, id := range ids {
		target[id] = true
	}
	for i := range s.items {
		if target[s.items[i].ID] {
			s.items[i].IsRead = true
		}
	}
	s.mu.Unlock()

	payload := map[string]any{"notification_ids": ids}
	if err := s.client.Post(ctx, s.endpoint+"/mark-as-read", payload, nil); err != nil {
		s.logger.Debug("mark-as-read failed, will resync on next poll", "error", err)
	}
}

// MarkAllAsRead marks every cached unread notification and then refetches
// the authoritative list.
func (s *NotificationService) MarkAllAsRead(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.items))
	for _, n := range s.items {
		if !n.IsRead {
			ids = append(ids, n.ID)
		}
	}
	s.mu.Unlock()

	if len(ids) > 0 {
		payload := map[string]any{"notification_ids": ids}
		if err := s.client.Post(ctx, s.endpoint+"/mark-as-read", payload, nil); err != nil {
			return err
		}
	}

	_, err := s.Refresh(ctx)
	return err
}

// Poller drives a shared fixed-interval notification refresh: one timer per
// resource type, started by the shell, stopped by context cancellation. Each
// tick is an independent request with no overlap protection; a slow tick
// never delays the next one.
type Poller struct {
	service  *NotificationService
	logger   Logger
	interval time.Duration
	onUpdate func([]Notification)
}

// PollerOption customizes a Poller.
type PollerOption func(*Poller)

// WithPollInterval overrides the default 30s cadence.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPollLogger overrides the default logger.
func WithPollLogger(logger Logger) PollerOption {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithUpdateHandler registers the callback invoked with the refreshed list
// after every successful tick.
func WithUpdateHandler(fn func([]Notification)) PollerOption {
	return func(p *Poller) {
		p.onUpdate = fn
	}
}

// NewPoller returns a poller over the given service.
func NewPoller(service *NotificationService, opts ...PollerOption) *Poller {
	p := &Poller{
		service:  service,
		logger:   defLogger{},
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls immediately and then on every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	go p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	items, err := p.service.Refresh(ctx)
	if err != nil {
		// transient poll failures stay out of the user's way
		p.logger.Debug("notification poll failed", "error", err)
		return
	}
	if p.onUpdate != nil {
		p.onUpdate(items)
	}
}
