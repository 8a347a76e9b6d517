package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Iamregulus/Group-savings-app/internal/models"
)

type memStore struct {
	mu            sync.Mutex
	users         map[string]*models.User
	notifications []*models.Notification
	statuses      map[string]models.EmailStatus
	createErr     error
}

func newMemStore(users ...*models.User) *memStore {
	s := &memStore{users: map[string]*models.User{}, statuses: map[string]models.EmailStatus{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	n.ID = n.RecipientID + "-" + string(n.Type)
	s.notifications = append(s.notifications, n)
	s.statuses[n.ID] = n.EmailStatus
	return nil
}

func (s *memStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := map[string]*models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s *memStore) SetEmailStatus(ctx context.Context, id string, status models.EmailStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = status
	return nil
}

func (s *memStore) status(id string) models.EmailStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[id]
}

type recordingSender struct {
	mu   sync.Mutex
	sent []Email
	err  error
}

func (s *recordingSender) Send(ctx context.Context, email Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, email)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func user(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com", DisplayName: id}
}

// drain delivers everything currently queued.
func drain(d *Dispatcher) {
	for {
		select {
		case dl := <-d.queue:
			d.deliver(context.Background(), dl)
		default:
			return
		}
	}
}

func TestNotify(t *testing.T) {
	tests := []struct {
		name       string
		sender     *recordingSender
		useSender  bool
		recipients []string
		wantRows   int
		wantStatus models.EmailStatus
		wantSent   int
	}{
		{
			name:       "email sent for each recipient",
			sender:     &recordingSender{},
			useSender:  true,
			recipients: []string{"alice", "bob"},
			wantRows:   2,
			wantStatus: models.EmailSent,
			wantSent:   2,
		},
		{
			name:       "failed send keeps the notification",
			sender:     &recordingSender{err: errors.New("smtp down")},
			useSender:  true,
			recipients: []string{"alice"},
			wantRows:   1,
			wantStatus: models.EmailFailed,
		},
		{
			name:       "no sender marks skipped",
			recipients: []string{"alice"},
			wantRows:   1,
			wantStatus: models.EmailSkipped,
		},
		{
			name:       "unknown recipients are ignored",
			sender:     &recordingSender{},
			useSender:  true,
			recipients: []string{"ghost"},
			wantRows:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(user("alice"), user("bob"))
			var sender Sender
			if tt.useSender {
				sender = tt.sender
			}
			d := NewDispatcher(store, sender, 8, time.Second, discardLogger())

			d.Notify(context.Background(), tt.recipients, "txn-1", "hello", models.NotifyContribution)
			drain(d)

			if len(store.notifications) != tt.wantRows {
				t.Fatalf("Expected %d notifications, got %d", tt.wantRows, len(store.notifications))
			}
			for _, n := range store.notifications {
				if got := store.status(n.ID); got != tt.wantStatus {
					t.Errorf("Email status for %s: got %s, want %s", n.RecipientID, got, tt.wantStatus)
				}
				if n.TransactionID != "txn-1" {
					t.Errorf("TransactionID mismatch: got %s", n.TransactionID)
				}
			}
			if tt.sender != nil && len(tt.sender.sent) != tt.wantSent {
				t.Errorf("Expected %d emails sent, got %d", tt.wantSent, len(tt.sender.sent))
			}
		})
	}
}

func TestNotifyQueueOverflow(t *testing.T) {
	store := newMemStore(user("alice"), user("bob"))
	d := NewDispatcher(store, &recordingSender{}, 1, time.Second, discardLogger())

	d.Notify(context.Background(), []string{"alice", "bob"}, "txn-1", "hello", models.NotifyWithdrawalRequest)

	if got := store.status("bob-withdrawal_request"); got != models.EmailFailed {
		t.Errorf("Expected overflowed email to be failed, got %s", got)
	}
	if got := store.status("alice-withdrawal_request"); got != models.EmailQueued {
		t.Errorf("Expected first email to stay queued, got %s", got)
	}
}

func TestNotifyStoreFailureIsSwallowed(t *testing.T) {
	store := newMemStore(user("alice"))
	store.createErr = errors.New("disk full")
	d := NewDispatcher(store, &recordingSender{}, 8, time.Second, discardLogger())

	d.Notify(context.Background(), []string{"alice"}, "txn-1", "hello", models.NotifyContribution)

	if len(d.queue) != 0 {
		t.Errorf("Expected nothing queued, got %d", len(d.queue))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := newMemStore(user("alice"))
	sender := &recordingSender{}
	d := NewDispatcher(store, sender, 8, time.Second, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	d.Notify(context.Background(), []string{"alice"}, "txn-1", "hello", models.NotifyContribution)

	deadline := time.After(2 * time.Second)
	for store.status("alice-contribution") != models.EmailSent {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for delivery")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRunFailsUndeliveredOnStop(t *testing.T) {
	store := newMemStore(user("alice"), user("bob"))
	sender := &recordingSender{}
	d := NewDispatcher(store, sender, 8, time.Second, discardLogger())

	d.Notify(context.Background(), []string{"alice", "bob"}, "txn-1", "hello", models.NotifyContribution)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	for _, id := range []string{"alice-contribution", "bob-contribution"} {
		if got := store.status(id); got != models.EmailFailed {
			t.Errorf("%s: status %s, want %s", id, got, models.EmailFailed)
		}
	}
	if len(sender.sent) != 0 {
		t.Errorf("Expected no emails after stop, got %d", len(sender.sent))
	}
}

func TestHTTPSender(t *testing.T) {
	var got map[string]any
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL, "key-123", "noreply@example.com", server.Client())
	err := sender.Send(context.Background(), Email{To: "alice@example.com", Subject: "Hi", Body: "Body"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if auth != "Bearer key-123" {
		t.Errorf("Authorization mismatch: got %q", auth)
	}
	if got["subject"] != "Hi" || got["text"] != "Body" {
		t.Errorf("Unexpected payload: %v", got)
	}

	t.Run("non-2xx is an error", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer failing.Close()

		sender := NewHTTPSender(failing.URL, "key", "noreply@example.com", nil)
		if err := sender.Send(context.Background(), Email{To: "a@example.com"}); err == nil {
			t.Error("Expected error for 500 response")
		}
	})
}
