package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Subscriber is one user signed up for scheduled flextime notifications.
type Subscriber struct {
	ID    string `json:"id"` // Slack user ID
	Email string `json:"email"`
}

// subscriberState is what gets persisted between daemon runs.
type subscriberState struct {
	Subscribers    []Subscriber `json:"subscribers"`
	LastNotifyDate string       `json:"last_notify_date"`
	UpdatedAt      string       `json:"updated_at"`
}

// SubscriberStore keeps the notification subscriber list in a JSON file so
// subscriptions and the last-run marker survive daemon restarts.
type SubscriberStore struct {
	stateFile string
	state     *subscriberState
	logger    *zap.Logger
}

func NewSubscriberStore(stateFile string, logger *zap.Logger) *SubscriberStore {
	return &SubscriberStore{
		stateFile: stateFile,
		logger:    logger,
	}
}

// Load reads the subscriber state from file. A missing file is an empty
// list, created on first save.
func (s *SubscriberStore) Load() error {
	data, err := os.ReadFile(s.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			s.state = &subscriberState{}
			return nil
		}
		return fmt.Errorf("failed to read subscriber file: %w", err)
	}

	var state subscriberState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse subscriber file: %w", err)
	}

	s.state = &state
	s.logger.Info("Subscribers loaded",
		zap.Int("count", len(state.Subscribers)),
		zap.String("last_notify_date", state.LastNotifyDate))

	return nil
}

// Save writes the subscriber state to file.
func (s *SubscriberStore) Save() error {
	s.state.UpdatedAt = time.Now().Format(time.RFC3339)

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal subscriber state: %w", err)
	}
	if err := os.WriteFile(s.stateFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write subscriber file: %w", err)
	}

	s.logger.Info("Subscribers saved", zap.Int("count", len(s.state.Subscribers)))
	return nil
}

// Subscribe adds a subscriber, or updates the Slack user ID when the email
// is already on the list.
func (s *SubscriberStore) Subscribe(id, email string) error {
	for i, sub := range s.state.Subscribers {
		if strings.EqualFold(sub.Email, email) {
			s.state.Subscribers[i].ID = id
			return s.Save()
		}
	}
	s.state.Subscribers = append(s.state.Subscribers, Subscriber{ID: id, Email: email})
	return s.Save()
}

// Unsubscribe removes a subscriber by email.
func (s *SubscriberStore) Unsubscribe(email string) error {
	for i, sub := range s.state.Subscribers {
		if strings.EqualFold(sub.Email, email) {
			s.state.Subscribers = append(s.state.Subscribers[:i], s.state.Subscribers[i+1:]...)
			return s.Save()
		}
	}
	return fmt.Errorf("no subscription found for %s", email)
}

// List returns all subscribers.
func (s *SubscriberStore) List() []Subscriber {
	return s.state.Subscribers
}

// LastNotifyDate returns the date of the last completed notification run.
func (s *SubscriberStore) LastNotifyDate() string {
	if s.state == nil {
		return ""
	}
	return s.state.LastNotifyDate
}

// SetLastNotifyDate records a completed notification run.
func (s *SubscriberStore) SetLastNotifyDate(date string) error {
	s.state.LastNotifyDate = date
	return s.Save()
}
