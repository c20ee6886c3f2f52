package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrAlreadySubscribed is returned when an active subscriber signs up again.
var ErrAlreadySubscribed = errors.New("already subscribed")

// Subscriber is a newsletter recipient.
type Subscriber struct {
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	TechStack     []string   `json:"tech_stack"`
	SubscribedAt  time.Time  `json:"subscribed_at"`
	LastEmailSent *time.Time `json:"last_email_sent,omitempty"`
	Active        bool       `json:"active"`
}

// Subscribe adds email as an active subscriber. An inactive subscriber is
// reactivated with the new role and tech stack, and reactivated is true.
// Thread-safe: acquires write lock.
func (s *Store) Subscribe(email, role string, techStack []string) (reactivated bool, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if techStack == nil {
		techStack = []string{}
	}
	tech, err := json.Marshal(techStack)
	if err != nil {
		return false, fmt.Errorf("encode tech stack: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var active int
	err = s.db.QueryRow(`SELECT active FROM subscribers WHERE email = ?`, email).Scan(&active)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.Exec(`
			INSERT INTO subscribers (email, role, tech_stack, subscribed_at, active)
			VALUES (?, ?, ?, ?, 1)
		`, email, role, string(tech), time.Now().UTC())
		if err != nil {
			return false, fmt.Errorf("insert subscriber: %w", err)
		}
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lookup subscriber: %w", err)
	case active == 1:
		return false, ErrAlreadySubscribed
	}

	_, err = s.db.Exec(`
		UPDATE subscribers SET role = ?, tech_stack = ?, subscribed_at = ?, active = 1
		WHERE email = ?
	`, role, string(tech), time.Now().UTC(), email)
	if err != nil {
		return false, fmt.Errorf("reactivate subscriber: %w", err)
	}
	return true, nil
}

// Unsubscribe marks email inactive. It returns ErrNotFound for unknown
// addresses.
// Thread-safe: acquires write lock.
func (s *Store) Unsubscribe(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE subscribers SET active = 0 WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Subscribers returns every subscriber, newest first.
// Thread-safe: acquires read lock.
func (s *Store) Subscribers() ([]Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySubscribers(`
		SELECT email, role, tech_stack, subscribed_at, last_email_sent, active
		FROM subscribers ORDER BY subscribed_at DESC, email ASC
	`)
}

// ActiveSubscribers returns the subscribers that receive the newsletter.
// Thread-safe: acquires read lock.
func (s *Store) ActiveSubscribers() ([]Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySubscribers(`
		SELECT email, role, tech_stack, subscribed_at, last_email_sent, active
		FROM subscribers WHERE active = 1 ORDER BY subscribed_at ASC, email ASC
	`)
}

// MarkEmailSent records that a newsletter went to email at t.
// Thread-safe: acquires write lock.
func (s *Store) MarkEmailSent(email string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE subscribers SET last_email_sent = ? WHERE email = ?`, t.UTC(), email)
	if err != nil {
		return fmt.Errorf("mark email sent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// querySubscribers scans subscriber rows. Caller must hold s.mu.
func (s *Store) querySubscribers(query string, args ...any) ([]Subscriber, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Subscriber{}
	for rows.Next() {
		var (
			sub    Subscriber
			tech   string
			sent   sql.NullTime
			active int
		)
		if err := rows.Scan(&sub.Email, &sub.Role, &tech, &sub.SubscribedAt, &sent, &active); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tech), &sub.TechStack); err != nil {
			return nil, fmt.Errorf("decode tech stack for %s: %w", sub.Email, err)
		}
		if sent.Valid {
			t := sent.Time
			sub.LastEmailSent = &t
		}
		sub.Active = active == 1
		result = append(result, sub)
	}
	return result, rows.Err()
}
