// internal/studio/manager.go
package studio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/merchstudio/photostudio-backend/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

const janitorInterval = time.Minute

// Manager owns every live editing session of the process and evicts the
// ones whose dashboard went quiet.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	deps     Deps
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewManager(deps Deps) *Manager {
	ttl := time.Duration(deps.Config.SessionTTL) * time.Minute
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	m := &Manager{
		sessions: make(map[uuid.UUID]*Session),
		deps:     deps,
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Open creates a session bound to an instance. The entitlement lookup runs
// in the background so a slow billing backend never delays the editor.
func (m *Manager) Open(ctx context.Context, instanceID, productID string) *Session {
	sess := newSession(instanceID, productID, m.deps)

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	if m.deps.Entitlements != nil {
		go m.loadEntitlement(context.WithoutCancel(ctx), sess)
	}
	sess.recordEvent(ctx, models.EventSessionOpened, productID, nil)

	logrus.WithFields(logrus.Fields{
		"session_id":  sess.ID.String(),
		"instance_id": instanceID,
		"product_id":  productID,
	}).Info("Studio session opened")
	return sess
}

// Get returns a live session, refusing IDs owned by another instance.
func (m *Manager) Get(instanceID string, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok || sess.Closed() || sess.InstanceID != instanceID {
		return nil, ErrSessionNotFound
	}
	sess.touch()
	return sess, nil
}

// Close ends a session and removes it from the manager.
func (m *Manager) Close(ctx context.Context, instanceID string, id uuid.UUID) error {
	sess, err := m.Get(instanceID, id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	sess.recordEvent(ctx, models.EventSessionClosed, sess.ProductID, nil)
	sess.Close()

	logrus.WithFields(logrus.Fields{
		"session_id":  id.String(),
		"instance_id": instanceID,
	}).Info("Studio session closed")
	return nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown stops the janitor and closes every remaining session.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

func (m *Manager) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictExpired()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) evictExpired() {
	m.mu.Lock()
	var expired []*Session
	for id, sess := range m.sessions {
		if sess.expired(m.ttl) {
			delete(m.sessions, id)
			expired = append(expired, sess)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		logrus.WithFields(logrus.Fields{
			"session_id":  sess.ID.String(),
			"instance_id": sess.InstanceID,
		}).Info("Evicting idle studio session")
		sess.recordEvent(context.Background(), models.EventSessionClosed, sess.ProductID, nil)
		sess.Close()
	}
}

func (m *Manager) loadEntitlement(ctx context.Context, sess *Session) {
	ent, err := m.deps.Entitlements.Lookup(ctx, sess.InstanceID)
	if err != nil {
		logrus.WithField("instance_id", sess.InstanceID).WithError(err).Warn("Entitlement lookup failed, assuming free tier")
		sess.mu.Lock()
		if !sess.closed {
			sess.setErrorLocked(ErrorDomainSubscription, "subscription lookup failed")
		}
		sess.mu.Unlock()
		return
	}
	sess.setEntitlement(ent)
}
