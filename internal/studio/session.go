// internal/studio/session.go
package studio

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/merchstudio/photostudio-backend/internal/models"
)

var (
	ErrSessionClosed    = errors.New("studio session is closed")
	ErrImagePublishing  = errors.New("image is currently publishing")
	ErrSelectSuperseded = errors.New("selection superseded by a newer request")
	ErrProductRequired  = errors.New("product id is required")
	ErrImageURLRequired = errors.New("image url is required")
	ErrLiveImageLimit   = errors.New("live image limit reached")
)

// ErrorDomain keys the per-session error slots. Each remote concern owns
// one slot; a new failure overwrites the previous one and a successful call
// clears it.
type ErrorDomain string

const (
	ErrorDomainAPI          ErrorDomain = "api"
	ErrorDomainImages       ErrorDomain = "images"
	ErrorDomainSubscription ErrorDomain = "subscription"
)

type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationSuccess NotificationLevel = "success"
	NotificationWarning NotificationLevel = "warning"
	NotificationError   NotificationLevel = "error"
)

// Notification is a queued dashboard toast. The UI drains the queue by
// polling; nothing is pushed.
type Notification struct {
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
}

// StagedUpload describes a file placed in the staging bucket by the upload
// endpoint.
type StagedUpload struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	Checksum string `json:"checksum,omitempty"`
}

// Session owns the complete editing state of one open studio: the image
// collection, the undo/redo history, the canvas layer, and the UI flags.
// All mutations run through the lifecycle operations; the session mutex is
// released across remote calls so a slow upstream never freezes the rest
// of the studio.
type Session struct {
	ID         uuid.UUID
	InstanceID string
	ProductID  string
	CreatedAt  time.Time

	deps Deps

	mu              sync.Mutex
	closed          bool
	collection      *Collection
	history         *History
	layer           *models.Layer
	explorerVisible bool
	detailsImageID  string
	errs            map[ErrorDomain]string
	notifications   []Notification
	selectGen       uint64
	entitlement     *models.Entitlement
	stagedKeys      []string
	lastSeen        time.Time
}

func newSession(instanceID, productID string, deps Deps) *Session {
	now := time.Now()
	return &Session{
		ID:              uuid.New(),
		InstanceID:      instanceID,
		ProductID:       productID,
		CreatedAt:       now,
		deps:            deps,
		collection:      NewCollection(),
		history:         NewHistory(),
		explorerVisible: true,
		errs:            make(map[ErrorDomain]string),
		lastSeen:        now,
	}
}

// Snapshot is the full observable state of a session, shaped for the
// dashboard.
type Snapshot struct {
	SessionID   string                `json:"session_id"`
	ProductID   string                `json:"product_id,omitempty"`
	Images      []models.ImagePreview `json:"images"`
	LiveImages  []models.ImagePreview `json:"live_images"`
	DraftImages []models.ImagePreview `json:"draft_images"`
	Reference   *models.ImagePreview  `json:"reference_image,omitempty"`
	Layer       *models.Layer         `json:"layer,omitempty"`
	Settings    models.EditorSettings `json:"settings"`
	CanUndo     bool                  `json:"can_undo"`
	CanRedo     bool                  `json:"can_redo"`
	Errors      map[string]string     `json:"errors,omitempty"`
	Entitlement *models.Entitlement   `json:"entitlement,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:   s.ID.String(),
		ProductID:   s.ProductID,
		Images:      s.collection.All(),
		LiveImages:  s.collection.LiveOrdered(),
		DraftImages: s.collection.DraftOrdered(),
		Settings: models.EditorSettings{
			SelectedImageID: s.collection.SelectedID(),
			ExplorerVisible: s.explorerVisible,
			DetailsImageID:  s.detailsImageID,
		},
		CanUndo:   s.history.CanUndo(),
		CanRedo:   s.history.CanRedo(),
		CreatedAt: s.CreatedAt,
	}

	if ref, ok := s.collection.Reference(); ok {
		snap.Reference = &ref
	}
	if s.layer != nil {
		layer := *s.layer
		snap.Layer = &layer
	}
	if len(s.errs) > 0 {
		snap.Errors = make(map[string]string, len(s.errs))
		for domain, msg := range s.errs {
			snap.Errors[string(domain)] = msg
		}
	}
	if s.entitlement != nil {
		ent := *s.entitlement
		snap.Entitlement = &ent
	}

	return snap
}

// SettingsPatch is a partial update of the session UI flags.
type SettingsPatch struct {
	ExplorerVisible *bool   `json:"explorer_visible,omitempty"`
	DetailsImageID  *string `json:"details_image_id,omitempty"`
}

func (s *Session) UpdateSettings(patch SettingsPatch) models.EditorSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.ExplorerVisible != nil {
		s.explorerVisible = *patch.ExplorerVisible
	}
	if patch.DetailsImageID != nil {
		s.detailsImageID = *patch.DetailsImageID
	}

	return models.EditorSettings{
		SelectedImageID: s.collection.SelectedID(),
		ExplorerVisible: s.explorerVisible,
		DetailsImageID:  s.detailsImageID,
	}
}

// Undo steps the history pointer back and reinstates that canvas state.
// At the bottom of the stack it is a no-op.
func (s *Session) Undo() (*models.Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	layer, ok := s.history.Undo()
	if !ok {
		return s.currentLayerLocked(), false
	}
	s.layer = &layer
	out := layer
	return &out, true
}

// Redo steps the history pointer forward and reinstates that canvas state.
// At the top of the stack it is a no-op.
func (s *Session) Redo() (*models.Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	layer, ok := s.history.Redo()
	if !ok {
		return s.currentLayerLocked(), false
	}
	s.layer = &layer
	out := layer
	return &out, true
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

func (s *Session) currentLayerLocked() *models.Layer {
	if s.layer == nil {
		return nil
	}
	layer := *s.layer
	return &layer
}

// AddStagedUpload registers a freshly staged upload as an ephemeral
// collection record. The record stays until a publish or a select away
// from it cleans it up; the staged object itself is removed when the
// session closes.
func (s *Session) AddStagedUpload(upload StagedUpload) (models.ImagePreview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.ImagePreview{}, ErrSessionClosed
	}

	img := models.ImagePreview{
		ID:          "upload_" + uuid.NewString(),
		ImageState:  models.ImageStateUploaded,
		ImageURL:    upload.URL,
		CreatedAt:   models.NowMillis(),
		ProductID:   s.ProductID,
		IsLiveImage: false,
	}

	s.collection.Add(img, true)
	if upload.Key != "" {
		s.stagedKeys = append(s.stagedKeys, upload.Key)
	}

	return img, nil
}

// DrainNotifications returns the queued toasts and empties the queue.
func (s *Session) DrainNotifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.notifications
	s.notifications = nil
	return out
}

// Close marks the session unusable, drops its editing state, and removes
// staged uploads in the background. In-flight remote operations observe the
// closed flag when they reacquire the lock and discard their results.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.layer = nil
	s.history.Reset()
	staged := s.stagedKeys
	s.stagedKeys = nil
	s.mu.Unlock()

	if s.deps.Staging != nil && len(staged) > 0 {
		go func() {
			for _, key := range staged {
				if err := s.deps.Staging.DeleteFile(key); err != nil {
					logrus.WithFields(logrus.Fields{
						"session_id": s.ID.String(),
						"key":        key,
					}).Warn("Failed to remove staged upload")
				}
			}
		}()
	}
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) expired(ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastSeen) > ttl
}

func (s *Session) setEntitlement(ent *models.Entitlement) {
	s.mu.Lock()
	s.entitlement = ent
	s.mu.Unlock()
}

// notify and the error-slot helpers assume the caller holds the session
// mutex.

func (s *Session) notifyLocked(level NotificationLevel, message string) {
	s.notifications = append(s.notifications, Notification{
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

func (s *Session) setErrorLocked(domain ErrorDomain, message string) {
	s.errs[domain] = message
}

func (s *Session) clearErrorLocked(domain ErrorDomain) {
	delete(s.errs, domain)
}
