package preview

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"upload-ai/internal/domain"
)

// PathPrefix is the route under which preview bytes are served.
const PathPrefix = "/preview/"

// Handle is a revocable reference to the selected video for display.
type Handle struct {
	Token    string `json:"token"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type entry struct {
	handle  Handle
	data    []byte
	created time.Time
}

// Manager holds at most one live preview. Issuing a new handle revokes the
// previous one so repeated selections never accumulate.
type Manager struct {
	mu      sync.RWMutex
	current *entry
	newID   func() string
}

// NewManager creates an empty preview slot.
func NewManager() *Manager {
	return &Manager{newID: func() string { return uuid.NewString() }}
}

// SetMedia revokes the current handle and issues one for media.
func (m *Manager) SetMedia(media domain.SelectedMedia) Handle {
	token := m.newID()
	h := Handle{
		Token:    token,
		URL:      PathPrefix + token,
		Name:     media.Name,
		MIMEType: media.MIMEType,
		Size:     media.Size,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &entry{handle: h, data: media.Data, created: time.Now()}
	return h
}

// Teardown revokes the current handle unconditionally.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
}

// Current returns the live handle, if any.
func (m *Manager) Current() (Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Handle{}, false
	}
	return m.current.handle, true
}

// ServeHTTP serves the bytes of the live handle with range support.
// Revoked or unknown tokens get 404.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.URL.Path, PathPrefix)
	if !ok || token == "" {
		http.NotFound(w, r)
		return
	}

	m.mu.RLock()
	cur := m.current
	m.mu.RUnlock()
	if cur == nil || cur.handle.Token != token {
		http.NotFound(w, r)
		return
	}

	if cur.handle.MIMEType != "" {
		w.Header().Set("Content-Type", cur.handle.MIMEType)
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, cur.handle.Name, cur.created, bytes.NewReader(cur.data))
}
