// Package events carries live run progress from the engine to monitoring
// consumers over an in-process broker. Runs publish; SSE handlers
// subscribe. There are no ambient listeners: every subscription is an
// explicit channel with an unsubscribe function.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// Frame types emitted on the progress channel.
const (
	FrameStatus     = "status"
	FrameLog        = "log"
	FrameLogsBatch  = "logs_batch"
	FrameScreenshot = "screenshot"
	FrameError      = "error"
)

// LogEntry is one line of the activity feed.
type LogEntry struct {
	Action  string `json:"action"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Frame is one event on the live-progress channel.
type Frame struct {
	Type      string     `json:"type"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	Status    string     `json:"status,omitempty"`
	Log       *LogEntry  `json:"log,omitempty"`
	Logs      []LogEntry `json:"logs,omitempty"`
	// Screenshot is a data URL; CurrentURL is where it was taken.
	Screenshot string `json:"screenshot,omitempty"`
	CurrentURL string `json:"current_url,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Broker fans frames out to every subscriber of a campaign. Slow
// subscribers lose frames rather than block the publishing run.
type Broker struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[chan Frame]struct{}
}

// NewBroker builds an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[uuid.UUID]map[chan Frame]struct{})}
}

// Subscribe registers a listener for one campaign's frames. The returned
// cancel function must be called when the consumer goes away; it closes
// the channel.
func (b *Broker) Subscribe(campaignID uuid.UUID) (<-chan Frame, func()) {
	ch := make(chan Frame, 64)

	b.mu.Lock()
	if b.subs[campaignID] == nil {
		b.subs[campaignID] = make(map[chan Frame]struct{})
	}
	b.subs[campaignID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[campaignID], ch)
			if len(b.subs[campaignID]) == 0 {
				delete(b.subs, campaignID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers a frame to every subscriber of the campaign without
// blocking: a full subscriber buffer drops the frame for that subscriber.
func (b *Broker) Publish(campaignID uuid.UUID, frame Frame) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[campaignID] {
		select {
		case ch <- frame:
		default:
		}
	}
}

// Publisher binds a broker to one campaign (and optionally one company) so
// the engine can emit without carrying identifiers around.
type Publisher struct {
	broker     *Broker
	campaignID uuid.UUID
	companyID  *uuid.UUID
}

// NewPublisher scopes the broker to a campaign.
func (b *Broker) NewPublisher(campaignID uuid.UUID) *Publisher {
	return &Publisher{broker: b, campaignID: campaignID}
}

// ForCompany returns a publisher that stamps frames with the company id.
func (p *Publisher) ForCompany(companyID uuid.UUID) *Publisher {
	return &Publisher{broker: p.broker, campaignID: p.campaignID, companyID: &companyID}
}

// Status emits a free-text status frame.
func (p *Publisher) Status(status string) {
	p.emit(Frame{Type: FrameStatus, Status: status})
}

// Log emits a single activity-feed entry.
func (p *Publisher) Log(action, status, message string) {
	p.emit(Frame{Type: FrameLog, Log: &LogEntry{Action: action, Status: status, Message: message}})
}

// LogsBatch emits several entries in one frame.
func (p *Publisher) LogsBatch(entries []LogEntry) {
	if len(entries) == 0 {
		return
	}
	p.emit(Frame{Type: FrameLogsBatch, Logs: entries})
}

// Screenshot emits an image frame with the page URL it was captured on.
func (p *Publisher) Screenshot(dataURL, currentURL string) {
	p.emit(Frame{Type: FrameScreenshot, Screenshot: dataURL, CurrentURL: currentURL})
}

// Error emits an error frame.
func (p *Publisher) Error(message string) {
	p.emit(Frame{Type: FrameError, Error: message})
}

func (p *Publisher) emit(frame Frame) {
	if p == nil || p.broker == nil {
		return
	}
	frame.CompanyID = p.companyID
	p.broker.Publish(p.campaignID, frame)
}
