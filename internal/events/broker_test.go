package events

import (
	"testing"

	"github.com/google/uuid"
)

func TestBroker_PublishReachesSubscribers(t *testing.T) {
	broker := NewBroker()
	campaignID := uuid.New()

	frames, cancel := broker.Subscribe(campaignID)
	defer cancel()

	broker.Publish(campaignID, Frame{Type: FrameStatus, Status: "processing"})

	frame := <-frames
	if frame.Type != FrameStatus || frame.Status != "processing" {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

func TestBroker_IsolatesCampaigns(t *testing.T) {
	broker := NewBroker()
	a, b := uuid.New(), uuid.New()

	framesA, cancelA := broker.Subscribe(a)
	defer cancelA()
	framesB, cancelB := broker.Subscribe(b)
	defer cancelB()

	broker.Publish(a, Frame{Type: FrameStatus, Status: "completed"})

	if len(framesB) != 0 {
		t.Fatalf("frame leaked across campaigns")
	}
	if frame := <-framesA; frame.Status != "completed" {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

func TestBroker_DropsWhenSubscriberFull(t *testing.T) {
	broker := NewBroker()
	campaignID := uuid.New()

	_, cancel := broker.Subscribe(campaignID)
	defer cancel()

	// More frames than the subscriber buffer; Publish must never block.
	for i := 0; i < 1000; i++ {
		broker.Publish(campaignID, Frame{Type: FrameLog})
	}
}

func TestBroker_CancelIsIdempotent(t *testing.T) {
	broker := NewBroker()
	campaignID := uuid.New()

	frames, cancel := broker.Subscribe(campaignID)
	cancel()
	cancel()

	if _, ok := <-frames; ok {
		t.Fatalf("expected closed channel after cancel")
	}

	// Publishing after the last unsubscribe must be a no-op.
	broker.Publish(campaignID, Frame{Type: FrameStatus})
}

func TestPublisher_StampsCompanyID(t *testing.T) {
	broker := NewBroker()
	campaignID, companyID := uuid.New(), uuid.New()

	frames, cancel := broker.Subscribe(campaignID)
	defer cancel()

	pub := broker.NewPublisher(campaignID).ForCompany(companyID)
	pub.Status("processing")
	pub.Log("navigate", "start", "https://example.com")
	pub.LogsBatch([]LogEntry{{Action: "fill_field", Status: "email", Message: "email"}})
	pub.Error("boom")

	for i := 0; i < 4; i++ {
		frame := <-frames
		if frame.CompanyID == nil || *frame.CompanyID != companyID {
			t.Fatalf("frame %d missing company id: %+v", i, frame)
		}
	}
}

func TestPublisher_NilSafe(t *testing.T) {
	var pub *Publisher
	pub.Status("processing")
	pub.Log("a", "b", "c")
	pub.Error("boom")
}

func TestPublisher_EmptyBatchSkipped(t *testing.T) {
	broker := NewBroker()
	campaignID := uuid.New()

	frames, cancel := broker.Subscribe(campaignID)
	defer cancel()

	broker.NewPublisher(campaignID).LogsBatch(nil)
	if len(frames) != 0 {
		t.Fatalf("empty batch must not emit a frame")
	}
}
