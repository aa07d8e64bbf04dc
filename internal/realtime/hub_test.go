package realtime

import (
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/kysclient/foodly-backend/internal/pkg/logger"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewHub(log)
}

func recvOrNothing(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case msg := <-c.Outbound:
		return msg, true
	default:
		return Message{}, false
	}
}

func TestBroadcastReachesAllUserSessions(t *testing.T) {
	hub := newTestHub(t)
	userID := uuid.New()
	otherID := uuid.New()

	session1 := hub.NewClient(userID)
	session2 := hub.NewClient(userID)
	other := hub.NewClient(otherID)
	hub.AddChannel(session1, UserChannel(userID))
	hub.AddChannel(session2, UserChannel(userID))
	hub.AddChannel(other, UserChannel(otherID))

	hub.Broadcast(Message{Channel: UserChannel(userID), Event: EventMealPlanStatus, Data: "hello"})

	for i, c := range []*Client{session1, session2} {
		msg, ok := recvOrNothing(t, c)
		if !ok {
			t.Fatalf("session %d: expected a message", i+1)
		}
		if msg.Event != EventMealPlanStatus || msg.Data != "hello" {
			t.Fatalf("session %d: wrong message: %+v", i+1, msg)
		}
	}
	if _, ok := recvOrNothing(t, other); ok {
		t.Fatalf("other user should not receive the event")
	}
}

func TestPlanChannelSubscription(t *testing.T) {
	hub := newTestHub(t)
	userID := uuid.New()
	planID := uuid.New()

	client := hub.NewClient(userID)
	hub.AddChannel(client, PlanChannel(planID))

	hub.Broadcast(Message{Channel: PlanChannel(planID), Event: EventMealPlanUpdated})
	if _, ok := recvOrNothing(t, client); !ok {
		t.Fatalf("expected plan channel message")
	}

	hub.RemoveChannel(client, PlanChannel(planID))
	hub.Broadcast(Message{Channel: PlanChannel(planID), Event: EventMealPlanUpdated})
	if _, ok := recvOrNothing(t, client); ok {
		t.Fatalf("unsubscribed client should not receive the event")
	}
}

func TestBroadcastNoSubscribersIsNoop(t *testing.T) {
	hub := newTestHub(t)
	hub.Broadcast(Message{Channel: "nobody-home", Event: EventMealPlanStatus})
	hub.Broadcast(Message{Event: EventMealPlanStatus})
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := newTestHub(t)
	userID := uuid.New()
	client := hub.NewClient(userID)
	hub.AddChannel(client, UserChannel(userID))

	// Fill the buffer without draining.
	for i := 0; i < cap(client.Outbound)+5; i++ {
		hub.Broadcast(Message{Channel: UserChannel(userID), Event: EventMealPlanStatus, Data: i})
	}

	// A full buffer never blocks Broadcast; the overflow is just gone.
	count := 0
	for {
		if _, ok := recvOrNothing(t, client); !ok {
			break
		}
		count++
	}
	if count != cap(client.Outbound) {
		t.Fatalf("expected %d buffered messages, got %d", cap(client.Outbound), count)
	}
}

func TestCloseClientConcurrent(t *testing.T) {
	hub := newTestHub(t)
	userID := uuid.New()
	client := hub.NewClient(userID)
	hub.AddChannel(client, UserChannel(userID))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.CloseClient(client)
		}()
	}
	wg.Wait()

	select {
	case <-client.done:
	default:
		t.Fatalf("client not closed")
	}
}

func TestCloseClientIsIdempotent(t *testing.T) {
	hub := newTestHub(t)
	userID := uuid.New()
	client := hub.NewClient(userID)
	hub.AddChannel(client, UserChannel(userID))

	hub.CloseClient(client)
	hub.CloseClient(client)

	// Closed client is fully unsubscribed; Broadcast must not panic on its
	// closed Outbound channel.
	hub.Broadcast(Message{Channel: UserChannel(userID), Event: EventMealPlanStatus})
}
