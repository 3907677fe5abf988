package ws

import (
	"errors"
	"sync"
	"testing"

	"github.com/noovy/concierge/pkg/api"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []api.WSMessage
	fail     bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("write failed")
	}
	if msg, ok := v.(api.WSMessage); ok {
		c.messages = append(c.messages, msg)
	}
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) received() []api.WSMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.WSMessage(nil), c.messages...)
}

func TestSendToSession(t *testing.T) {
	h := NewHub()
	a, b, other := &fakeConn{}, &fakeConn{}, &fakeConn{}
	h.Connect(a, "s1")
	h.Connect(b, "s1")
	h.Connect(other, "s2")

	h.NotifyMessage("s1", map[string]any{"text": "hi"})

	if len(a.received()) != 1 || len(b.received()) != 1 {
		t.Error("both s1 connections should receive the message")
	}
	if len(other.received()) != 0 {
		t.Error("s2 must not receive s1 messages")
	}
	if a.received()[0].Type != "message" {
		t.Errorf("unexpected type %s", a.received()[0].Type)
	}
}

func TestBroadcastReachesEveryone(t *testing.T) {
	h := NewHub()
	session, global := &fakeConn{}, &fakeConn{}
	h.Connect(session, "s1")
	h.Connect(global, "")

	h.Broadcast(api.WSMessage{Type: "ping"})

	if len(session.received()) != 1 || len(global.received()) != 1 {
		t.Error("broadcast should reach session and broadcast pools")
	}
}

func TestAdminWelcomeAndNotifications(t *testing.T) {
	h := NewHub()
	user := &fakeConn{}
	h.Connect(user, "s1")

	admin := &fakeConn{}
	h.ConnectAdmin(admin)

	msgs := admin.received()
	if len(msgs) != 1 || msgs[0].Type != "welcome" {
		t.Fatalf("admin should get a welcome, got %v", msgs)
	}
	if msgs[0].Data["active_sessions"] != 1 {
		t.Errorf("welcome should carry current stats, got %v", msgs[0].Data)
	}

	h.Connect(&fakeConn{}, "s2")
	msgs = admin.received()
	if len(msgs) != 2 || msgs[1].Type != "connection" {
		t.Errorf("admin should be told about new connections, got %v", msgs)
	}
}

func TestNotifyAdminsDropsFailedConnections(t *testing.T) {
	h := NewHub()
	bad := &fakeConn{fail: true}
	good := &fakeConn{}
	h.ConnectAdmin(good)
	h.mu.Lock()
	h.admins[bad] = true
	h.mu.Unlock()

	h.NotifyAdmins(api.WSMessage{Type: "alert"})

	stats := h.Stats()
	if stats.AdminConnections != 1 {
		t.Errorf("failed admin connection should be dropped, got %d", stats.AdminConnections)
	}
}

func TestDisconnect(t *testing.T) {
	h := NewHub()
	c := &fakeConn{}
	h.Connect(c, "s1")
	h.Disconnect(c, "s1")

	stats := h.Stats()
	if stats.TotalSessions != 0 || stats.TotalConnections != 0 {
		t.Errorf("disconnect should empty the hub, got %+v", stats)
	}

	h.NotifyMessage("s1", nil)
	if len(c.received()) != 0 {
		t.Error("disconnected conn must not receive messages")
	}
}

func TestStats(t *testing.T) {
	h := NewHub()
	h.Connect(&fakeConn{}, "s1")
	h.Connect(&fakeConn{}, "s1")
	h.Connect(&fakeConn{}, "")
	h.ConnectAdmin(&fakeConn{})

	stats := h.Stats()
	if stats.TotalSessions != 1 || stats.TotalConnections != 2 ||
		stats.BroadcastConnections != 1 || stats.AdminConnections != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestNotifierQueueTrims(t *testing.T) {
	n := NewNotifier(NewHub())
	for i := 0; i < maxQueuedNotifications+1; i++ {
		n.Notify("t", "m", "info", "", nil)
	}
	recent := n.Recent(maxQueuedNotifications)
	if len(recent) != trimQueuedNotifications {
		t.Errorf("expected queue trimmed to %d, got %d", trimQueuedNotifications, len(recent))
	}
}

func TestNotifierTargetsSession(t *testing.T) {
	h := NewHub()
	in, out := &fakeConn{}, &fakeConn{}
	h.Connect(in, "s1")
	h.Connect(out, "s2")

	n := NewNotifier(h)
	n.Notify("כותרת", "הודעה", "info", "s1", nil)

	if len(in.received()) != 1 {
		t.Error("target session should receive the notification")
	}
	if len(out.received()) != 0 {
		t.Error("other session must not receive it")
	}

	got := n.Recent(1)
	if len(got) != 1 || got[0].Data["title"] != "כותרת" {
		t.Errorf("notification should be queued, got %v", got)
	}
}
