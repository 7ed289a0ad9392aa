package chat

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsPair dials a throwaway upgrade server and hands back both ends.
func wsPair(t *testing.T) (serverSide, clientSide *websocket.Conn) {
	t.Helper()
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	accepted := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		require.NoError(t, err)
		accepted <- ws
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientSide, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSide.Close() })

	serverSide = <-accepted
	t.Cleanup(func() { _ = serverSide.Close() })
	return serverSide, clientSide
}

func newTestRegistry() *Registry {
	return NewRegistry(NewFanout(2, 64), 16)
}

func TestRegistryAddBindsIdentity(t *testing.T) {
	reg := newTestRegistry()
	ws, _ := wsPair(t)

	c, err := reg.Add("s1", 42, "alice", ws)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, int64(42), c.UserID)
	assert.Equal(t, "alice", c.Username)

	got, ok := reg.Get("s1")
	require.True(t, ok)
	assert.Equal(t, int64(42), got.UserID)

	// duplicate session id is rejected
	_, err = reg.Add("s1", 43, "mallory", ws)
	assert.Error(t, err)
	got, _ = reg.Get("s1")
	assert.Equal(t, int64(42), got.UserID)
}

func TestRegistryRejectsAnonymousSession(t *testing.T) {
	reg := newTestRegistry()
	ws, _ := wsPair(t)

	_, err := reg.Add("s1", 0, "", ws)
	assert.Error(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestRemoveIdempotent(t *testing.T) {
	reg := newTestRegistry()
	ws, _ := wsPair(t)
	_, err := reg.Add("s1", 42, "alice", ws)
	require.NoError(t, err)

	uid, removed := reg.Remove("s1")
	assert.True(t, removed)
	assert.Equal(t, int64(42), uid)
	assert.Equal(t, 0, reg.Len())

	// repeated close signals are a no-op
	_, removed = reg.Remove("s1")
	assert.False(t, removed)
	_, removed = reg.Remove("never-existed")
	assert.False(t, removed)
}

func TestBroadcastReachesAllRegistered(t *testing.T) {
	reg := newTestRegistry()
	wsA, clientA := wsPair(t)
	wsB, clientB := wsPair(t)

	_, err := reg.Add("a", 1, "alice", wsA)
	require.NoError(t, err)
	_, err = reg.Add("b", 2, "bob", wsB)
	require.NoError(t, err)

	reg.Broadcast([]byte(`{"hello":"world"}`))

	for _, cl := range []*websocket.Conn{clientA, clientB} {
		require.NoError(t, cl.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := cl.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"hello":"world"}`, string(data))
	}
}

func TestBroadcastSurvivesRemovedSession(t *testing.T) {
	reg := newTestRegistry()
	wsA, clientA := wsPair(t)
	wsB, _ := wsPair(t)

	_, err := reg.Add("a", 1, "alice", wsA)
	require.NoError(t, err)
	_, err = reg.Add("b", 2, "bob", wsB)
	require.NoError(t, err)

	// b disappears; a must still receive the broadcast
	reg.Remove("b")
	reg.Broadcast([]byte(`"ping"`))

	require.NoError(t, clientA.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := clientA.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `"ping"`, string(data))
}

func TestSessionAbsentReceivesNothing(t *testing.T) {
	reg := newTestRegistry()
	wsA, clientA := wsPair(t)
	_, err := reg.Add("a", 1, "alice", wsA)
	require.NoError(t, err)
	reg.Remove("a")

	reg.Broadcast([]byte(`"ghost"`))

	require.NoError(t, clientA.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err = clientA.ReadMessage()
	assert.Error(t, err) // closed or timed out, never a delivered frame
}

// Broadcasts overlapping the registration window of other sessions must be
// race-free: fanout workers read client identity while new sessions join and
// old ones leave. Tight queues force the enqueue drop path, which also reads
// identity. Run with -race.
func TestConcurrentAddRemoveBroadcast(t *testing.T) {
	reg := NewRegistry(NewFanout(4, 256), 1)

	const sessions = 16
	conns := make([]*websocket.Conn, sessions)
	for i := range conns {
		conns[i], _ = wsPair(t)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				reg.Broadcast([]byte(`"tick"`))
			}
		}
	}()

	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			_, err := reg.Add(id, int64(i+1), fmt.Sprintf("user%d", i), conns[i])
			assert.NoError(t, err)
			reg.Remove(id)
		}(i)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	time.AfterFunc(200*time.Millisecond, func() { close(stop) })

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("registry churn did not finish")
	}
	assert.Equal(t, 0, reg.Len())
}
