package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlayer is a scriptable mpv IPC endpoint. The handler receives each
// decoded request and returns the raw lines to write back (nil writes
// nothing, simulating an unresponsive player).
type fakePlayer struct {
	socketPath string
	listener   net.Listener
}

func newFakePlayer(t *testing.T, handler func(req map[string]any) []string) *fakePlayer {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "player.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				reader := bufio.NewReader(conn)
				for {
					line, err := reader.ReadBytes('\n')
					if err != nil {
						return
					}
					var req map[string]any
					if err := json.Unmarshal(line, &req); err != nil {
						continue
					}
					for _, out := range handler(req) {
						if _, err := conn.Write([]byte(out + "\n")); err != nil {
							return
						}
					}
				}
			}(conn)
		}
	}()

	return &fakePlayer{socketPath: socketPath, listener: listener}
}

func requestID(req map[string]any) int64 {
	id, _ := req["request_id"].(float64)
	return int64(id)
}

func okLine(id int64) string {
	return fmt.Sprintf(`{"request_id":%d,"error":"success"}`, id)
}

func TestClient_SetPauseRoundTrip(t *testing.T) {
	commands := make(chan []any, 1)
	player := newFakePlayer(t, func(req map[string]any) []string {
		cmd, _ := req["command"].([]any)
		commands <- cmd
		return []string{okLine(requestID(req))}
	})

	client, err := Dial(player.socketPath, time.Second)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.SetPause(context.Background(), true))
	assert.Equal(t, []any{"set_property", "pause", true}, <-commands)
}

func TestClient_PositionParsesData(t *testing.T) {
	player := newFakePlayer(t, func(req map[string]any) []string {
		return []string{fmt.Sprintf(`{"request_id":%d,"error":"success","data":42.5}`, requestID(req))}
	})

	client, err := Dial(player.socketPath, time.Second)
	require.NoError(t, err)
	defer client.Close()

	pos, err := client.Position(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42.5, pos)
}

func TestClient_DiscardsMismatchedRequestIDs(t *testing.T) {
	// A stale reply and an async event arrive before the real response;
	// both must be skipped, not matched positionally.
	player := newFakePlayer(t, func(req map[string]any) []string {
		id := requestID(req)
		return []string{
			fmt.Sprintf(`{"request_id":%d,"error":"success","data":1.0}`, id+100),
			`{"event":"playback-restart"}`,
			fmt.Sprintf(`{"request_id":%d,"error":"success","data":7.25}`, id),
		}
	})

	client, err := Dial(player.socketPath, time.Second)
	require.NoError(t, err)
	defer client.Close()

	pos, err := client.Position(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7.25, pos)
}

func TestClient_TimeoutOnSilentPlayer(t *testing.T) {
	player := newFakePlayer(t, func(req map[string]any) []string {
		return nil // never answers
	})

	client, err := Dial(player.socketPath, 50*time.Millisecond)
	require.NoError(t, err)
	defer client.Close()

	err = client.SetPause(context.Background(), true)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_SurvivesTimeoutThenRecovers(t *testing.T) {
	var answer atomic.Bool
	player := newFakePlayer(t, func(req map[string]any) []string {
		if !answer.Load() {
			return nil
		}
		return []string{okLine(requestID(req))}
	})

	client, err := Dial(player.socketPath, 50*time.Millisecond)
	require.NoError(t, err)
	defer client.Close()

	require.ErrorIs(t, client.SetPause(context.Background(), true), ErrTimeout)

	answer.Store(true)
	assert.NoError(t, client.SetPause(context.Background(), false))
}

func TestClient_ConnectionErrorOnClosedSocket(t *testing.T) {
	player := newFakePlayer(t, func(req map[string]any) []string {
		return []string{okLine(requestID(req))}
	})

	client, err := Dial(player.socketPath, time.Second)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	err = client.SetPause(context.Background(), true)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestClient_DialFailsWithoutEndpoint(t *testing.T) {
	_, err := Dial(filepath.Join(t.TempDir(), "absent.sock"), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestClient_ErrorStatusSurfaces(t *testing.T) {
	player := newFakePlayer(t, func(req map[string]any) []string {
		return []string{fmt.Sprintf(`{"request_id":%d,"error":"property unavailable"}`, requestID(req))}
	})

	client, err := Dial(player.socketPath, time.Second)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Position(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "property unavailable")
}

func TestClient_ContextCancelUnblocksPromptly(t *testing.T) {
	player := newFakePlayer(t, func(req map[string]any) []string {
		return nil
	})

	client, err := Dial(player.socketPath, 5*time.Second)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err = client.SetPause(ctx, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second, "cancel must not wait out the channel deadline")
}

func TestReachable(t *testing.T) {
	player := newFakePlayer(t, func(req map[string]any) []string { return nil })

	assert.True(t, Reachable(player.socketPath, 50*time.Millisecond))
	assert.False(t, Reachable(filepath.Join(t.TempDir(), "absent.sock"), 50*time.Millisecond))
}
