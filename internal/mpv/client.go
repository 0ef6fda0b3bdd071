package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTimeout indicates a command or query did not complete within the
// channel deadline. The instance may still be healthy; retry policy belongs
// to the caller.
var ErrTimeout = errors.New("player channel timed out")

// ErrConnection indicates the channel to the instance is unusable.
var ErrConnection = errors.New("player channel connection failed")

// Client wraps one bidirectional command/query channel to one player
// instance. Calls are serialized on the single connection; every call is
// bounded by the configured timeout. Errors are reported to the caller and
// never retried here.
type Client struct {
	socketPath string
	timeout    time.Duration

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader

	nextID atomic.Int64
}

// Dial connects to a player's IPC socket.
func Dial(socketPath string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnection, socketPath, err)
	}
	return &Client{
		socketPath: socketPath,
		timeout:    timeout,
		conn:       conn,
		reader:     bufio.NewReader(conn),
	}, nil
}

// Reachable reports whether the socket accepts connections, without keeping
// one open. Used while waiting for a freshly spawned player to create its
// endpoint.
func Reachable(socketPath string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("unix", socketPath, timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// SocketPath returns the endpoint this client is bound to.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// Close releases the channel. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

// SetPause pauses or resumes playback.
func (c *Client) SetPause(ctx context.Context, paused bool) error {
	_, err := c.exchange(ctx, []any{"set_property", "pause", paused})
	return err
}

// SeekAbsolute repositions playback to the given position in seconds.
func (c *Client) SeekAbsolute(ctx context.Context, seconds float64) error {
	_, err := c.exchange(ctx, []any{"seek", seconds, "absolute"})
	return err
}

// Position queries the current playback position in seconds.
func (c *Client) Position(ctx context.Context) (float64, error) {
	data, err := c.exchange(ctx, []any{"get_property", "time-pos"})
	if err != nil {
		return 0, err
	}
	var pos float64
	if err := json.Unmarshal(data, &pos); err != nil {
		return 0, fmt.Errorf("unexpected time-pos payload %q: %w", data, err)
	}
	return pos, nil
}

// Quit asks the player to exit. Fire-only: a quitting player may close the
// socket before replying, so no response is awaited.
func (c *Client) Quit() error {
	return c.fire([]any{"quit"})
}

// Mute silences the player. Fire-only like Quit: this is sent to an
// instance that is being given up on, so a reply may never come.
func (c *Client) Mute() error {
	return c.fire([]any{"set_property", "mute", true})
}

// fire sends one command without awaiting its response.
func (c *Client) fire(command []any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("%w: not connected", ErrConnection)
	}
	id := c.nextID.Add(1)
	data, err := json.Marshal(request{Command: command, RequestID: id})
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}
	data = append(data, '\n')
	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if _, err := c.conn.Write(data); err != nil {
		return c.fail(err)
	}
	return nil
}

// exchange sends one command and waits for the response carrying its
// request id. Responses for other ids and asynchronous events are discarded;
// they belong to superseded requests or to nobody.
func (c *Client) exchange(ctx context.Context, command []any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("%w: not connected", ErrConnection)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := c.nextID.Add(1)
	data, err := json.Marshal(request{Command: command, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}
	data = append(data, '\n')

	conn := c.conn
	conn.SetDeadline(time.Now().Add(c.timeout))

	// A canceled context unblocks the read immediately instead of waiting
	// out the full deadline.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := conn.Write(data); err != nil {
		return nil, c.failCtx(ctx, err)
	}

	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return nil, c.failCtx(ctx, err)
		}

		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			continue // garbage on the wire, keep waiting within the deadline
		}
		if resp.Event != "" {
			continue
		}
		if resp.RequestID != id {
			continue // stale reply from a superseded request
		}
		if resp.Error != "" && resp.Error != statusSuccess {
			return nil, fmt.Errorf("player rejected command: %s", resp.Error)
		}
		return resp.Data, nil
	}
}

// fail classifies a transport error, tears down the connection on
// connection-level failures and returns the classified error.
func (c *Client) fail(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		// The connection survives a timeout; only the request is lost.
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	c.conn.Close()
	c.conn = nil
	c.reader = nil
	return fmt.Errorf("%w: %v", ErrConnection, err)
}

func (c *Client) failCtx(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return c.fail(err)
}
