// Package socketio provides the 'socketio' node: it connects to a
// Socket.IO server, emits its input under a configured event name, and
// optionally waits for a response event.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/edgeflow/internal/ctxlog"
	"github.com/vk/edgeflow/internal/registry"
)

const defaultTimeout = 10 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

type processor struct{}

func (processor) Concurrent() bool { return true }

// opResult passes the outcome through the done channel.
type opResult struct {
	value map[string]any
	err   error
}

func (processor) Execute(ctx context.Context, in *registry.Input) (map[string]any, error) {
	rawURL, ok := in.Config["url"].(string)
	if !ok || rawURL == "" {
		return nil, fmt.Errorf("url is required")
	}
	namespace, _ := in.Config["namespace"].(string)
	emitEvent, _ := in.Config["emit_event"].(string)
	onEvent, _ := in.Config["on_event"].(string)
	insecure, _ := in.Config["insecure_skip_verify"].(bool)

	logger := ctxlog.FromContext(ctx).With("processor", "socketio", "node", in.NodeID, "url", rawURL, "emitEvent", emitEvent, "onEvent", onEvent)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	timeout := defaultTimeout
	if t, found := in.Config["timeout"].(string); found {
		parsed, err := time.ParseDuration(t)
		if err != nil {
			logger.Warn("Failed to parse timeout, using default 10s", "timeout", t, "error", err)
		} else {
			timeout = parsed
		}
	}

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)

	if insecure {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Successfully connected", "namespace", namespace, "sid", io.Id())
		if emitEvent != "" {
			logger.Debug("Emitting event", "event", emitEvent)
			io.Emit(emitEvent, in.Data)
		}
		if onEvent == "" {
			done <- opResult{value: map[string]any{"emitted": emitEvent != ""}}
		}
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		done <- opResult{err: errs[0].(error)}
	})

	if onEvent != "" {
		io.On(types.EventName(onEvent), func(data ...any) {
			var responseData any
			if len(data) > 0 {
				responseData = data[0]
			}
			done <- opResult{value: map[string]any{"response_data": responseData}}
		})
	}

	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return nil, fmt.Errorf("timed out after connecting while waiting for event '%s'", onEvent)
		}
		return nil, fmt.Errorf("timed out while waiting for initial connection")
	case res := <-done:
		return res.value, res.err
	}
}

// Register registers the processor with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("socketio", processor{})
}
