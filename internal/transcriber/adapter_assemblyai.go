package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
)

// AssemblyAIClient implements StreamingClient for AssemblyAI universal
// streaming (v3).
type AssemblyAIClient struct {
	cfg Config

	mu        sync.Mutex
	conn      *websocket.Conn
	handler   Handler
	connected bool
	closing   bool

	// writeMu serialises frames from the audio sender and keyterm updates.
	writeMu sync.Mutex

	terminated     chan struct{}
	terminatedOnce sync.Once
	done           chan struct{}
}

var _ StreamingClient = (*AssemblyAIClient)(nil)

// Outgoing control messages.
type assemblyAIUpdateConfiguration struct {
	Type           string   `json:"type"`
	KeytermsPrompt []string `json:"keyterms_prompt"`
}

type assemblyAITerminate struct {
	Type string `json:"type"`
}

// assemblyAIMessage is the union of incoming message shapes.
type assemblyAIMessage struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`

	// Begin
	ID        string `json:"id,omitempty"`
	ExpiresAt int64  `json:"expires_at,omitempty"`

	// Turn
	Transcript      string `json:"transcript,omitempty"`
	EndOfTurn       bool   `json:"end_of_turn,omitempty"`
	TurnIsFormatted bool   `json:"turn_is_formatted,omitempty"`
	TurnOrder       int    `json:"turn_order,omitempty"`

	// Termination
	AudioDurationSeconds   float64 `json:"audio_duration_seconds,omitempty"`
	SessionDurationSeconds float64 `json:"session_duration_seconds,omitempty"`
}

func NewAssemblyAIClient(cfg Config) *AssemblyAIClient {
	return &AssemblyAIClient{
		cfg:        cfg,
		terminated: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Connect dials the streaming endpoint and starts the read loop.
func (c *AssemblyAIClient) Connect(ctx context.Context, h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected || c.closing {
		return fmt.Errorf("assemblyai: client already used")
	}

	wsURL, err := c.buildURL()
	if err != nil {
		return fmt.Errorf("build websocket url: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", c.cfg.APIKey)

	log.Printf("assemblyai: connecting to %s", redactURL(wsURL))
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			log.Printf("assemblyai: dial failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	c.handler = h
	c.connected = true

	go c.readLoop(conn)

	log.Printf("assemblyai: connected, model=%s, sample_rate=%d", c.cfg.SpeechModel, c.cfg.SampleRate)
	return nil
}

func (c *AssemblyAIClient) buildURL() (string, error) {
	if c.cfg.Endpoint == nil {
		return "", errors.New("no endpoint configured")
	}
	u, err := url.Parse(c.cfg.Endpoint.URL())
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	q := u.Query()
	q.Set("sample_rate", strconv.Itoa(c.cfg.SampleRate))
	q.Set("encoding", c.cfg.Encoding)
	if c.cfg.SpeechModel != "" {
		q.Set("speech_model", c.cfg.SpeechModel)
	}
	q.Set("end_of_turn_confidence_threshold", strconv.FormatFloat(c.cfg.EndOfTurnConfidenceThreshold, 'f', -1, 64))
	q.Set("min_end_of_turn_silence_when_confident", strconv.Itoa(c.cfg.MinEndOfTurnSilenceWhenConfident))
	q.Set("max_turn_silence", strconv.Itoa(c.cfg.MaxTurnSilence))
	q.Set("language_detection", strconv.FormatBool(c.cfg.LanguageDetection))
	q.Set("format_turns", strconv.FormatBool(c.cfg.FormatTurns))

	if len(c.cfg.Keyterms) > 0 {
		terms, err := json.Marshal(c.cfg.Keyterms)
		if err != nil {
			return "", fmt.Errorf("encode keyterms: %w", err)
		}
		q.Set("keyterms_prompt", string(terms))
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// redactURL drops the query string, which can hold a long keyterm list.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}

func (c *AssemblyAIClient) readLoop(conn *websocket.Conn) {
	defer close(c.done)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		var msg assemblyAIMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("assemblyai: parse error: %v", err)
			continue
		}
		c.dispatch(msg)
	}
}

func (c *AssemblyAIClient) handleReadError(err error) {
	c.mu.Lock()
	closing := c.closing
	h := c.handler
	c.connected = false
	c.mu.Unlock()

	if closing {
		return
	}

	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		if ce.Code == websocket.CloseNormalClosure {
			log.Printf("assemblyai: server closed session")
			return
		}
		log.Printf("assemblyai: session closed with code %d: %s", ce.Code, ce.Text)
		h.OnError(&StreamError{Code: ce.Code, Message: ce.Text})
		return
	}

	log.Printf("assemblyai: read error: %v", err)
	h.OnError(fmt.Errorf("assemblyai: websocket read: %w", err))
}

func (c *AssemblyAIClient) dispatch(msg assemblyAIMessage) {
	h := c.handler

	if msg.Error != "" {
		log.Printf("assemblyai: error: %s", msg.Error)
		h.OnError(&StreamError{Message: msg.Error})
		return
	}

	switch msg.Type {
	case "Begin":
		log.Printf("assemblyai: session started, id=%s", msg.ID)
		h.OnBegin(c, BeginEvent{ID: msg.ID, ExpiresAt: msg.ExpiresAt})

	case "Turn":
		h.OnTurn(TurnEvent{
			Transcript:      msg.Transcript,
			EndOfTurn:       msg.EndOfTurn,
			TurnIsFormatted: msg.TurnIsFormatted,
			TurnOrder:       msg.TurnOrder,
		})

	case "Termination":
		log.Printf("assemblyai: session terminated, audio=%.2fs", msg.AudioDurationSeconds)
		c.terminatedOnce.Do(func() { close(c.terminated) })
		h.OnTermination(TerminationEvent{
			AudioDurationSeconds:   msg.AudioDurationSeconds,
			SessionDurationSeconds: msg.SessionDurationSeconds,
		})

	default:
		log.Printf("assemblyai: unknown message type: %s", msg.Type)
	}
}

func (c *AssemblyAIClient) write(messageType int, data []byte) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(messageType, data)
}

func (c *AssemblyAIClient) SendChunk(audio []byte) error {
	if err := c.write(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("send audio: %w", err)
	}
	return nil
}

// SetKeyterms sends an UpdateConfiguration message replacing the boost list.
func (c *AssemblyAIClient) SetKeyterms(terms []string) error {
	if terms == nil {
		terms = []string{}
	}
	data, err := json.Marshal(assemblyAIUpdateConfiguration{Type: "UpdateConfiguration", KeytermsPrompt: terms})
	if err != nil {
		return fmt.Errorf("encode keyterms: %w", err)
	}
	if err := c.write(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("update keyterms: %w", err)
	}
	log.Printf("assemblyai: keyterms updated (%d terms)", len(terms))
	return nil
}

func (c *AssemblyAIClient) Disconnect(ctx context.Context, terminate bool) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	if terminate {
		data, _ := json.Marshal(assemblyAITerminate{Type: "Terminate"})
		if err := c.write(websocket.TextMessage, data); err != nil {
			log.Printf("assemblyai: terminate write failed: %v", err)
		} else {
			log.Printf("assemblyai: sent Terminate, waiting for session end")
			select {
			case <-c.terminated:
			case <-c.done:
			case <-ctx.Done():
				log.Printf("assemblyai: terminate timeout")
			}
		}
	}

	c.mu.Lock()
	c.closing = true
	c.connected = false
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	conn.Close()

	<-c.done
	log.Printf("assemblyai: closed")
	return nil
}

func (c *AssemblyAIClient) Done() <-chan struct{} {
	return c.done
}
