package tibber

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// graphql-transport-ws message types used by the Tibber subscription endpoint.
const (
	gqlWSConnectionInit = "connection_init"
	gqlWSConnectionAck  = "connection_ack"
	gqlWSSubscribe      = "subscribe"
	gqlWSNext           = "next"
	gqlWSError          = "error"
	gqlWSComplete       = "complete"
	gqlWSPing           = "ping"
	gqlWSPong           = "pong"
)

const liveMeasurementQuery = `subscription ($homeId: ID!) {
  liveMeasurement(homeId: $homeId) {
    timestamp
    power powerProduction averagePower minPower maxPower
    accumulatedConsumption accumulatedConsumptionLastHour
    accumulatedProduction accumulatedProductionLastHour
    accumulatedCost accumulatedReward
    lastMeterConsumption lastMeterProduction
    voltagePhase1 voltagePhase2 voltagePhase3
    currentL1 currentL2 currentL3
    signalStrength powerFactor
  }
}`

const (
	streamHandshakeTimeout = 10 * time.Second
	streamReadTimeout      = 90 * time.Second
	streamMaxBackoff       = 2 * time.Minute
)

type gqlWSMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type liveStream struct {
	url     string
	token   string
	homeID  string
	handler StreamHandler
	logger  *zap.Logger

	running atomic.Bool
	closed  atomic.Bool
	mu      sync.Mutex
	conn    *websocket.Conn
}

func openLiveStream(url, token, homeID string, handler StreamHandler, logger *zap.Logger) *liveStream {
	s := &liveStream{
		url:     url,
		token:   token,
		homeID:  homeID,
		handler: handler,
		logger:  logger.With(zap.String("home_id", homeID)),
	}
	go s.loop()
	return s
}

func (s *liveStream) Running() bool {
	return s.running.Load()
}

func (s *liveStream) Close() {
	s.closed.Store(true)
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()
}

// loop keeps the subscription alive, reconnecting with backoff until Close.
func (s *liveStream) loop() {
	backoff := time.Second
	for !s.closed.Load() {
		err := s.run()
		s.setRunning(false)
		if s.closed.Load() {
			return
		}
		if err != nil {
			s.logger.Debug("stream dropped", zap.Error(err))
			s.handler(StreamMessage{HomeID: s.homeID, Err: err})
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > streamMaxBackoff {
			backoff = streamMaxBackoff
		}
	}
}

func (s *liveStream) run() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: streamHandshakeTimeout,
		Subprotocols:     []string{"graphql-transport-ws"},
	}
	header := http.Header{}
	header.Set("User-Agent", "tibber2mqtt")

	conn, _, err := dialer.Dial(s.url, header)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer conn.Close()

	initPayload, _ := json.Marshal(map[string]string{"token": s.token})
	if err := conn.WriteJSON(gqlWSMessage{Type: gqlWSConnectionInit, Payload: initPayload}); err != nil {
		return err
	}

	var msg gqlWSMessage
	conn.SetReadDeadline(time.Now().Add(streamHandshakeTimeout))
	if err := conn.ReadJSON(&msg); err != nil {
		return err
	}
	if msg.Type != gqlWSConnectionAck {
		return fmt.Errorf("tibber: unexpected handshake message %q", msg.Type)
	}

	subPayload, _ := json.Marshal(gqlRequest{
		Query:     liveMeasurementQuery,
		Variables: map[string]any{"homeId": s.homeID},
	})
	if err := conn.WriteJSON(gqlWSMessage{ID: "1", Type: gqlWSSubscribe, Payload: subPayload}); err != nil {
		return err
	}

	s.setRunning(true)

	for {
		conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
		var msg gqlWSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		switch msg.Type {
		case gqlWSPing:
			conn.WriteJSON(gqlWSMessage{Type: gqlWSPong})
		case gqlWSNext:
			measurement, err := decodeLiveMeasurement(msg.Payload)
			if err != nil {
				s.handler(StreamMessage{HomeID: s.homeID, Running: true, Err: err})
				continue
			}
			s.handler(StreamMessage{HomeID: s.homeID, Running: true, Measurement: measurement})
		case gqlWSError:
			return fmt.Errorf("tibber: subscription error: %s", string(msg.Payload))
		case gqlWSComplete:
			return fmt.Errorf("tibber: subscription completed by server")
		}
	}
}

func (s *liveStream) setRunning(running bool) {
	if s.running.Swap(running) != running {
		s.handler(StreamMessage{HomeID: s.homeID, Running: running})
	}
}

func decodeLiveMeasurement(payload []byte) (*LiveMeasurement, error) {
	var data struct {
		Data struct {
			LiveMeasurement *LiveMeasurement `json:"liveMeasurement"`
		} `json:"data"`
		Errors []gqlError `json:"errors"`
	}
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, err
	}
	if len(data.Errors) > 0 {
		return nil, fmt.Errorf("tibber: %s", data.Errors[0].Message)
	}
	if data.Data.LiveMeasurement == nil {
		return nil, fmt.Errorf("tibber: payload without liveMeasurement")
	}
	return data.Data.LiveMeasurement, nil
}
