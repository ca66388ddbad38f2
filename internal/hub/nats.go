// internal/hub/nats.go
// Mirrors room lifecycle and special-status events onto NATS subjects.
package hub

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/erilali/roomrelay/internal/logger"
	"github.com/nats-io/nats.go"
)

const (
	EventStreamName      = "ROOMS"
	eventSubjectPrefix   = "rooms"
	eventStreamRetention = 30 * time.Minute
)

// Event names published on rooms.<CODE>.<event>.
const (
	EventRoomCreated  = "room-created"
	EventJoined       = "joined"
	EventLeft         = "left"
	EventStatusGrant  = "special-status-grant"
	EventStatusRevert = "special-status-revert"
	EventRoomClosed   = "room-closed"
)

// Publisher receives mirrored room events. Implementations must not block for long;
// they are called outside every room lock.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, []byte) error { return nil }

// Event is the JSON body of a mirrored event.
type Event struct {
	Event            string `json:"event"`
	Room             string `json:"room"`
	ClientID         string `json:"clientId,omitempty"`
	Username         string `json:"username,omitempty"`
	OriginalUsername string `json:"originalUsername,omitempty"`
	Timestamp        int64  `json:"timestamp"`
}

func newEvent(kind, room string) Event {
	return Event{Event: kind, Room: room, Timestamp: time.Now().Unix()}
}

// Subject returns the NATS subject for e. Characters outside [A-Za-z0-9_-] in the
// room code are replaced so the code stays a single subject token.
func (e Event) Subject() string {
	token := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_') {
			return r
		}
		return '_'
	}, e.Room)
	return fmt.Sprintf("%s.%s.%s", eventSubjectPrefix, token, e.Event)
}

// emit logs events and hands them to the publisher. Never called under a room lock.
func (h *Hub) emit(events []Event) {
	for _, e := range events {
		switch e.Event {
		case EventJoined:
			h.logger.LogEvent("info", "room_joined", e.Room, e.Username, "")
		case EventLeft:
			h.logger.LogEvent("info", "room_left", e.Room, e.Username, "")
		case EventRoomCreated:
			h.logger.LogEvent("debug", "room_created", e.Room, "", "")
		case EventRoomClosed:
			h.logger.LogEvent("debug", "room_closed", e.Room, "", "")
		case EventStatusGrant:
			h.logger.LogEvent("info", "status_granted", e.Room, e.OriginalUsername, h.statusLabel)
		case EventStatusRevert:
			h.logger.LogEvent("info", "status_reverted", e.Room, e.OriginalUsername, "")
		}

		data, err := json.Marshal(e)
		if err != nil {
			h.logger.Errorf("Failed to marshal %s event: %v", e.Event, err)
			continue
		}
		if err := h.publisher.Publish(e.Subject(), data); err != nil {
			h.logger.Warnf("Failed to publish %s event for room %s: %v", e.Event, e.Room, err)
		}
	}
}

// NatsPublisher publishes through JetStream when available, core NATS otherwise.
type NatsPublisher struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

func NewNatsPublisher(nc *nats.Conn, js nats.JetStreamContext) *NatsPublisher {
	return &NatsPublisher{nc: nc, js: js}
}

func (p *NatsPublisher) Publish(subject string, data []byte) error {
	if p.js != nil {
		_, err := p.js.Publish(subject, data)
		return err
	}
	return p.nc.Publish(subject, data)
}

// ConnectNATS dials url and prepares the ROOMS stream. Any failure is logged and
// yields nil values; the relay runs without the mirror in that case.
func ConnectNATS(url string, log *logger.Logger) (*nats.Conn, nats.JetStreamContext) {
	if url == "" {
		log.Info("NATS_URL not set, event mirror disabled")
		return nil, nil
	}

	log.Infof("Connecting to NATS at %s", url)
	nc, err := nats.Connect(url,
		nats.Name("roomrelay"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		log.Errorf("Error connecting to NATS: %v", err)
		log.Warn("Running without NATS connection. Room events will not be mirrored.")
		return nil, nil
	}
	log.Info("Successfully connected to NATS")

	js, err := nc.JetStream()
	if err != nil {
		log.Errorf("Error getting JetStream context: %v", err)
		log.Warn("Running without JetStream. Room events go to core NATS only.")
		return nc, nil
	}

	streamConfig := &nats.StreamConfig{
		Name:     EventStreamName,
		Subjects: []string{eventSubjectPrefix + ".>"},
		Storage:  nats.FileStorage,
		MaxAge:   eventStreamRetention,
	}
	if _, err := js.StreamInfo(streamConfig.Name); err != nil {
		if _, err := js.AddStream(streamConfig); err != nil {
			log.Errorf("Error creating stream %s: %v", streamConfig.Name, err)
			return nc, nil
		}
		log.Infof("Created stream: %s", streamConfig.Name)
	} else if _, err := js.UpdateStream(streamConfig); err != nil {
		log.Errorf("Error updating stream %s: %v", streamConfig.Name, err)
	} else {
		log.Infof("Updated stream: %s", streamConfig.Name)
	}
	return nc, js
}
