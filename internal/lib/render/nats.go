package render

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dpup/prefab/logging"
	"github.com/nats-io/nats.go"

	"github.com/dpup/streetlines/server/internal/lib/geo"
)

// Publisher is the subset of *nats.Conn used by NATSSink
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the message published for every render call
type Event struct {
	Type     string      `json:"type"`
	Point    *geo.Point  `json:"point,omitempty"`
	Vertices []geo.Point `json:"vertices,omitempty"`
}

// NATSSink publishes render calls to NATS subjects below a prefix, for example
// "streetlines.render.marker". Publish errors are logged and dropped.
type NATSSink struct {
	ctx    context.Context
	pub    Publisher
	prefix string
}

// NewNATSSink creates a sink publishing through pub. ctx carries the logger used
// for publish failures; a development logger is attached when it has none.
func NewNATSSink(ctx context.Context, pub Publisher, subjectPrefix string) *NATSSink {
	return &NATSSink{ctx: logging.EnsureLogger(ctx), pub: pub, prefix: subjectPrefix}
}

// ConnectNATS dials a NATS server with reconnects enabled
func ConnectNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

func (s *NATSSink) PlaceMarker(point geo.Point) {
	s.publish("marker", Event{Type: "marker", Point: &point})
}

func (s *NATSSink) DrawPolygon(vertices []geo.Point) {
	s.publish("polygon", Event{Type: "polygon", Vertices: vertices})
}

func (s *NATSSink) ClearMarkers() {
	s.publish("clear", Event{Type: "clear"})
}

func (s *NATSSink) publish(kind string, event Event) {
	subject := s.prefix + "." + kind

	data, err := json.Marshal(event)
	if err != nil {
		logging.Errorw(s.ctx, "Failed to encode render event", "subject", subject, "error", err)
		return
	}
	if err := s.pub.Publish(subject, data); err != nil {
		logging.Errorw(s.ctx, "Failed to publish render event", "subject", subject, "error", err)
	}
}
