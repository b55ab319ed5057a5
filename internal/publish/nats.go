// Package publish forwards store snapshots to a NATS subject.
package publish

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"cellwatch/internal/cell"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "cellwatch.cells"

// Message is the JSON body published for every snapshot.
type Message struct {
	Time  time.Time     `json:"time"`
	Cells []cell.Record `json:"cells"`
}

type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATS publishes snapshots to a subject.
type NATS struct {
	pub     msgPublisher
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
	now     func() time.Time
}

// Connect dials url and returns a publisher for subject.
func Connect(url, subject string, logger *zap.Logger) (*NATS, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	nc, err := nats.Connect(url,
		nats.Name("cellwatch"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	logger.Info("NATS connected", zap.String("url", nc.ConnectedUrl()), zap.String("subject", subject))

	p := newNATS(nc, subject, logger)
	p.conn = nc
	return p, nil
}

func newNATS(pub msgPublisher, subject string, logger *zap.Logger) *NATS {
	return &NATS{pub: pub, subject: subject, logger: logger, now: time.Now}
}

// Publish is a state.Subscriber. Failures are logged and dropped.
func (p *NATS) Publish(records []cell.Record) {
	if records == nil {
		records = []cell.Record{}
	}
	body, err := json.Marshal(Message{Time: p.now().UTC(), Cells: records})
	if err != nil {
		p.logger.Error("encode snapshot", zap.Error(err))
		return
	}

	msg := nats.NewMsg(p.subject)
	msg.Header.Set(nats.MsgIdHdr, uuid.NewString())
	msg.Data = body

	if err := p.pub.PublishMsg(msg); err != nil {
		p.logger.Warn("publish snapshot failed", zap.String("subject", p.subject), zap.Error(err))
	}
}

// Close flushes pending messages and closes the connection.
func (p *NATS) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
