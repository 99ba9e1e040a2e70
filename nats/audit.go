package nats

import (
	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"holdem.com/server/game"
	"holdem.com/server/logging"
)

var auditLogger = logging.GetZeroLogger("nats::audit", nil)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type publisher interface {
	Publish(subject string, data []byte) error
}

// AuditPublisher sends the completion record of every settled hand to the
// table's hand-completed subject.
type AuditPublisher struct {
	conn publisher
	nc   *natsgo.Conn
}

func NewAuditPublisher(conn publisher) *AuditPublisher {
	return &AuditPublisher{conn: conn}
}

func ConnectAuditPublisher(url string) (*AuditPublisher, error) {
	nc, err := natsgo.Connect(url, natsgo.Name("holdem-audit"), natsgo.MaxReconnects(-1))
	if err != nil {
		auditLogger.Error().Msgf("Failed to connect to nats server at %s: %v", url, err)
		return nil, err
	}
	return &AuditPublisher{conn: nc, nc: nc}, nil
}

func (a *AuditPublisher) PublishHandCompleted(result *game.HandCompleted) error {
	data, err := json.Marshal(result)
	if err != nil {
		return errors.Wrapf(err, "Unable to marshal result of hand %s", result.HandID)
	}
	subject := GetHandCompletedSubject(result.TableID)
	if err := a.conn.Publish(subject, data); err != nil {
		return errors.Wrapf(err, "Unable to publish to %s", subject)
	}
	auditLogger.Debug().
		Str(logging.TableIDKey, result.TableID).
		Str(logging.HandIDKey, result.HandID).
		Msgf("Published hand result to %s", subject)
	return nil
}

func (a *AuditPublisher) Close() {
	if a.nc != nil {
		a.nc.Drain()
	}
}
