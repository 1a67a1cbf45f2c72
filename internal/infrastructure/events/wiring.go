package events

import (
	"github.com/jhoicas/pos-stock-engine/pkg/logger"
)

// HandlerDeps lo necesario para armar la cadena de handlers. Channel y Audit son opcionales
// (sin PostgreSQL no hay NOTIFY ni bitácora).
type HandlerDeps struct {
	AlertRules   []string
	KafkaBrokers []string
	KafkaTopic   string
	Channel      ChannelNotifier
	CacheChannel string
	Audit        AuditStore
	Log          *logger.Logger
}

// BuildHandlers arma el Fanout de consumidores y devuelve la función que cierra el writer de Kafka.
func BuildHandlers(deps HandlerDeps) (Fanout, func() error, error) {
	var writer MessageWriter
	if len(deps.KafkaBrokers) > 0 {
		writer = NewKafkaWriter(deps.KafkaBrokers, deps.KafkaTopic)
	}
	notifier := NewKafkaNotifier(writer, deps.Log)

	alerts, err := NewAlertEvaluator(deps.AlertRules, notifier, deps.Log)
	if err != nil {
		_ = notifier.Close()
		return nil, nil, err
	}

	chain := Fanout{alerts, notifier}
	if deps.Channel != nil {
		chain = append(chain, NewCacheInvalidator(deps.Channel, deps.CacheChannel))
	}
	if deps.Audit != nil {
		chain = append(chain, NewAuditAppender(deps.Audit))
	}
	return chain, notifier.Close, nil
}
