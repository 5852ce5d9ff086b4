// Package stats publishes downstream observer notifications over Kafka: one
// message per significant sync/apply milestone (ledger-root discovery,
// ledger-sync completion, block-sync completion, transaction-apply
// results), grounded on datasync/chaindatafetcher/kafka/repository.go and
// datasync/chaindatafetcher/event/kafka/kafka.go's producer/topic wiring.
package stats

import (
	"encoding/json"
	"time"

	"github.com/Shopify/sarama"
	"github.com/hashicorp/go-uuid"

	"github.com/mina-go/node/log"
)

var logger = log.NewModuleLogger(log.Stats)

// Config mirrors kafka/config.go's KafkaConfig: the broker list and topic
// prefix a Publisher needs, plus the sarama client configuration used to
// build the underlying AsyncProducer.
type Config struct {
	Brokers     []string
	TopicPrefix string
	Sarama      *sarama.Config
}

// DefaultSaramaConfig mirrors kafka/config.go's GetDefaultKafkaConfig: local
// acks, snappy compression, and a short flush interval so observers see
// milestones promptly without a message-per-syscall producer.
func DefaultSaramaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Version = sarama.MaxVersion
	return config
}

// Event is the envelope every published message shares: a run id correlates
// every event emitted by one process lifetime (event/kafka/kafka.go:133's
// ClientID-correlation pattern, reused here for message correlation instead
// of consumer-group client IDs).
type Event struct {
	RunID     string      `json:"run_id"`
	Kind      string      `json:"kind"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Publisher wraps a sarama.AsyncProducer the way KafkaBroker does, but
// scoped to this repository's single outbound concern: firing
// fire-and-forget observer notifications rather than brokering topics both
// ways.
type Publisher struct {
	producer    sarama.AsyncProducer
	topicPrefix string
	runID       string
}

// NewPublisher dials the configured brokers and returns a Publisher, or an
// error if the producer cannot be constructed (mirrors newProducer's
// construction path; unlike the teacher, failure here is returned rather
// than logged at Crit, since this repository does not use a fatal-log
// policy for its own packages).
func NewPublisher(cfg Config) (*Publisher, error) {
	saramaCfg := cfg.Sarama
	if saramaCfg == nil {
		saramaCfg = DefaultSaramaConfig()
	}
	producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, err
	}
	runID, err := uuid.GenerateUUID()
	if err != nil {
		return nil, err
	}
	return &Publisher{producer: producer, topicPrefix: cfg.TopicPrefix, runID: runID}, nil
}

// Close drains the producer's error channel and shuts it down. Callers
// should invoke this once, when the publisher is no longer needed.
func (p *Publisher) Close() error {
	return p.producer.Close()
}

// Errors exposes the producer's async error channel so a caller can log
// delivery failures without blocking Publish.
func (p *Publisher) Errors() <-chan *sarama.ProducerError {
	return p.producer.Errors()
}

// publish marshals payload into an Event envelope and enqueues it on the
// producer's input channel under topicPrefix-kind, mirroring
// KafkaBroker.Publish's topic-naming and snappy-compressed send.
func (p *Publisher) publish(kind string, now int64, payload interface{}) error {
	event := Event{RunID: p.runID, Kind: kind, Timestamp: now, Payload: payload}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	topic := p.topicPrefix + "-" + kind
	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(p.runID),
		Value: sarama.ByteEncoder(data),
	}
	return nil
}

// LedgerRootDiscoveredPayload accompanies the "ledger-root-discovered" kind.
type LedgerRootDiscoveredPayload struct {
	Root string `json:"root"`
}

// PublishLedgerRootDiscovered notifies observers of a freshly discovered
// target snarked-ledger root (spec.md §4.1 op 10's "downstream
// stats/observers notified").
func (p *Publisher) PublishLedgerRootDiscovered(now int64, root [32]byte) error {
	return p.publish("ledger-root-discovered", now, LedgerRootDiscoveredPayload{Root: hexEncode(root[:])})
}

// LedgerSyncedPayload accompanies the "ledger-synced" kind.
type LedgerSyncedPayload struct {
	Root string `json:"root"`
}

// PublishLedgerSynced notifies observers that C3's ledger sync reached
// LedgerRootSuccess.
func (p *Publisher) PublishLedgerSynced(now int64, root [32]byte) error {
	return p.publish("ledger-synced", now, LedgerSyncedPayload{Root: hexEncode(root[:])})
}

// BlocksSyncedPayload accompanies the "blocks-synced" kind.
type BlocksSyncedPayload struct {
	TargetHeight uint64 `json:"target_height"`
}

// PublishBlocksSynced notifies observers that C5's block sync reached
// BlocksSuccess.
func (p *Publisher) PublishBlocksSynced(now int64, targetHeight uint64) error {
	return p.publish("blocks-synced", now, BlocksSyncedPayload{TargetHeight: targetHeight})
}

// TransactionAppliedPayload accompanies the "transaction-applied" kind.
type TransactionAppliedPayload struct {
	Kind         string `json:"kind"`
	Status       string `json:"status"`
	BurnedTokens uint64 `json:"burned_tokens"`
}

// PublishTransactionApplied notifies observers of one apply_transaction
// result (spec.md §4.3).
func (p *Publisher) PublishTransactionApplied(now int64, kind, status string, burnedTokens uint64) error {
	return p.publish("transaction-applied", now, TransactionAppliedPayload{
		Kind: kind, Status: status, BurnedTokens: burnedTokens,
	})
}

func hexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0x0f]
	}
	return string(out)
}
