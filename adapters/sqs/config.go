package sqspub

// Config controls the SQS adapter behavior.
type Config struct {
	// Required: fully qualified SQS queue URL
	QueueURL string

	// Optional: AWS region; falls back to default chain if empty
	Region string

	// FIFO mode. MessageGroupID defaults to "generations".
	FIFO           bool
	MessageGroupID string

	// DelaySeconds postpones delivery (0..900). Ignored for FIFO queues.
	DelaySeconds int32
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{MessageGroupID: "generations"}
}
