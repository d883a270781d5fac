package upload

import "context"

// Sink names, used in logs, metrics and the summary message.
const (
	SinkLocal = "local"
	SinkS3    = "s3"
	SinkGCS   = "gcs"
)

// Sink is a destination for uploaded files.
type Sink interface {
	// Name identifies the sink kind.
	Name() string

	// Open prepares one batch. An error here is a setup failure: the request
	// fails before any field is decoded.
	Open(ctx context.Context) (Batch, error)
}

// Batch stores the files of one request. Store receives the raw filename
// and is responsible for resolving it safely.
type Batch interface {
	Store(ctx context.Context, filename string, content []byte) error
}
