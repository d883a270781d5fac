package upload

// Options limit what a single upload request may carry. Zero means unlimited.
type Options struct {
	MaxFileBytes    int64 `json:"max_file_bytes,omitempty" yaml:"max_file_bytes,omitempty"`
	MaxRequestBytes int64 `json:"max_request_bytes,omitempty" yaml:"max_request_bytes,omitempty"`
}
