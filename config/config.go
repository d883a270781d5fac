package config

import (
	"context"
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/ripta/updir/upload"
	"github.com/ripta/updir/upload/gcs"
	"github.com/ripta/updir/upload/local"
	"github.com/ripta/updir/upload/s3"
)

// Modes select the upload sink.
const (
	ModeLocal = upload.SinkLocal
	ModeS3    = upload.SinkS3
	ModeGCS   = upload.SinkGCS
)

var ErrUnknownMode = errors.New("unknown upload mode")

type Config struct {
	Mode      string `json:"mode,omitempty" yaml:"mode,omitempty"`
	UploadDir string `json:"upload_dir,omitempty" yaml:"upload_dir,omitempty"`

	GCSBucket  string `json:"gcs_bucket,omitempty" yaml:"gcs_bucket,omitempty"`
	GCSPrefix  string `json:"gcs_prefix,omitempty" yaml:"gcs_prefix,omitempty"`
	GCSKeyFile string `json:"gcs_key_file,omitempty" yaml:"gcs_key_file,omitempty"`

	S3Bucket   string `json:"s3_bucket,omitempty" yaml:"s3_bucket,omitempty"`
	S3Prefix   string `json:"s3_prefix,omitempty" yaml:"s3_prefix,omitempty"`
	S3Region   string `json:"s3_region,omitempty" yaml:"s3_region,omitempty"`
	S3Endpoint string `json:"s3_endpoint,omitempty" yaml:"s3_endpoint,omitempty"`

	AWSAccessKey string `json:"-" yaml:"aws_access_key,omitempty"`
	AWSSecretKey string `json:"-" yaml:"aws_secret_key,omitempty"`

	upload.Options `yaml:",inline"`
}

// Load reads a YAML config file. Fields left empty in the file are taken
// from defaults, which may be nil.
func Load(filename string, defaults *Config) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "could not parse %s", filename)
	}
	cfg.setDefaults(defaults)
	return cfg, nil
}

func (c *Config) setDefaults(d *Config) {
	if d == nil {
		return
	}

	if c.Mode == "" {
		c.Mode = d.Mode
	}
	if c.UploadDir == "" {
		c.UploadDir = d.UploadDir
	}

	if c.GCSBucket == "" {
		c.GCSBucket = d.GCSBucket
	}
	if c.GCSKeyFile == "" {
		c.GCSKeyFile = d.GCSKeyFile
	}
	if c.GCSPrefix == "" {
		c.GCSPrefix = d.GCSPrefix
	}

	if c.S3Bucket == "" {
		c.S3Bucket = d.S3Bucket
	}
	if c.S3Prefix == "" {
		c.S3Prefix = d.S3Prefix
	}
	if c.S3Region == "" {
		c.S3Region = d.S3Region
	}
	if c.S3Endpoint == "" {
		c.S3Endpoint = d.S3Endpoint
	}
	if c.AWSAccessKey == "" {
		c.AWSAccessKey = d.AWSAccessKey
	}
	if c.AWSSecretKey == "" {
		c.AWSSecretKey = d.AWSSecretKey
	}

	if c.MaxFileBytes == 0 {
		c.MaxFileBytes = d.MaxFileBytes
	}
	if c.MaxRequestBytes == 0 {
		c.MaxRequestBytes = d.MaxRequestBytes
	}
}

// NewSink builds the sink selected by Mode.
func (c *Config) NewSink(ctx context.Context) (upload.Sink, error) {
	switch c.Mode {
	case ModeLocal, "":
		s, err := local.NewSink(c.UploadDir)
		if err != nil {
			return nil, errors.Wrap(err, "could not initialize local upload sink")
		}
		return s, nil

	case ModeS3:
		client, err := s3.NewClient(c.S3Bucket, c.S3Region, s3.Credentials{
			AccessKey: c.AWSAccessKey,
			SecretKey: c.AWSSecretKey,
		})
		if err != nil {
			return nil, errors.Wrap(err, "could not initialize S3 upload sink")
		}
		client.Endpoint = c.S3Endpoint
		return s3.NewSink(client, c.S3Prefix), nil

	case ModeGCS:
		s, err := gcs.NewSink(ctx, c.GCSBucket, c.GCSPrefix, c.GCSKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "could not initialize GCS upload sink")
		}
		return s, nil
	}
	return nil, errors.Wrapf(ErrUnknownMode, "%q", c.Mode)
}
