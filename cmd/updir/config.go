package main

import (
	"github.com/pkg/errors"

	"github.com/ripta/updir/config"
	"github.com/ripta/updir/upload"
)

// optionsConfig maps command line options onto a config.
func optionsConfig(o options) *config.Config {
	return &config.Config{
		Mode:      o.Mode,
		UploadDir: o.UploadDir,

		GCSBucket:  o.GCSBucket,
		GCSPrefix:  o.GCSPrefix,
		GCSKeyFile: o.GCSKeyFile,

		S3Bucket:   o.BucketName,
		S3Prefix:   o.S3Prefix,
		S3Region:   o.AWSRegion,
		S3Endpoint: o.S3Endpoint,

		AWSAccessKey: o.AWSAccessKey,
		AWSSecretKey: o.AWSSecretKey,

		Options: upload.Options{
			MaxFileBytes:    o.MaxFileBytes,
			MaxRequestBytes: o.MaxRequestBytes,
		},
	}
}

// loadConfig applies the config file, if any, on top of the options.
func loadConfig(o options) (*config.Config, error) {
	defaults := optionsConfig(o)
	if o.Config == "" {
		return defaults, nil
	}

	cfg, err := config.Load(o.Config, defaults)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load config %s", o.Config)
	}
	return cfg, nil
}
