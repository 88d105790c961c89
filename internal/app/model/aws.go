package model

import "strings"

// This is only for the configuration, not implementing AWS handler logic.

type AwsConfig struct {
	Profile string  `yaml:"profile"`
	Region  string  `yaml:"region"`
	Buckets Buckets `yaml:"buckets"`
}

type Buckets struct {
	Output             string `yaml:"output"`
	OutputStorageClass string `yaml:"outputStorageClass,omitempty"`
}

// GetStorageClass returns the storage class configured for bucket,
// STANDARD when nothing is configured or bucket is unknown.
func (b *Buckets) GetStorageClass(bucket string) string {
	defaultStorageClass := "STANDARD"
	if b.OutputStorageClass == "" {
		return defaultStorageClass
	}
	if strings.EqualFold(b.Output, bucket) {
		return b.OutputStorageClass
	}
	return defaultStorageClass
}
