package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Config selects the table, index, and endpoint the driver targets. The same
// code path serves DynamoDB Local and production; the only difference is an
// explicit Endpoint.
type Config struct {
	// TableName is the shared single table. Default: "deskchat_data".
	TableName string

	// IndexName is the share-token GSI. Default: "gsi1".
	IndexName string

	// Region overrides the AWS region resolved from the environment.
	Region string

	// Endpoint overrides the DynamoDB endpoint, e.g.
	// "http://localhost:8000" for DynamoDB Local. Empty means the SDK
	// default.
	Endpoint string
}

// DefaultConfig returns the default table and index names.
func DefaultConfig() Config {
	return Config{
		TableName: "deskchat_data",
		IndexName: "gsi1",
	}
}

func (c *Config) validate() {
	if c.TableName == "" {
		c.TableName = "deskchat_data"
	}
	if c.IndexName == "" {
		c.IndexName = "gsi1"
	}
}

// NewClient builds a DynamoDB client from cfg.
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("store: load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	if cfg.Endpoint != "" {
		slog.Debug("store: using custom DynamoDB endpoint", "endpoint", cfg.Endpoint)
	}
	return client, nil
}
