package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/raushankrgupta/fitly-api/config"
)

// Open builds the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config, awsCfg aws.Config) (*Backend, error) {
	schemas := SchemasFor(cfg)
	switch cfg.StoreDriver {
	case config.DriverDynamoDB:
		return NewDynamoBackend(awsCfg, cfg.DynamoEndpoint, schemas), nil
	case config.DriverMongo:
		client, err := ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		return NewMongoBackend(client, cfg.DBName, schemas), nil
	case config.DriverMemory:
		return NewMemoryBackend(schemas), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
