package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

const defaultRegion = "us-east-1"

// Settings selects the region and an optional endpoint override (e.g. LocalStack).
type Settings struct {
	Region           string
	EndpointOverride string
}

func LoadAWSConfig(ctx context.Context, settings Settings) (sdkaws.Config, error) {
	region := settings.Region
	if region == "" {
		region = defaultRegion
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if settings.EndpointOverride != "" {
		opts = append(opts, config.WithBaseEndpoint(settings.EndpointOverride))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return cfg, nil
}
