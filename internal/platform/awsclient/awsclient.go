package awsclient

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog/log"

	"ets/internal/platform/config"
)

// Load builds the AWS SDK config. A non-empty AWS_ENDPOINT routes every
// service client to that URL with static test credentials (LocalStack).
func Load(ctx context.Context, cfg config.Config) (aws.Config, error) {
	if cfg.AWSEndpoint == "" {
		return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	}

	log.Info().Str("endpoint", cfg.AWSEndpoint).Msg("routing AWS calls to custom endpoint")
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	if err != nil {
		return aws.Config{}, err
	}
	awsCfg.BaseEndpoint = aws.String(cfg.AWSEndpoint)
	return awsCfg, nil
}
