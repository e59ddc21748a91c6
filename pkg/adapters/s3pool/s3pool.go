// Package s3pool adapts an AWS region/credentials configuration into
// the allocator a respool.Pool needs to bound concurrent S3 multipart
// uploads, which the SDK itself does not limit on its own.
package s3pool

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ajitpratap0/respool/pkg/poolerr"
)

// Upload bundles an S3 client with a dedicated multipart uploader. One
// is handed to each borrower, letting respool's AllocationStrategy cap
// how many large uploads run at once regardless of how many goroutines
// want one.
type Upload struct {
	Client   *s3.Client
	Uploader *manager.Uploader
}

// Config controls the region and multipart tuning applied to every
// uploader this adapter allocates.
type Config struct {
	Region      string
	PartSize    int64
	Concurrency int
}

// NewAllocator loads AWS credentials/region through the SDK's standard
// chain and returns an allocator producing one Upload per call.
func NewAllocator(cfg Config) func(context.Context) (*Upload, error) {
	return func(ctx context.Context) (*Upload, error) {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, poolerr.Wrap(err, poolerr.KindAllocation, "failed to load AWS config")
		}
		client := s3.NewFromConfig(awsCfg)
		uploader := manager.NewUploader(client, func(u *manager.Uploader) {
			if cfg.PartSize > 0 {
				u.PartSize = cfg.PartSize
			}
			if cfg.Concurrency > 0 {
				u.Concurrency = cfg.Concurrency
			}
		})
		return &Upload{Client: client, Uploader: uploader}, nil
	}
}

// ReleaseHandler is a no-op: an Upload carries no per-use state that
// needs resetting between borrowers. It exists so callers can wire a
// respool.Config.ReleaseHandler symmetrically with the other adapters.
func ReleaseHandler(context.Context, *Upload) error { return nil }

// DestroyHandler is a no-op: the SDK's s3.Client manages its own HTTP
// transport lifecycle and exposes nothing this adapter needs to close.
func DestroyHandler(context.Context, *Upload) {}
