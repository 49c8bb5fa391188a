package scoring

import (
	// Go Internal Packages
	"context"
	"fmt"
	"time"

	// External Packages
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
)

type sageMakerAPI interface {
	InvokeEndpoint(ctx context.Context, params *sagemakerruntime.InvokeEndpointInput, optFns ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error)
}

// SageMakerInvoker calls a SageMaker real-time inference endpoint.
type SageMakerInvoker struct {
	api          sageMakerAPI
	endpointName string
	timeout      time.Duration
}

// NewSageMakerInvoker loads AWS credentials from the default chain. The SDK
// retryer is limited to a single attempt.
func NewSageMakerInvoker(ctx context.Context, region, endpointName string, timeout time.Duration) (*SageMakerInvoker, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(1),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SageMakerInvoker{
		api:          sagemakerruntime.NewFromConfig(cfg),
		endpointName: endpointName,
		timeout:      timeout,
	}, nil
}

func (i *SageMakerInvoker) Invoke(ctx context.Context, contentType string, body []byte) ([]byte, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	out, err := i.api.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(i.endpointName),
		ContentType:  aws.String(contentType),
		Accept:       aws.String("text/csv"),
		Body:         body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke endpoint %s: %w", i.endpointName, err)
	}
	return out.Body, nil
}
