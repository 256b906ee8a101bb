package awstest

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
)

// CloudWatch records PutMetricData calls.
type CloudWatch struct {
	mu    sync.Mutex
	Calls []*cloudwatch.PutMetricDataInput
	Err   error
}

func (m *CloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Calls = append(m.Calls, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

// Inputs returns a snapshot of the recorded inputs.
func (m *CloudWatch) Inputs() []*cloudwatch.PutMetricDataInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*cloudwatch.PutMetricDataInput(nil), m.Calls...)
}
