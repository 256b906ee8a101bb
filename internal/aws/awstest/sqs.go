package awstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQS records every SendMessage call and hands out sequential message ids.
type SQS struct {
	mu   sync.Mutex
	Sent []*sqs.SendMessageInput
	Err  error
}

func (m *SQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Sent = append(m.Sent, in)
	id := fmt.Sprintf("msg-%d", len(m.Sent))
	return &sqs.SendMessageOutput{MessageId: &id}, nil
}

// Messages returns a snapshot of the sent inputs.
func (m *SQS) Messages() []*sqs.SendMessageInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*sqs.SendMessageInput(nil), m.Sent...)
}
