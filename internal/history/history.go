// Package history keeps the append-only status timeline of each order, built from the
// notification stream by the worker.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/restaurant-orderflow/internal/aws"
	"github.com/imrishuroy/restaurant-orderflow/internal/idempotency"
	"github.com/imrishuroy/restaurant-orderflow/internal/notify"
)

// OrderIndex is the GSI (hash key order_id) used to read one order's timeline.
const OrderIndex = "order_id-index"

// Entry is one recorded lifecycle event.
type Entry struct {
	EntryID     string    `json:"-" dynamodbav:"entry_id"` // PK, the source message id
	OrderID     string    `json:"order_id" dynamodbav:"order_id"`
	Event       string    `json:"event" dynamodbav:"event"`
	Status      string    `json:"status" dynamodbav:"status"`
	OrderNumber string    `json:"order_number" dynamodbav:"order_number"`
	RecordedAt  time.Time `json:"recorded_at" dynamodbav:"recorded_at"`
	MessageID   string    `json:"message_id" dynamodbav:"message_id"`
}

// eventPayload covers both the new-order payload (a full order) and the status update.
type eventPayload struct {
	ID               string `json:"id"`
	OrderID          string `json:"orderId"`
	OrderNumber      string `json:"order_number"`
	OrderNumberCamel string `json:"orderNumber"`
	Status           string `json:"status"`
}

// FromEnvelope converts a published notification into a history entry.
func FromEnvelope(env notify.Envelope, messageID string) (Entry, error) {
	var p eventPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return Entry{}, fmt.Errorf("decode %s payload: %w", env.Event, err)
	}
	e := Entry{
		EntryID:     messageID,
		OrderID:     firstNonEmpty(p.OrderID, p.ID, env.Key),
		Event:       env.Event,
		Status:      p.Status,
		OrderNumber: firstNonEmpty(p.OrderNumberCamel, p.OrderNumber),
		RecordedAt:  env.PublishedAt,
		MessageID:   messageID,
	}
	if e.OrderID == "" {
		return Entry{}, fmt.Errorf("%s payload has no order id", env.Event)
	}
	return e, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Store writes history entries and their dedupe markers in one transaction.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	markers   *idempotency.Store
}

func NewStore(client aws.DynamoDBAPI, tableName string, markers *idempotency.Store) *Store {
	return &Store{client: client, tableName: tableName, markers: markers}
}

// Append records e exactly once per message id. It returns false when the message was
// already recorded.
func (s *Store) Append(ctx context.Context, e Entry) (bool, error) {
	if e.EntryID == "" {
		return false, fmt.Errorf("history entry without message id")
	}
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return false, fmt.Errorf("marshal history entry: %w", err)
	}
	marker, err := s.markers.MarkerPut("history#"+e.EntryID, "order "+e.OrderID)
	if err != nil {
		return false, err
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			marker,
			{
				Put: &types.Put{
					TableName:           &s.tableName,
					Item:                item,
					ConditionExpression: awsString("attribute_not_exists(entry_id)"),
				},
			},
		},
	})
	if err != nil {
		if idempotency.IsTransactionConflict(err) {
			return false, nil
		}
		return false, fmt.Errorf("transact history entry: %w", err)
	}
	return true, nil
}

// ListByOrder returns the order's entries oldest first.
func (s *Store) ListByOrder(ctx context.Context, orderID string) ([]Entry, error) {
	input := &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              awsString(OrderIndex),
		KeyConditionExpression: awsString("order_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: orderID},
		},
	}
	var entries []Entry
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query history: %w", err)
		}
		var page []Entry
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal history: %w", err)
		}
		entries = append(entries, page...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RecordedAt.Before(entries[j].RecordedAt)
	})
	return entries, nil
}

func awsString(s string) *string { return &s }
