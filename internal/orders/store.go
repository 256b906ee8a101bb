package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/restaurant-orderflow/internal/aws"
)

// CustomerIndex is the GSI (hash key customer_id) used for "my orders" lookups.
const CustomerIndex = "customer_id-index"

// numberKeyPrefix keys the item that reserves an order number in the orders table. The
// reservation carries no customer_id, so listings skip it.
const numberKeyPrefix = "order_number#"

// createdAtMillis mirrors created_at as a number so date ranges compare numerically.
const createdAtMillis = "created_at_ms"

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
	}
}

func (s *Store) key(orderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: orderID},
	}
}

// Insert writes a new order together with a reservation of its order number, in one
// transaction. It refuses to overwrite an existing order_id (ErrOrderExists) or to reuse
// a number another order holds (ErrNumberTaken).
func (s *Store) Insert(ctx context.Context, order Order) error {
	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order item: %w", err)
	}
	item[createdAtMillis] = millis(order.CreatedAt)

	reservation := map[string]types.AttributeValue{
		"order_id":     &types.AttributeValueMemberS{Value: numberKeyPrefix + order.OrderNumber},
		"reserved_for": &types.AttributeValueMemberS{Value: order.OrderID},
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           &s.tableName,
					Item:                item,
					ConditionExpression: awsString("attribute_not_exists(order_id)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           &s.tableName,
					Item:                reservation,
					ConditionExpression: awsString("attribute_not_exists(order_id)"),
				},
			},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) && len(tce.CancellationReasons) == 2 {
			switch {
			case conditionFailed(tce.CancellationReasons[0]):
				return fmt.Errorf("order %s: %w", order.OrderID, ErrOrderExists)
			case conditionFailed(tce.CancellationReasons[1]):
				return fmt.Errorf("order number %s: %w", order.OrderNumber, ErrNumberTaken)
			}
		}
		return fmt.Errorf("transact put order: %w", err)
	}
	return nil
}

func conditionFailed(r types.CancellationReason) bool {
	return r.Code != nil && *r.Code == "ConditionalCheckFailed"
}

// FindByID fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) FindByID(ctx context.Context, orderID string) (*Order, error) {
	if strings.HasPrefix(orderID, numberKeyPrefix) {
		return nil, nil
	}
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       s.key(orderID),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// UpdateStatus overwrites the status unconditionally (last writer wins) and returns the
// updated order, or (nil, nil) if the order does not exist.
func (s *Store) UpdateStatus(ctx context.Context, orderID string, status Status, at time.Time) (*Order, error) {
	input, err := s.statusUpdate(orderID, status, at)
	if err != nil {
		return nil, err
	}
	input.ConditionExpression = awsString("attribute_exists(customer_id)")

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, nil
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return decodeOrder(out.Attributes)
}

// CompareAndSetStatus updates the status from expected -> next.
// Returns ErrStatusMismatch if the stored status differs or the order is gone.
func (s *Store) CompareAndSetStatus(ctx context.Context, orderID string, expected, next Status, at time.Time) (*Order, error) {
	input, err := s.statusUpdate(orderID, next, at)
	if err != nil {
		return nil, err
	}
	input.ConditionExpression = awsString("#s = :expected")
	input.ExpressionAttributeValues[":expected"] = &types.AttributeValueMemberS{Value: string(expected)}

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrStatusMismatch
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return decodeOrder(out.Attributes)
}

func (s *Store) statusUpdate(orderID string, status Status, at time.Time) (*dyn.UpdateItemInput, error) {
	ua, err := attributevalue.Marshal(at)
	if err != nil {
		return nil, fmt.Errorf("marshal updated_at: %w", err)
	}
	return &dyn.UpdateItemInput{
		TableName:                &s.tableName,
		Key:                      s.key(orderID),
		UpdateExpression:         awsString("SET #s = :new, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new": &types.AttributeValueMemberS{Value: string(status)},
			":ua":  ua,
		},
		ReturnValues: types.ReturnValueAllNew,
	}, nil
}

// FindMany returns the orders matching f. A customer filter is served by the customer
// index; everything else is a filtered scan that skips number reservations. Results come
// back in store order.
func (s *Store) FindMany(ctx context.Context, f ListFilter) ([]Order, error) {
	clauses := []string{"attribute_exists(customer_id)"}
	names := map[string]string{}
	values := map[string]types.AttributeValue{}

	if f.Status != "" {
		clauses = append(clauses, "#s = :status")
		names["#s"] = "status"
		values[":status"] = &types.AttributeValueMemberS{Value: string(f.Status)}
	}
	if !f.Range.From.IsZero() {
		clauses = append(clauses, createdAtMillis+" >= :from")
		values[":from"] = millis(f.Range.From)
	}
	if !f.Range.To.IsZero() {
		clauses = append(clauses, createdAtMillis+" <= :to")
		values[":to"] = millis(f.Range.To)
	}
	filter := awsString(strings.Join(clauses, " AND "))
	if len(names) == 0 {
		names = nil
	}

	if f.CustomerID != "" {
		values[":cid"] = &types.AttributeValueMemberS{Value: f.CustomerID}
		return s.query(ctx, &dyn.QueryInput{
			TableName:                 &s.tableName,
			IndexName:                 awsString(CustomerIndex),
			KeyConditionExpression:    awsString("customer_id = :cid"),
			FilterExpression:          filter,
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		})
	}

	input := &dyn.ScanInput{
		TableName:                &s.tableName,
		FilterExpression:         filter,
		ExpressionAttributeNames: names,
	}
	if len(values) > 0 {
		input.ExpressionAttributeValues = values
	}
	return s.scan(ctx, input)
}

func (s *Store) query(ctx context.Context, input *dyn.QueryInput) ([]Order, error) {
	var orders []Order
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query orders: %w", err)
		}
		page, err := decodeOrders(out.Items)
		if err != nil {
			return nil, err
		}
		orders = append(orders, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return orders, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (s *Store) scan(ctx context.Context, input *dyn.ScanInput) ([]Order, error) {
	var orders []Order
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan orders: %w", err)
		}
		page, err := decodeOrders(out.Items)
		if err != nil {
			return nil, err
		}
		orders = append(orders, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return orders, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func decodeOrder(item map[string]types.AttributeValue) (*Order, error) {
	if len(item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

func decodeOrders(items []map[string]types.AttributeValue) ([]Order, error) {
	var page []Order
	if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
		return nil, fmt.Errorf("unmarshal orders: %w", err)
	}
	return page, nil
}

func millis(t time.Time) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.UnixMilli(), 10)}
}

func awsString(s string) *string { return &s }
