package menu

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/restaurant-orderflow/internal/aws"
)

// Store keeps menu items in a DynamoDB table keyed by menu_item_id.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
}

func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

func (s *Store) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"menu_item_id": &types.AttributeValueMemberS{Value: id},
	}
}

// Get fetches an item by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, id string) (*Item, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       s.key(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var it Item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal menu item: %w", err)
	}
	return &it, nil
}

// List scans the table, applying the filter server side, sorted by category then name.
func (s *Store) List(ctx context.Context, f Filter) ([]Item, error) {
	input := &dyn.ScanInput{TableName: &s.tableName}

	var clauses []string
	values := map[string]types.AttributeValue{}
	if f.Category != "" {
		clauses = append(clauses, "category = :cat")
		values[":cat"] = &types.AttributeValueMemberS{Value: f.Category}
	}
	if f.AvailableOnly {
		clauses = append(clauses, "available = :avail")
		values[":avail"] = &types.AttributeValueMemberBOOL{Value: true}
	}
	if len(clauses) > 0 {
		input.FilterExpression = awsString(strings.Join(clauses, " AND "))
		input.ExpressionAttributeValues = values
	}

	var items []Item
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan menu: %w", err)
		}
		var page []Item
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal menu page: %w", err)
		}
		items = append(items, page...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

// Insert writes a new item; it fails if the id is already taken.
func (s *Store) Insert(ctx context.Context, item Item) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal menu item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                av,
		ConditionExpression: awsString("attribute_not_exists(menu_item_id)"),
	})
	if err != nil {
		return fmt.Errorf("put menu item: %w", err)
	}
	return nil
}

// Replace overwrites an existing item. Returns false if it does not exist.
func (s *Store) Replace(ctx context.Context, item Item) (bool, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return false, fmt.Errorf("marshal menu item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                av,
		ConditionExpression: awsString("attribute_exists(menu_item_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, fmt.Errorf("replace menu item: %w", err)
	}
	return true, nil
}

// Delete removes an item. Returns false if it did not exist.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName:           &s.tableName,
		Key:                 s.key(id),
		ConditionExpression: awsString("attribute_exists(menu_item_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, fmt.Errorf("delete menu item: %w", err)
	}
	return true, nil
}

func awsString(s string) *string { return &s }
