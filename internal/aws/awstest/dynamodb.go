// Package awstest provides in-memory fakes of the AWS client interfaces for unit tests.
// The DynamoDB fake understands the small expression dialect the stores emit:
// SET updates, AND/OR-joined comparisons and attribute_exists/attribute_not_exists.
package awstest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type table struct {
	pk    string
	items map[string]map[string]types.AttributeValue
}

// DynamoDB is a goroutine-safe in-memory DynamoDB fake keyed by a single hash key per table.
type DynamoDB struct {
	mu     sync.Mutex
	tables map[string]*table

	// PageSize > 0 makes Scan and Query paginate via LastEvaluatedKey.
	PageSize int
	// Err, when set, is returned from every call.
	Err error

	PutCalls      int
	GetCalls      int
	UpdateCalls   int
	DeleteCalls   int
	QueryCalls    int
	ScanCalls     int
	TransactCalls int
}

// NewDynamoDB returns an empty fake.
func NewDynamoDB() *DynamoDB {
	return &DynamoDB{tables: map[string]*table{}}
}

// AddTable registers a table whose hash key attribute is pk.
func (m *DynamoDB) AddTable(name, pk string) *DynamoDB {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = &table{pk: pk, items: map[string]map[string]types.AttributeValue{}}
	return m
}

// Item returns a copy of the stored item, or nil.
func (m *DynamoDB) Item(tableName, key string) map[string]types.AttributeValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableName]
	if !ok {
		return nil
	}
	item, ok := t.items[key]
	if !ok {
		return nil
	}
	return copyItem(item)
}

// Len returns the number of items stored in a table.
func (m *DynamoDB) Len(tableName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[tableName]; ok {
		return len(t.items)
	}
	return 0
}

// CountWith returns the number of items in a table that carry attr.
func (m *DynamoDB) CountWith(tableName, attr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableName]
	if !ok {
		return 0
	}
	n := 0
	for _, item := range t.items {
		if _, ok := item[attr]; ok {
			n++
		}
	}
	return n
}

// Seed writes an item directly, bypassing conditions.
func (m *DynamoDB) Seed(tableName string, item map[string]types.AttributeValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(&tableName)
	if err != nil {
		return err
	}
	k, err := keyOf(t, item)
	if err != nil {
		return err
	}
	t.items[k] = copyItem(item)
	return nil
}

func (m *DynamoDB) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	t, err := m.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := keyOf(t, in.Item)
	if err != nil {
		return nil, err
	}
	ok, err := evalCondition(in.ConditionExpression, t.items[k], in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
	}
	t.items[k] = copyItem(in.Item)
	return &dyn.PutItemOutput{}, nil
}

func (m *DynamoDB) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	t, err := m.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := keyOf(t, in.Key)
	if err != nil {
		return nil, err
	}
	item, ok := t.items[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: copyItem(item)}, nil
}

func (m *DynamoDB) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	t, err := m.table(in.TableName)
	if err != nil {
		return nil, err
	}
	item, err := m.applyUpdate(t, in.Key, in.UpdateExpression, in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, false)
	if err != nil {
		return nil, err
	}
	out := &dyn.UpdateItemOutput{}
	if in.ReturnValues != types.ReturnValueNone && in.ReturnValues != "" {
		out.Attributes = copyItem(item)
	}
	return out, nil
}

func (m *DynamoDB) DeleteItem(ctx context.Context, in *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	t, err := m.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := keyOf(t, in.Key)
	if err != nil {
		return nil, err
	}
	existing := t.items[k]
	ok, err := evalCondition(in.ConditionExpression, existing, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
	}
	delete(t.items, k)
	out := &dyn.DeleteItemOutput{}
	if in.ReturnValues == types.ReturnValueAllOld && existing != nil {
		out.Attributes = existing
	}
	return out, nil
}

func (m *DynamoDB) Scan(ctx context.Context, in *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	t, err := m.table(in.TableName)
	if err != nil {
		return nil, err
	}
	items, last, err := m.page(t, in.ExclusiveStartKey, func(item map[string]types.AttributeValue) (bool, error) {
		return evalCondition(in.FilterExpression, item, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	})
	if err != nil {
		return nil, err
	}
	return &dyn.ScanOutput{Items: items, Count: int32(len(items)), LastEvaluatedKey: last}, nil
}

func (m *DynamoDB) Query(ctx context.Context, in *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	t, err := m.table(in.TableName)
	if err != nil {
		return nil, err
	}
	if in.KeyConditionExpression == nil {
		return nil, errors.New("query requires KeyConditionExpression")
	}
	items, last, err := m.page(t, in.ExclusiveStartKey, func(item map[string]types.AttributeValue) (bool, error) {
		ok, err := evalCondition(in.KeyConditionExpression, item, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
		if err != nil || !ok {
			return ok, err
		}
		return evalCondition(in.FilterExpression, item, in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	})
	if err != nil {
		return nil, err
	}
	return &dyn.QueryOutput{Items: items, Count: int32(len(items)), LastEvaluatedKey: last}, nil
}

func (m *DynamoDB) TransactWriteItems(ctx context.Context, in *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TransactCalls++
	if m.Err != nil {
		return nil, m.Err
	}

	// first pass: every condition must hold before anything is written
	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, it := range in.TransactItems {
		var (
			tableName *string
			key       map[string]types.AttributeValue
			cond      *string
			names     map[string]string
			values    map[string]types.AttributeValue
		)
		switch {
		case it.Put != nil:
			tableName, cond, names, values = it.Put.TableName, it.Put.ConditionExpression, it.Put.ExpressionAttributeNames, it.Put.ExpressionAttributeValues
			key = it.Put.Item
		case it.Update != nil:
			tableName, key, cond, names, values = it.Update.TableName, it.Update.Key, it.Update.ConditionExpression, it.Update.ExpressionAttributeNames, it.Update.ExpressionAttributeValues
		case it.Delete != nil:
			tableName, key, cond, names, values = it.Delete.TableName, it.Delete.Key, it.Delete.ConditionExpression, it.Delete.ExpressionAttributeNames, it.Delete.ExpressionAttributeValues
		case it.ConditionCheck != nil:
			tableName, key, cond, names, values = it.ConditionCheck.TableName, it.ConditionCheck.Key, it.ConditionCheck.ConditionExpression, it.ConditionCheck.ExpressionAttributeNames, it.ConditionCheck.ExpressionAttributeValues
		default:
			return nil, errors.New("empty transact item")
		}
		t, err := m.table(tableName)
		if err != nil {
			return nil, err
		}
		k, err := keyOf(t, key)
		if err != nil {
			return nil, err
		}
		ok, err := evalCondition(cond, t.items[k], names, values)
		if err != nil {
			return nil, err
		}
		reasons[i] = types.CancellationReason{Code: strPtr("None")}
		if !ok {
			failed = true
			reasons[i] = types.CancellationReason{Code: strPtr("ConditionalCheckFailed")}
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             strPtr("Transaction cancelled, please refer cancellation reasons for specific reasons"),
			CancellationReasons: reasons,
		}
	}

	for _, it := range in.TransactItems {
		switch {
		case it.Put != nil:
			t, _ := m.table(it.Put.TableName)
			k, _ := keyOf(t, it.Put.Item)
			t.items[k] = copyItem(it.Put.Item)
		case it.Update != nil:
			t, _ := m.table(it.Update.TableName)
			if _, err := m.applyUpdate(t, it.Update.Key, it.Update.UpdateExpression, nil, it.Update.ExpressionAttributeNames, it.Update.ExpressionAttributeValues, true); err != nil {
				return nil, err
			}
		case it.Delete != nil:
			t, _ := m.table(it.Delete.TableName)
			k, _ := keyOf(t, it.Delete.Key)
			delete(t.items, k)
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

func (m *DynamoDB) table(name *string) (*table, error) {
	if name == nil {
		return nil, errors.New("missing table name")
	}
	t, ok := m.tables[*name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: strPtr("Requested resource not found: " + *name)}
	}
	return t, nil
}

func (m *DynamoDB) applyUpdate(t *table, key map[string]types.AttributeValue, update, cond *string, names map[string]string, values map[string]types.AttributeValue, skipCond bool) (map[string]types.AttributeValue, error) {
	k, err := keyOf(t, key)
	if err != nil {
		return nil, err
	}
	existing := t.items[k]
	if !skipCond {
		ok, err := evalCondition(cond, existing, names, values)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
		}
	}
	item := copyItem(existing)
	if item == nil {
		item = copyItem(key)
	}
	if update != nil {
		expr := strings.TrimSpace(*update)
		if !strings.HasPrefix(expr, "SET ") {
			return nil, fmt.Errorf("unsupported update expression %q", expr)
		}
		for _, assign := range strings.Split(strings.TrimPrefix(expr, "SET "), ",") {
			parts := strings.SplitN(assign, "=", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("bad assignment %q", assign)
			}
			attr := resolveName(strings.TrimSpace(parts[0]), names)
			v, ok := values[strings.TrimSpace(parts[1])]
			if !ok {
				return nil, fmt.Errorf("missing value for %q", parts[1])
			}
			item[attr] = v
		}
	}
	t.items[k] = item
	return item, nil
}

func (m *DynamoDB) page(t *table, startKey map[string]types.AttributeValue, match func(map[string]types.AttributeValue) (bool, error)) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if len(startKey) > 0 {
		sk, err := keyOf(t, startKey)
		if err != nil {
			return nil, nil, err
		}
		start = sort.SearchStrings(keys, sk)
		if start < len(keys) && keys[start] == sk {
			start++
		}
	}

	var out []map[string]types.AttributeValue
	evaluated := 0
	for i := start; i < len(keys); i++ {
		if m.PageSize > 0 && evaluated == m.PageSize {
			last := map[string]types.AttributeValue{t.pk: &types.AttributeValueMemberS{Value: keys[i-1]}}
			return out, last, nil
		}
		evaluated++
		item := t.items[keys[i]]
		ok, err := match(item)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			out = append(out, copyItem(item))
		}
	}
	return out, nil, nil
}

func keyOf(t *table, item map[string]types.AttributeValue) (string, error) {
	v, ok := item[t.pk]
	if !ok {
		return "", fmt.Errorf("missing key attribute %q", t.pk)
	}
	switch kv := v.(type) {
	case *types.AttributeValueMemberS:
		return kv.Value, nil
	case *types.AttributeValueMemberN:
		return kv.Value, nil
	}
	return "", fmt.Errorf("unsupported key type %T", v)
}

func evalCondition(expr *string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) (bool, error) {
	if expr == nil || strings.TrimSpace(*expr) == "" {
		return true, nil
	}
	// AND binds tighter than OR; parentheses are not supported.
	for _, disjunct := range strings.Split(*expr, " OR ") {
		ok, err := evalConjunction(disjunct, item, names, values)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func evalConjunction(expr string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) (bool, error) {
	for _, clause := range strings.Split(expr, " AND ") {
		ok, err := evalClause(strings.TrimSpace(clause), item, names, values)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

var operators = []string{"<>", "<=", ">=", "=", "<", ">"}

func evalClause(clause string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) (bool, error) {
	if inner, ok := unwrap(clause, "attribute_exists"); ok {
		_, exists := item[resolveName(inner, names)]
		return exists, nil
	}
	if inner, ok := unwrap(clause, "attribute_not_exists"); ok {
		_, exists := item[resolveName(inner, names)]
		return !exists, nil
	}
	for _, op := range operators {
		idx := strings.Index(clause, " "+op+" ")
		if idx < 0 {
			continue
		}
		attr := resolveName(strings.TrimSpace(clause[:idx]), names)
		ref := strings.TrimSpace(clause[idx+len(op)+2:])
		want, ok := values[ref]
		if !ok {
			return false, fmt.Errorf("missing expression value %q", ref)
		}
		got, ok := item[attr]
		if !ok {
			return false, nil
		}
		c, comparable := compare(got, want)
		if !comparable {
			return op == "<>", nil
		}
		switch op {
		case "=":
			return c == 0, nil
		case "<>":
			return c != 0, nil
		case "<":
			return c < 0, nil
		case "<=":
			return c <= 0, nil
		case ">":
			return c > 0, nil
		case ">=":
			return c >= 0, nil
		}
	}
	return false, fmt.Errorf("unsupported condition %q", clause)
}

func unwrap(clause, fn string) (string, bool) {
	if strings.HasPrefix(clause, fn+"(") && strings.HasSuffix(clause, ")") {
		return strings.TrimSpace(clause[len(fn)+1 : len(clause)-1]), true
	}
	return "", false
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		if n, ok := names[name]; ok {
			return n
		}
	}
	return name
}

func compare(a, b types.AttributeValue) (int, bool) {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		if !ok {
			return 0, false
		}
		return strings.Compare(av.Value, bv.Value), true
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		if !ok {
			return 0, false
		}
		x, err1 := strconv.ParseFloat(av.Value, 64)
		y, err2 := strconv.ParseFloat(bv.Value, 64)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		if !ok || av.Value != bv.Value {
			return 1, ok
		}
		return 0, true
	}
	return 0, false
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func strPtr(s string) *string { return &s }
