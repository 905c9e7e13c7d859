package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// dynamoAPI is the minimal DynamoDB interface required by Dynamo.
// Defined here for testability.
type dynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Dynamo implements Driver against a DynamoDB table.
type Dynamo struct {
	api    dynamoAPI
	config Config
}

// NewDynamo creates a DynamoDB-backed driver.
func NewDynamo(api dynamoAPI, cfg Config) (*Dynamo, error) {
	if api == nil {
		return nil, errors.New("store: api must not be nil")
	}
	cfg.validate()
	return &Dynamo{api: api, config: cfg}, nil
}

// PutIfAbsent writes item only if its primary key is vacant.
func (d *Dynamo) PutIfAbsent(ctx context.Context, item Item) error {
	_, err := d.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.config.TableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk) AND attribute_not_exists(sk)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("store: PutIfAbsent: %w", err)
	}
	return nil
}

// Put writes item unconditionally.
func (d *Dynamo) Put(ctx context.Context, item Item) error {
	_, err := d.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.config.TableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("store: Put: %w", err)
	}
	return nil
}

// Get fetches the item at the exact primary key.
func (d *Dynamo) Get(ctx context.Context, pk, sk string) (Item, error) {
	out, err := d.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.config.TableName),
		Key:       primaryKey(pk, sk),
	})
	if err != nil {
		return nil, fmt.Errorf("store: Get: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	return Item(out.Item), nil
}

// QueryPrefix runs a sort-key prefix query over one partition.
func (d *Dynamo) QueryPrefix(ctx context.Context, q PrefixQuery) ([]Item, error) {
	exprValues := map[string]types.AttributeValue{
		":pk":     &types.AttributeValueMemberS{Value: q.PartitionKey},
		":prefix": &types.AttributeValueMemberS{Value: q.SortKeyPrefix},
	}
	in := &dynamodb.QueryInput{
		TableName:                 aws.String(d.config.TableName),
		KeyConditionExpression:    aws.String("pk = :pk AND begins_with(sk, :prefix)"),
		ExpressionAttributeValues: exprValues,
		ScanIndexForward:          aws.Bool(!q.Descending),
	}
	if expr, names := filterExpression(q.Filters, exprValues); expr != "" {
		in.FilterExpression = aws.String(expr)
		in.ExpressionAttributeNames = names
	}

	// A bounded query must not paginate: the limit caps items read in key
	// order, which is exactly what callers like get-last-message want.
	if q.Limit > 0 {
		in.Limit = aws.Int32(q.Limit)
		out, err := d.api.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("store: QueryPrefix: %w", err)
		}
		return toItems(out.Items), nil
	}

	var items []Item
	paginator := dynamodb.NewQueryPaginator(d.api, in)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("store: QueryPrefix: %w", err)
		}
		items = append(items, toItems(page.Items)...)
	}
	return items, nil
}

// QueryIndex runs a point lookup against the share-token GSI.
func (d *Dynamo) QueryIndex(ctx context.Context, indexPK string) ([]Item, error) {
	out, err := d.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(d.config.TableName),
		IndexName:              aws.String(d.config.IndexName),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: indexPK},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: QueryIndex: %w", err)
	}
	return toItems(out.Items), nil
}

// Update applies m to the item at the exact primary key and returns the
// post-update item.
func (d *Dynamo) Update(ctx context.Context, pk, sk string, m Mutation) (Item, error) {
	expr, names, values := updateExpression(m)
	if len(values) == 0 {
		// DynamoDB rejects an empty ExpressionAttributeValues map.
		values = nil
	}

	out, err := d.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.config.TableName),
		Key:                       primaryKey(pk, sk),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(pk) AND attribute_exists(sk)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: Update: %w", err)
	}
	return Item(out.Attributes), nil
}

// Delete removes the item at the exact primary key. Idempotent.
func (d *Dynamo) Delete(ctx context.Context, pk, sk string) error {
	_, err := d.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.config.TableName),
		Key:       primaryKey(pk, sk),
	})
	if err != nil {
		return fmt.Errorf("store: Delete: %w", err)
	}
	return nil
}

// CountPrefix counts the items matching the prefix and filters.
func (d *Dynamo) CountPrefix(ctx context.Context, pk, skPrefix string, filters []Filter) (int, error) {
	exprValues := map[string]types.AttributeValue{
		":pk":     &types.AttributeValueMemberS{Value: pk},
		":prefix": &types.AttributeValueMemberS{Value: skPrefix},
	}
	in := &dynamodb.QueryInput{
		TableName:                 aws.String(d.config.TableName),
		KeyConditionExpression:    aws.String("pk = :pk AND begins_with(sk, :prefix)"),
		ExpressionAttributeValues: exprValues,
		Select:                    types.SelectCount,
	}
	if expr, names := filterExpression(filters, exprValues); expr != "" {
		in.FilterExpression = aws.String(expr)
		in.ExpressionAttributeNames = names
	}

	count := 0
	paginator := dynamodb.NewQueryPaginator(d.api, in)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("store: CountPrefix: %w", err)
		}
		count += int(page.Count)
	}
	return count, nil
}

// Scan reads the whole table, keeping only items matching filters.
func (d *Dynamo) Scan(ctx context.Context, filters []Filter) ([]Item, error) {
	exprValues := map[string]types.AttributeValue{}
	in := &dynamodb.ScanInput{
		TableName: aws.String(d.config.TableName),
	}
	if expr, names := filterExpression(filters, exprValues); expr != "" {
		in.FilterExpression = aws.String(expr)
		in.ExpressionAttributeNames = names
		in.ExpressionAttributeValues = exprValues
	}

	var items []Item
	paginator := dynamodb.NewScanPaginator(d.api, in)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("store: Scan: %w", err)
		}
		items = append(items, toItems(page.Items)...)
	}
	return items, nil
}

func primaryKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPK: &types.AttributeValueMemberS{Value: pk},
		AttrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

// filterExpression renders filters as an ANDed equality expression, adding
// its value placeholders to exprValues. Returns the expression and the name
// placeholders, both empty when there are no filters.
func filterExpression(filters []Filter, exprValues map[string]types.AttributeValue) (string, map[string]string) {
	if len(filters) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(filters))
	names := make(map[string]string, len(filters))
	for i, f := range filters {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":f%d", i)
		names[nameKey] = f.Attr
		exprValues[valueKey] = f.Value
		clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}
	return strings.Join(clauses, " AND "), names
}

// updateExpression renders a Mutation as SET/REMOVE clauses with placeholder
// names and values.
func updateExpression(m Mutation) (string, map[string]string, map[string]types.AttributeValue) {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}

	var setClauses []string
	i := 0
	for attr, v := range m.Set {
		nameKey := fmt.Sprintf("#s%d", i)
		valueKey := fmt.Sprintf(":s%d", i)
		names[nameKey] = attr
		values[valueKey] = v
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}

	var removeClauses []string
	for j, attr := range m.Remove {
		nameKey := fmt.Sprintf("#r%d", j)
		names[nameKey] = attr
		removeClauses = append(removeClauses, nameKey)
	}

	var parts []string
	if len(setClauses) > 0 {
		parts = append(parts, "SET "+strings.Join(setClauses, ", "))
	}
	if len(removeClauses) > 0 {
		parts = append(parts, "REMOVE "+strings.Join(removeClauses, ", "))
	}
	return strings.Join(parts, " "), names, values
}

func toItems(raw []map[string]types.AttributeValue) []Item {
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		items = append(items, Item(r))
	}
	return items
}
