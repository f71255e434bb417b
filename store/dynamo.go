package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/raushankrgupta/fitly-api/models"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoTable.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// DynamoTable implements Table on a DynamoDB table.
type DynamoTable[T any] struct {
	client DynamoAPI
	schema Schema
}

// NewDynamoTable wraps client for the table described by schema.
func NewDynamoTable[T any](client DynamoAPI, schema Schema) *DynamoTable[T] {
	return &DynamoTable[T]{client: client, schema: schema}
}

// NewDynamoBackend opens the three tables on DynamoDB. endpoint overrides the
// service endpoint, e.g. for DynamoDB Local.
func NewDynamoBackend(awsCfg aws.Config, endpoint string, s Schemas) *Backend {
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	profiles := NewDynamoTable[models.UserProfile](client, s.Profiles)
	cart := NewDynamoTable[models.CartItem](client, s.CartItems)
	fits := NewDynamoTable[models.FitJob](client, s.Fits)
	return &Backend{
		Profiles:  profiles,
		CartItems: cart,
		Fits:      fits,
		ensure: func(ctx context.Context) error {
			for _, ensure := range []func(context.Context) error{profiles.EnsureTable, cart.EnsureTable, fits.EnsureTable} {
				if err := ensure(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (d *DynamoTable[T]) fail(op string, err error) error {
	return &Error{Table: d.schema.Name, Op: op, Err: err}
}

func (d *DynamoTable[T]) key(key Key) (map[string]types.AttributeValue, error) {
	if err := d.schema.checkKey(key); err != nil {
		return nil, err
	}
	av := make(map[string]types.AttributeValue, len(key))
	for _, a := range d.schema.keyAttrs() {
		av[a] = &types.AttributeValueMemberS{Value: key[a]}
	}
	return av, nil
}

// Get implements Table.
func (d *DynamoTable[T]) Get(ctx context.Context, key Key) (*T, error) {
	k, err := d.key(key)
	if err != nil {
		return nil, d.fail("get", err)
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.schema.Name),
		Key:       k,
	})
	if err != nil {
		return nil, d.fail("get", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec T
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, d.fail("get", err)
	}
	return &rec, nil
}

// Put implements Table.
func (d *DynamoTable[T]) Put(ctx context.Context, rec *T) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return d.fail("put", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.schema.Name),
		Item:      item,
	})
	if err != nil {
		return d.fail("put", err)
	}
	return nil
}

// Update implements Table. setOnInsert fields use if_not_exists so the
// first written value is kept.
func (d *DynamoTable[T]) Update(ctx context.Context, key Key, set Fields, setOnInsert Fields) error {
	k, err := d.key(key)
	if err != nil {
		return d.fail("update", err)
	}

	var upd expression.UpdateBuilder
	for name, v := range set {
		upd = upd.Set(expression.Name(name), expression.Value(v))
	}
	for name, v := range setOnInsert {
		upd = upd.Set(expression.Name(name), expression.Name(name).IfNotExists(expression.Value(v)))
	}
	expr, err := expression.NewBuilder().WithUpdate(upd).Build()
	if err != nil {
		return d.fail("update", err)
	}

	_, err = d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.schema.Name),
		Key:                       k,
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return d.fail("update", err)
	}
	return nil
}

// Query implements Table. The cursor carries DynamoDB's LastEvaluatedKey.
func (d *DynamoTable[T]) Query(ctx context.Context, q Query) (Page[T], error) {
	pk, _, err := d.schema.queryKeys(q.Index)
	if err != nil {
		return Page[T]{}, d.fail("query", err)
	}

	cond := expression.Key(pk).Equal(expression.Value(q.Partition))
	expr, err := expression.NewBuilder().WithKeyCondition(cond).Build()
	if err != nil {
		return Page[T]{}, d.fail("query", err)
	}

	in := &dynamodb.QueryInput{
		TableName:                 aws.String(d.schema.Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(!q.Descending),
	}
	if q.Index != "" {
		in.IndexName = aws.String(q.Index)
	}
	if q.Limit > 0 {
		in.Limit = aws.Int32(q.Limit)
	}
	if q.Cursor != "" {
		last, err := DecodeCursor(q.Cursor, d.schema.cursorAttrs(q.Index), pk, q.Partition)
		if err != nil {
			return Page[T]{}, err
		}
		if in.ExclusiveStartKey, err = attributevalue.MarshalMap(last); err != nil {
			return Page[T]{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
	}

	out, err := d.client.Query(ctx, in)
	if err != nil {
		return Page[T]{}, d.fail("query", err)
	}

	page := Page[T]{Items: make([]T, 0, len(out.Items))}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &page.Items); err != nil {
		return Page[T]{}, d.fail("query", err)
	}
	if len(out.LastEvaluatedKey) > 0 {
		var last map[string]any
		if err := attributevalue.UnmarshalMap(out.LastEvaluatedKey, &last); err != nil {
			return Page[T]{}, d.fail("query", err)
		}
		if page.NextCursor, err = EncodeCursor(last); err != nil {
			return Page[T]{}, d.fail("query", err)
		}
	}
	return page, nil
}

// EnsureTable creates the table and its secondary indexes on demand.
// An existing table is left untouched.
func (d *DynamoTable[T]) EnsureTable(ctx context.Context) error {
	attrs := map[string]bool{}
	keySchema := func(pk, sk string) []types.KeySchemaElement {
		attrs[pk] = true
		ks := []types.KeySchemaElement{{AttributeName: aws.String(pk), KeyType: types.KeyTypeHash}}
		if sk != "" {
			attrs[sk] = true
			ks = append(ks, types.KeySchemaElement{AttributeName: aws.String(sk), KeyType: types.KeyTypeRange})
		}
		return ks
	}

	in := &dynamodb.CreateTableInput{
		TableName:   aws.String(d.schema.Name),
		BillingMode: types.BillingModePayPerRequest,
		KeySchema:   keySchema(d.schema.PartitionKey, d.schema.SortKey),
	}
	for name, idx := range d.schema.Indexes {
		in.GlobalSecondaryIndexes = append(in.GlobalSecondaryIndexes, types.GlobalSecondaryIndex{
			IndexName:  aws.String(name),
			KeySchema:  keySchema(idx.PartitionKey, idx.SortKey),
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}
	for name := range attrs {
		in.AttributeDefinitions = append(in.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: types.ScalarAttributeTypeS,
		})
	}

	_, err := d.client.CreateTable(ctx, in)
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		return nil
	}
	if err != nil {
		return d.fail("create table", err)
	}
	return nil
}
