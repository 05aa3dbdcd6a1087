// Package dynamo implements product.Store on top of a DynamoDB table keyed by
// the string attribute "id".
package dynamo

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/coffee-catalog/internal/domain/product"
)

// API is the subset of the DynamoDB client used by Store.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var _ product.Store = (*Store)(nil)

// existsCondition guards writes that must only touch an existing item.
const existsCondition = "attribute_exists(#id)"

// Store is a DynamoDB-backed product.Store.
type Store struct {
	client API
	table  string
	tracer trace.Tracer
}

// Option configures a Store.
type Option func(*Store)

// WithTracerProvider sets the tracer provider used for per-call spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Store) {
		s.tracer = tp.Tracer("github.com/xenking/coffee-catalog/internal/storage/dynamo")
	}
}

// New creates a Store for the given table.
func New(client API, table string, opts ...Option) *Store {
	s := &Store{client: client, table: table}
	WithTracerProvider(otel.GetTracerProvider())(s)
	for _, o := range opts {
		o(s)
	}
	return s
}

// Table returns the table name.
func (s *Store) Table() string { return s.table }

func (s *Store) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("db.system", "dynamodb"),
		attribute.String("aws.dynamodb.table", s.table),
	)
	return s.tracer.Start(ctx, "dynamodb."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Store) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID: &types.AttributeValueMemberS{Value: id},
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// Put writes p, replacing any item with the same id.
func (s *Store) Put(ctx context.Context, p product.Product) (rerr error) {
	ctx, span := s.start(ctx, "PutItem", attribute.String("product.id", p.ID))
	defer func() { finish(span, rerr) }()

	av, err := marshalProduct(p)
	if err != nil {
		return errors.Wrap(err, "marshal item")
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return errors.Wrap(err, "put item")
	}
	return nil
}

// Get performs a strongly consistent read of a single item.
func (s *Store) Get(ctx context.Context, id string) (_ product.Product, _ bool, rerr error) {
	ctx, span := s.start(ctx, "GetItem", attribute.String("product.id", id))
	defer func() { finish(span, rerr) }()

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return product.Product{}, false, errors.Wrap(err, "get item")
	}
	if len(out.Item) == 0 {
		return product.Product{}, false, nil
	}
	p, err := unmarshalProduct(out.Item)
	if err != nil {
		return product.Product{}, false, err
	}
	return p, true, nil
}

// Scan reads the whole table, following pagination until exhausted.
func (s *Store) Scan(ctx context.Context) (_ []product.Product, rerr error) {
	ctx, span := s.start(ctx, "Scan")
	defer func() { finish(span, rerr) }()

	pages := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})

	out := make([]product.Product, 0)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "scan page")
		}
		for _, av := range page.Items {
			p, err := unmarshalProduct(av)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
	}
	span.SetAttributes(attribute.Int("product.count", len(out)))
	return out, nil
}

// updateInput builds a conditional UpdateItem call that sets every change
// plus updatedAt and returns the full new item.
func (s *Store) updateInput(id string, changes []product.Change, updatedAt time.Time) (*dynamodb.UpdateItemInput, error) {
	names := map[string]string{
		"#id":        attrID,
		"#updatedAt": attrUpdatedAt,
	}
	values := make(map[string]types.AttributeValue, len(changes)+1)
	sets := make([]string, 0, len(changes)+1)

	for i, c := range changes {
		name := "#attr" + strconv.Itoa(i)
		value := ":val" + strconv.Itoa(i)
		av, err := changeValue(c)
		if err != nil {
			return nil, err
		}
		names[name] = string(c.Field)
		values[value] = av
		sets = append(sets, name+" = "+value)
	}
	sets = append(sets, "#updatedAt = :updatedAt")
	values[":updatedAt"] = &types.AttributeValueMemberS{Value: formatTime(updatedAt)}

	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       s.key(id),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ConditionExpression:       aws.String(existsCondition),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	}, nil
}

// Update applies changes only if the item still exists.
func (s *Store) Update(ctx context.Context, id string, changes []product.Change, updatedAt time.Time) (_ product.Product, _ bool, rerr error) {
	ctx, span := s.start(ctx, "UpdateItem",
		attribute.String("product.id", id),
		attribute.Int("product.changes", len(changes)),
	)
	defer func() { finish(span, rerr) }()

	in, err := s.updateInput(id, changes, updatedAt)
	if err != nil {
		return product.Product{}, false, errors.Wrap(err, "build update")
	}
	out, err := s.client.UpdateItem(ctx, in)
	if isConditionFailed(err) {
		return product.Product{}, false, nil
	}
	if err != nil {
		return product.Product{}, false, errors.Wrap(err, "update item")
	}
	p, err := unmarshalProduct(out.Attributes)
	if err != nil {
		return product.Product{}, false, err
	}
	return p, true, nil
}

// Delete removes the item only if it exists.
func (s *Store) Delete(ctx context.Context, id string) (_ bool, rerr error) {
	ctx, span := s.start(ctx, "DeleteItem", attribute.String("product.id", id))
	defer func() { finish(span, rerr) }()

	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.table),
		Key:                      s.key(id),
		ConditionExpression:      aws.String(existsCondition),
		ExpressionAttributeNames: map[string]string{"#id": attrID},
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "delete item")
	}
	return true, nil
}

// Ping checks that the table is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	}); err != nil {
		return errors.Wrapf(err, "describe table %q", s.table)
	}
	return nil
}

// CreateTable creates the on-demand table if it does not exist and waits
// until it is active.
func (s *Store) CreateTable(ctx context.Context, wait time.Duration) error {
	_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{{
			AttributeName: aws.String(attrID),
			AttributeType: types.ScalarAttributeTypeS,
		}},
		KeySchema: []types.KeySchemaElement{{
			AttributeName: aws.String(attrID),
			KeyType:       types.KeyTypeHash,
		}},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	switch {
	case errors.As(err, &inUse):
		return nil
	case err != nil:
		return errors.Wrapf(err, "create table %q", s.table)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	}, wait); err != nil {
		return errors.Wrapf(err, "wait for table %q", s.table)
	}
	return nil
}
