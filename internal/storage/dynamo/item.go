package dynamo

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/coffee-catalog/internal/domain/product"
)

// Attribute names of a product item.
const (
	attrID        = "id"
	attrUpdatedAt = "updatedAt"
)

// timeLayout is ISO-8601 with millisecond precision, e.g. 2024-01-01T00:00:00.000Z.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// item is the stored shape of a product.
type item struct {
	ID          string `dynamodbav:"id"`
	Name        string `dynamodbav:"name"`
	Description string `dynamodbav:"description"`
	Price       number `dynamodbav:"price"`
	Category    string `dynamodbav:"category"`
	Available   bool   `dynamodbav:"available"`
	CreatedAt   string `dynamodbav:"createdAt"`
	UpdatedAt   string `dynamodbav:"updatedAt"`
}

// number stores a decimal as a DynamoDB N attribute without float rounding.
type number struct {
	decimal.Decimal
}

var (
	_ attributevalue.Marshaler   = number{}
	_ attributevalue.Unmarshaler = (*number)(nil)
)

func (n number) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: n.String()}, nil
}

func (n *number) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	v, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return errors.Errorf("expected number attribute, got %T", av)
	}
	d, err := decimal.NewFromString(v.Value)
	if err != nil {
		return errors.Wrap(err, "parse number")
	}
	n.Decimal = d
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func toItem(p product.Product) item {
	return item{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       number{p.Price},
		Category:    string(p.Category),
		Available:   p.Available,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func fromItem(i item) (product.Product, error) {
	createdAt, err := parseTime(i.CreatedAt)
	if err != nil {
		return product.Product{}, errors.Wrapf(err, "item %q: parse createdAt", i.ID)
	}
	updatedAt, err := parseTime(i.UpdatedAt)
	if err != nil {
		return product.Product{}, errors.Wrapf(err, "item %q: parse updatedAt", i.ID)
	}
	return product.Product{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Price:       i.Price.Decimal,
		Category:    product.Category(i.Category),
		Available:   i.Available,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func marshalProduct(p product.Product) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(toItem(p))
}

func unmarshalProduct(av map[string]types.AttributeValue) (product.Product, error) {
	var i item
	if err := attributevalue.UnmarshalMap(av, &i); err != nil {
		return product.Product{}, errors.Wrap(err, "unmarshal item")
	}
	return fromItem(i)
}

// changeValue converts the value of a partial-update change to an attribute.
func changeValue(c product.Change) (types.AttributeValue, error) {
	switch v := c.Value.(type) {
	case string:
		return &types.AttributeValueMemberS{Value: v}, nil
	case product.Category:
		return &types.AttributeValueMemberS{Value: string(v)}, nil
	case decimal.Decimal:
		return number{v}.MarshalDynamoDBAttributeValue()
	case bool:
		return &types.AttributeValueMemberBOOL{Value: v}, nil
	default:
		return nil, errors.Errorf("field %s: unsupported value type %T", c.Field, c.Value)
	}
}
