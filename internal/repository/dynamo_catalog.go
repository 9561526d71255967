package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cloud-wave-best-zizon/shopping-service/internal/domain"
	pkgconfig "github.com/cloud-wave-best-zizon/shopping-service/pkg/config"
	"github.com/shopspring/decimal"
)

// DynamoAPI is the subset of the DynamoDB client the catalog uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// productItem is the table row. Price is kept as a decimal string so no
// precision is lost to float conversion.
type productItem struct {
	ProductKey  int       `dynamodbav:"product_key"`
	SKU         string    `dynamodbav:"sku"`
	Name        string    `dynamodbav:"name"`
	Description string    `dynamodbav:"description"`
	Category    string    `dynamodbav:"category"`
	Price       string    `dynamodbav:"price"`
	CreatedAt   time.Time `dynamodbav:"created_at"`
}

type DynamoCatalog struct {
	client    DynamoAPI
	tableName string
}

func NewDynamoDBClient(ctx context.Context, cfg *pkgconfig.Config) (*dynamodb.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.AWSRegion),
	}
	// DynamoDB Local은 아무 자격 증명이나 허용
	if cfg.DynamoDBEndpoint != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	}), nil
}

func NewDynamoCatalog(client DynamoAPI, tableName string) *DynamoCatalog {
	return &DynamoCatalog{
		client:    client,
		tableName: tableName,
	}
}

func (r *DynamoCatalog) CreateProduct(ctx context.Context, product *domain.Product) error {
	av, err := attributevalue.MarshalMap(toItem(product, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	// 같은 키가 이미 있으면 덮어쓰지 않음
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("product_key"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrProductExists
		}
		return fmt.Errorf("failed to put item: %w", err)
	}

	return nil
}

func (r *DynamoCatalog) GetProduct(ctx context.Context, key int) (*domain.Product, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"product_key": &types.AttributeValueMemberN{Value: strconv.Itoa(key)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if result.Item == nil {
		return nil, ErrProductNotFound
	}

	var item productItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	return fromItem(item)
}

func toItem(p *domain.Product, createdAt time.Time) productItem {
	return productItem{
		ProductKey:  p.Key,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price.String(),
		CreatedAt:   createdAt,
	}
}

func fromItem(item productItem) (*domain.Product, error) {
	price := decimal.Zero
	if item.Price != "" {
		var err error
		price, err = decimal.NewFromString(item.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for product %d: %w", item.Price, item.ProductKey, err)
		}
	}

	return &domain.Product{
		Key:         item.ProductKey,
		SKU:         item.SKU,
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		Price:       price,
	}, nil
}
