package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/lingualoop/learning-api/internal/domain"
)

// Lessons is the lessons table, keyed by lessonId.
type Lessons struct {
	table
}

// NewLessons creates a store over tableName.
func NewLessons(api DynamoAPI, tableName string, timeout time.Duration) *Lessons {
	return &Lessons{table: newTable(api, tableName, timeout)}
}

// Save writes lesson, replacing any lesson with the same id.
func (l *Lessons) Save(ctx context.Context, lesson *domain.Lesson) error {
	item, err := attributevalue.MarshalMap(lesson)
	if err != nil {
		return fmt.Errorf("encode lesson %s: %w", lesson.LessonID, err)
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	if _, err := l.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.name),
		Item:      item,
	}); err != nil {
		return dbError("put", l.name, err)
	}
	return nil
}

// Vocabulary is the vocabulary table, keyed by (userId, wordId).
type Vocabulary struct {
	table
}

// NewVocabulary creates a store over tableName.
func NewVocabulary(api DynamoAPI, tableName string, timeout time.Duration) *Vocabulary {
	return &Vocabulary{table: newTable(api, tableName, timeout)}
}

// List returns every saved word of userID, following query pages.
func (v *Vocabulary) List(ctx context.Context, userID string) ([]domain.VocabularyItem, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("userId").Equal(expression.Value(userID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}

	ctx, cancel := v.withTimeout(ctx)
	defer cancel()

	items := []domain.VocabularyItem{}
	pages := dynamodb.NewQueryPaginator(v.api, &dynamodb.QueryInput{
		TableName:                 aws.String(v.name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, dbError("query", v.name, err)
		}
		var batch []domain.VocabularyItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("decode vocabulary of %s: %w", userID, err)
		}
		items = append(items, batch...)
	}
	return items, nil
}

// Add writes a new word. It fails with ErrAlreadyExists when the word id
// is taken for the user.
func (v *Vocabulary) Add(ctx context.Context, item *domain.VocabularyItem) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("encode word %s: %w", item.WordID, err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("wordId"))).
		Build()
	if err != nil {
		return fmt.Errorf("build condition: %w", err)
	}

	ctx, cancel := v.withTimeout(ctx)
	defer cancel()

	_, err = v.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(v.name),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("word %s: %w", item.WordID, ErrAlreadyExists)
	}
	if err != nil {
		return dbError("put", v.name, err)
	}
	return nil
}
