package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/lingualoop/learning-api/internal/domain"
)

// Users is the users table, keyed by userId.
type Users struct {
	table
}

// NewUsers creates a store over tableName.
func NewUsers(api DynamoAPI, tableName string, timeout time.Duration) *Users {
	return &Users{table: newTable(api, tableName, timeout)}
}

// languageProjection lists the attributes the resolver reads. Older
// profiles were written with snake_case language fields.
var languageProjection = expression.NamesList(
	expression.Name("userId"),
	expression.Name("nativeLanguage"),
	expression.Name("targetLanguage"),
	expression.Name("native_language"),
	expression.Name("target_language"),
	expression.Name("proficiency"),
	expression.Name("finalLevel"),
	expression.Name("initialProficiency"),
	expression.Name("weakAreas"),
)

// GetUserRecord reads the language fields of userID. Language values are
// returned as stored, untyped; nil when absent.
func (u *Users) GetUserRecord(ctx context.Context, userID string) (*domain.UserLanguageRecord, error) {
	expr, err := expression.NewBuilder().WithProjection(languageProjection).Build()
	if err != nil {
		return nil, fmt.Errorf("build projection: %w", err)
	}

	item, err := u.get(ctx, userID, func(in *dynamodb.GetItemInput) {
		in.ProjectionExpression = expr.Projection()
		in.ExpressionAttributeNames = expr.Names()
	})
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := attributevalue.UnmarshalMap(item, &m); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", userID, err)
	}

	rec := &domain.UserLanguageRecord{
		UserID:         userID,
		NativeLanguage: firstPresent(m, "nativeLanguage", "native_language"),
		TargetLanguage: firstPresent(m, "targetLanguage", "target_language"),
	}
	if level, ok := firstPresent(m, "proficiency", "finalLevel", "initialProficiency").(string); ok {
		rec.Proficiency = level
	}
	if list, ok := m["weakAreas"].([]any); ok {
		for _, v := range list {
			if s, ok := v.(string); ok {
				rec.WeakAreas = append(rec.WeakAreas, s)
			}
		}
	}
	return rec, nil
}

// GetUser reads the full profile of userID.
func (u *Users) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	item, err := u.get(ctx, userID, nil)
	if err != nil {
		return nil, err
	}

	var user domain.User
	if err := attributevalue.UnmarshalMap(item, &user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", userID, err)
	}
	if user.NativeLanguage == "" {
		user.NativeLanguage = stringAttr(item, "native_language")
	}
	if user.TargetLanguage == "" {
		user.TargetLanguage = stringAttr(item, "target_language")
	}
	return &user, nil
}

// CreateUser writes a new profile. It fails with ErrAlreadyExists when the
// user id is taken.
func (u *Users) CreateUser(ctx context.Context, user *domain.User) error {
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("encode user %s: %w", user.UserID, err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("userId"))).
		Build()
	if err != nil {
		return fmt.Errorf("build condition: %w", err)
	}

	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	_, err = u.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(u.name),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("user %s: %w", user.UserID, ErrAlreadyExists)
	}
	if err != nil {
		return dbError("put", u.name, err)
	}
	return nil
}

// UserUpdate lists profile fields to change. Nil fields are left alone.
type UserUpdate struct {
	LastLoginAt         string
	FinalLevel          *string
	SkillBreakdown      map[string]any
	WeakAreas           []string
	RecommendedFocus    []string
	OnboardingCompleted *bool
	NativeLanguage      *string
	TargetLanguage      *string
}

// UpdateUserRecord applies update to an existing profile and returns the
// updated profile. A missing user fails with domain.ErrUserNotFound.
func (u *Users) UpdateUserRecord(ctx context.Context, userID string, update UserUpdate) (*domain.User, error) {
	set := expression.Set(expression.Name("lastLoginAt"), expression.Value(update.LastLoginAt))
	if update.FinalLevel != nil {
		set = set.Set(expression.Name("finalLevel"), expression.Value(*update.FinalLevel))
	}
	if update.SkillBreakdown != nil {
		set = set.Set(expression.Name("skillBreakdown"), expression.Value(update.SkillBreakdown))
	}
	if update.WeakAreas != nil {
		set = set.Set(expression.Name("weakAreas"), expression.Value(update.WeakAreas))
	}
	if update.RecommendedFocus != nil {
		set = set.Set(expression.Name("recommendedFocus"), expression.Value(update.RecommendedFocus))
	}
	if update.OnboardingCompleted != nil {
		set = set.Set(expression.Name("onboardingCompleted"), expression.Value(*update.OnboardingCompleted))
	}
	if update.NativeLanguage != nil {
		set = set.Set(expression.Name("nativeLanguage"), expression.Value(*update.NativeLanguage))
	}
	if update.TargetLanguage != nil {
		set = set.Set(expression.Name("targetLanguage"), expression.Value(*update.TargetLanguage))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(set).
		WithCondition(expression.AttributeExists(expression.Name("userId"))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	out, err := u.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(u.name),
		Key:                       stringKey("userId", userID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrUserNotFound)
	}
	if err != nil {
		return nil, dbError("update", u.name, err)
	}

	var user domain.User
	if err := attributevalue.UnmarshalMap(out.Attributes, &user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", userID, err)
	}
	return &user, nil
}

func (u *Users) get(ctx context.Context, userID string, configure func(*dynamodb.GetItemInput)) (map[string]types.AttributeValue, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	in := &dynamodb.GetItemInput{
		TableName: aws.String(u.name),
		Key:       stringKey("userId", userID),
	}
	if configure != nil {
		configure(in)
	}

	out, err := u.api.GetItem(ctx, in)
	if err != nil {
		return nil, dbError("get", u.name, err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrUserNotFound)
	}
	return out.Item, nil
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}
