package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"insurance-chatbot/internal/domain"
)

const keySessionID = "sessionId"

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Client wraps a DynamoDB table holding one full session record per
// session identifier. Writes overwrite the whole record; concurrent turns
// for the same identifier resolve last-write-wins.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new session store Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// Get fetches a session by identifier, or (nil, nil) when absent.
func (c *Client) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			keySessionID: &types.AttributeValueMemberS{Value: sessionID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: Get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, nil
	}
	sess, err := itemToSession(out.Item)
	if err != nil {
		return nil, fmt.Errorf("repository: Get unmarshal: %w", err)
	}
	return sess, nil
}

// Put upserts the full session record.
func (c *Client) Put(ctx context.Context, sess *domain.Session) error {
	if sess == nil || sess.SessionID == "" {
		return errors.New("repository: Put: session id is required")
	}
	item, err := sessionItem(sess)
	if err != nil {
		return fmt.Errorf("repository: Put marshal: %w", err)
	}
	if _, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("repository: Put: %w", err)
	}
	return nil
}

// Delete removes a session record. Deleting an absent session is not an error.
func (c *Client) Delete(ctx context.Context, sessionID string) error {
	if _, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			keySessionID: &types.AttributeValueMemberS{Value: sessionID},
		},
	}); err != nil {
		return fmt.Errorf("repository: Delete: %w", err)
	}
	return nil
}

func sessionItem(sess *domain.Session) (map[string]types.AttributeValue, error) {
	slots := make(map[string]types.AttributeValue, len(sess.Slots))
	for k, v := range sess.Slots {
		slots[k] = &types.AttributeValueMemberS{Value: v}
	}
	item := map[string]types.AttributeValue{
		keySessionID: &types.AttributeValueMemberS{Value: sess.SessionID},
		"intent":     &types.AttributeValueMemberS{Value: string(sess.Intent)},
		"slots":      &types.AttributeValueMemberM{Value: slots},
		"updatedAt":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", sess.UpdatedAt)},
	}
	if sess.Preview != nil {
		raw, err := json.Marshal(sess.Preview)
		if err != nil {
			return nil, fmt.Errorf("encode preview: %w", err)
		}
		item["preview"] = &types.AttributeValueMemberS{Value: string(raw)}
	}
	return item, nil
}

func itemToSession(item map[string]types.AttributeValue) (*domain.Session, error) {
	id, err := strAttr(item, keySessionID)
	if err != nil {
		return nil, err
	}
	intent, _ := strAttr(item, "intent") // allow empty

	sess := domain.NewSession(id)
	sess.Intent = domain.Intent(intent)

	if v, ok := item["slots"]; ok {
		m, ok := v.(*types.AttributeValueMemberM)
		if !ok {
			return nil, errors.New("repository: attribute \"slots\" is not a map")
		}
		for k, av := range m.Value {
			s, ok := av.(*types.AttributeValueMemberS)
			if !ok {
				return nil, fmt.Errorf("repository: slot %q is not a string", k)
			}
			sess.Slots[k] = s.Value
		}
	}
	if v, ok := item["preview"]; ok {
		s, ok := v.(*types.AttributeValueMemberS)
		if !ok {
			return nil, errors.New("repository: attribute \"preview\" is not a string")
		}
		var preview domain.QuotePreview
		if err := json.Unmarshal([]byte(s.Value), &preview); err != nil {
			return nil, fmt.Errorf("repository: decode preview: %w", err)
		}
		sess.Preview = &preview
	}
	if _, ok := item["updatedAt"]; ok {
		ts, err := intAttr(item, "updatedAt")
		if err != nil {
			return nil, err
		}
		sess.UpdatedAt = ts
	}
	return sess, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
