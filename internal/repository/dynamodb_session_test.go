package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"insurance-chatbot/internal/domain"
)

type fakeDynamo struct {
	getOut       *dynamodb.GetItemOutput
	getErr       error
	putErr       error
	deleteErr    error
	lastGetInput *dynamodb.GetItemInput
	lastPutInput *dynamodb.PutItemInput
	lastDelInput *dynamodb.DeleteItemInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.lastDelInput = in
	return &dynamodb.DeleteItemOutput{}, f.deleteErr
}

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "test-table")
	require.NoError(t, err)
	return c
}

func sampleSession() *domain.Session {
	sess := domain.NewSession("sess-1")
	sess.Intent = domain.IntentMotor
	sess.Slots["customer_name"] = "John Tan"
	sess.Slots["year"] = "2019"
	sess.Preview = &domain.QuotePreview{
		Breakdown: domain.Breakdown{Currency: "MYR", TotalPremium: 1350},
		RiskScore: 42,
	}
	sess.UpdatedAt = 1756700000
	return sess
}

func TestPutGet_RoundTrip(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	require.NoError(t, c.Put(context.Background(), sampleSession()))
	require.NotNil(t, db.lastPutInput)
	require.Equal(t, "test-table", *db.lastPutInput.TableName)

	db.getOut = &dynamodb.GetItemOutput{Item: db.lastPutInput.Item}
	got, err := c.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, sampleSession(), got)
	require.True(t, *db.lastGetInput.ConsistentRead)
}

func TestPutGet_RoundTrip_NoPreview(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	sess := domain.NewSession("sess-2")
	sess.Intent = domain.IntentLife
	sess.Slots["age"] = "34"
	require.NoError(t, c.Put(context.Background(), sess))
	require.NotContains(t, db.lastPutInput.Item, "preview")

	db.getOut = &dynamodb.GetItemOutput{Item: db.lastPutInput.Item}
	got, err := c.Get(context.Background(), "sess-2")
	require.NoError(t, err)
	require.Nil(t, got.Preview)
	require.Equal(t, "34", got.Slots["age"])
}

func TestGet_AbsentSession(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{}}
	c := mustNewClient(t, db)
	got, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestGet_DynamoError(t *testing.T) {
	db := &fakeDynamo{getErr: errors.New("ResourceNotFoundException")}
	c := mustNewClient(t, db)
	_, err := c.Get(context.Background(), "sess-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Get item")
}

func TestGet_MalformedPreview(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"sessionId": &types.AttributeValueMemberS{Value: "sess-1"},
		"intent":    &types.AttributeValueMemberS{Value: "MOTOR"},
		"preview":   &types.AttributeValueMemberS{Value: "{broken"},
	}}}
	c := mustNewClient(t, db)
	_, err := c.Get(context.Background(), "sess-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode preview")
}

func TestGet_MalformedSlots(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"sessionId": &types.AttributeValueMemberS{Value: "sess-1"},
		"slots":     &types.AttributeValueMemberS{Value: "not-a-map"},
	}}}
	c := mustNewClient(t, db)
	_, err := c.Get(context.Background(), "sess-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "slots")
}

func TestPut_MissingSessionID(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	require.Error(t, c.Put(context.Background(), &domain.Session{}))
	require.Error(t, c.Put(context.Background(), nil))
}

func TestPut_DynamoError(t *testing.T) {
	db := &fakeDynamo{putErr: errors.New("ProvisionedThroughputExceededException")}
	c := mustNewClient(t, db)
	err := c.Put(context.Background(), sampleSession())
	require.Error(t, err)
	require.Contains(t, err.Error(), "Put")
}

func TestDelete_HappyPath(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	require.NoError(t, c.Delete(context.Background(), "sess-1"))
	require.Equal(t, "sess-1", db.lastDelInput.Key[keySessionID].(*types.AttributeValueMemberS).Value)
}

func TestDelete_DynamoError(t *testing.T) {
	db := &fakeDynamo{deleteErr: errors.New("boom")}
	c := mustNewClient(t, db)
	err := c.Delete(context.Background(), "sess-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Delete")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "test-table")
	require.Error(t, err)

	_, err = New(&fakeDynamo{}, "  ")
	require.Error(t, err)
}
