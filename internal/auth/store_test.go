package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/formbridge/backend/internal/model"
)

// fakeDynamoClient implements DynamoAPI over a plain map.
type fakeDynamoClient struct {
	items  map[string]map[string]types.AttributeValue
	getErr error
}

func newFakeDynamoClient() *fakeDynamoClient {
	return &fakeDynamoClient{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(key map[string]types.AttributeValue) (string, error) {
	attr, ok := key["slot_id"].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("missing slot_id key")
	}
	return attr.Value, nil
}

func (f *fakeDynamoClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	k, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := f.items[k]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamoClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	k, err := keyOf(params.Item)
	if err != nil {
		return nil, err
	}
	f.items[k] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	k, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	delete(f.items, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

func testCredential() *model.StoredCredential {
	return &model.StoredCredential{
		AccessToken:           "access-123",
		EncryptedRefreshToken: "mock:refresh-456",
		TokenType:             "Bearer",
		Expiry:                time.Now().Add(1 * time.Hour).UTC().Truncate(time.Second),
	}
}

func TestDynamoStore_SetAndGet(t *testing.T) {
	store := NewDynamoStore(newFakeDynamoClient(), "test-credentials")
	ctx := context.Background()

	if err := store.Set(ctx, testCredential()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.SlotID != SlotID {
		t.Errorf("Expected slot id %q, got %q", SlotID, got.SlotID)
	}
	if got.AccessToken != "access-123" {
		t.Errorf("Expected access token 'access-123', got %q", got.AccessToken)
	}
	if got.EncryptedRefreshToken != "mock:refresh-456" {
		t.Errorf("Expected encrypted refresh token 'mock:refresh-456', got %q", got.EncryptedRefreshToken)
	}
}

func TestDynamoStore_Get_EmptySlot(t *testing.T) {
	store := NewDynamoStore(newFakeDynamoClient(), "test-credentials")

	_, err := store.Get(context.Background())
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("Expected ErrNoCredential, got %v", err)
	}
}

func TestDynamoStore_Get_IOErrorIsNotErrNoCredential(t *testing.T) {
	client := newFakeDynamoClient()
	client.getErr = fmt.Errorf("dynamo is down")
	store := NewDynamoStore(client, "test-credentials")

	_, err := store.Get(context.Background())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if errors.Is(err, ErrNoCredential) {
		t.Fatalf("I/O failure must not be reported as an empty slot: %v", err)
	}
}

func TestDynamoStore_Clear(t *testing.T) {
	store := NewDynamoStore(newFakeDynamoClient(), "test-credentials")
	ctx := context.Background()

	store.Set(ctx, testCredential())
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if _, err := store.Get(ctx); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("Expected ErrNoCredential after Clear, got %v", err)
	}
}

func TestDynamoStore_Set_LastWriteWins(t *testing.T) {
	store := NewDynamoStore(newFakeDynamoClient(), "test-credentials")
	ctx := context.Background()

	first := testCredential()
	store.Set(ctx, first)

	second := testCredential()
	second.AccessToken = "access-999"
	store.Set(ctx, second)

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.AccessToken != "access-999" {
		t.Errorf("Expected last written access token, got %q", got.AccessToken)
	}
}

func TestMemoryStore_SetGetClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Get(ctx); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("Expected ErrNoCredential on empty store, got %v", err)
	}

	if err := store.Set(ctx, testCredential()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.SlotID != SlotID {
		t.Errorf("Expected slot id %q, got %q", SlotID, got.SlotID)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := store.Get(ctx); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("Expected ErrNoCredential after Clear, got %v", err)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Set(ctx, testCredential())

	got, _ := store.Get(ctx)
	got.AccessToken = "mutated"

	again, _ := store.Get(ctx)
	if again.AccessToken != "access-123" {
		t.Errorf("Stored credential mutated through returned copy: %q", again.AccessToken)
	}
}
