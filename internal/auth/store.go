package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/formbridge/backend/internal/model"
)

// SlotID is the partition key of the single credential record. The service
// serves one authenticated principal, so the slot is fixed.
const SlotID = "primary"

// ErrNoCredential is returned when the credential slot is empty.
var ErrNoCredential = errors.New("no credential stored")

// CredentialStore persists the single OAuth2 credential slot.
// Writes are last-write-wins; there is no versioning.
type CredentialStore interface {
	Get(ctx context.Context) (*model.StoredCredential, error)
	Set(ctx context.Context, cred *model.StoredCredential) error
	Clear(ctx context.Context) error
}

// DynamoAPI is the subset of *dynamodb.Client methods used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoStore is a CredentialStore backed by a DynamoDB table.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
}

// NewDynamoStore creates a DynamoStore using the given table.
func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

func (s *DynamoStore) slotKey() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"slot_id": &types.AttributeValueMemberS{Value: SlotID},
	}
}

// Get reads the credential slot. Returns ErrNoCredential when the slot is empty.
func (s *DynamoStore) Get(ctx context.Context) (*model.StoredCredential, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.slotKey(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get credential from DynamoDB: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNoCredential
	}

	var cred model.StoredCredential
	if err := attributevalue.UnmarshalMap(out.Item, &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &cred, nil
}

// Set overwrites the credential slot.
func (s *DynamoStore) Set(ctx context.Context, cred *model.StoredCredential) error {
	cred.SlotID = SlotID

	item, err := attributevalue.MarshalMap(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save credential to DynamoDB: %w", err)
	}
	return nil
}

// Clear deletes the credential slot.
func (s *DynamoStore) Clear(ctx context.Context) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.slotKey(),
	})
	if err != nil {
		return fmt.Errorf("failed to clear credential slot: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory CredentialStore for DEV_MODE and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	cred *model.StoredCredential
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context) (*model.StoredCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return nil, ErrNoCredential
	}
	c := *s.cred
	return &c, nil
}

func (s *MemoryStore) Set(ctx context.Context, cred *model.StoredCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cred
	c.SlotID = SlotID
	s.cred = &c
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}
