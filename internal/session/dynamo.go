package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ignite/gameplan-importer/internal/domain"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// maxItemBytes is the DynamoDB item size limit.
const maxItemBytes = 400 * 1024

// Condition expressions used for optimistic writes.
const (
	condNew     = "attribute_not_exists(session_id)"
	condVersion = "version = :v"
)

// dynamoItem is the stored shape. The session travels as a JSON document so
// the item layout stays flat; expires_at is the table's TTL attribute.
type dynamoItem struct {
	SessionID string `dynamodbav:"session_id"`
	Status    string `dynamodbav:"status"`
	Document  string `dynamodbav:"document"`
	Version   int64  `dynamodbav:"version"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// DynamoStore keeps sessions in a DynamoDB table keyed by session_id.
// Writes carry a version condition so concurrent updates do not clobber
// each other.
type DynamoStore struct {
	client      DynamoAPI
	table       string
	ttl         time.Duration
	terminalTTL time.Duration
	now         func() time.Time
}

// NewDynamoStore returns a DynamoStore. Zero TTLs select the defaults.
func NewDynamoStore(client DynamoAPI, table string, ttl, terminalTTL time.Duration) *DynamoStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if terminalTTL <= 0 {
		terminalTTL = DefaultTerminalTTL
	}
	return &DynamoStore{client: client, table: table, ttl: ttl, terminalTTL: terminalTTL, now: time.Now}
}

func (d *DynamoStore) Create(ctx context.Context, s *domain.ImportSession) error {
	prepare(s, d.now().UTC())
	err := d.put(ctx, s, 1, condNew, nil)
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ErrExists
	}
	if err != nil {
		return err
	}
	recordTransition(string(s.Status))
	return nil
}

func (d *DynamoStore) Get(ctx context.Context, id string) (*domain.ImportSession, error) {
	s, _, err := d.get(ctx, id)
	return s, err
}

func (d *DynamoStore) Update(ctx context.Context, id string, patch Patch) (*domain.ImportSession, error) {
	for i := 0; i < maxUpdateRetries; i++ {
		s, version, err := d.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := patch.Apply(s, d.now().UTC()); err != nil {
			return nil, err
		}
		err = d.put(ctx, s, version+1, condVersion, map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(version, 10)},
		})
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			continue
		}
		if err != nil {
			return nil, err
		}
		patch.committed()
		return s, nil
	}
	return nil, fmt.Errorf("update session %s: too much contention", id)
}

func (d *DynamoStore) get(ctx context.Context, id string) (*domain.ImportSession, int64, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            map[string]types.AttributeValue{"session_id": &types.AttributeValueMemberS{Value: id}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("get session %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, 0, ErrNotFound
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, 0, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	if item.ExpiresAt > 0 && d.now().Unix() >= item.ExpiresAt {
		// DynamoDB deletes expired items lazily.
		return nil, 0, ErrNotFound
	}
	var s domain.ImportSession
	if err := json.Unmarshal([]byte(item.Document), &s); err != nil {
		return nil, 0, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, item.Version, nil
}

func (d *DynamoStore) put(ctx context.Context, s *domain.ImportSession, version int64, cond string, values map[string]types.AttributeValue) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	av, err := attributevalue.MarshalMap(dynamoItem{
		SessionID: s.SessionID,
		Status:    string(s.Status),
		Document:  string(doc),
		Version:   version,
		ExpiresAt: d.now().Add(ttlFor(s.Status, d.ttl, d.terminalTTL)).Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal session item: %w", err)
	}
	if size := itemSize(av); size > maxItemBytes {
		return fmt.Errorf("%w: session %s is %d bytes, limit %d", ErrTooLarge, s.SessionID, size, maxItemBytes)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(d.table),
		Item:                      av,
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("put session %s: %w", s.SessionID, err)
	}
	return nil
}

// itemSize approximates the stored size of an item the way DynamoDB counts
// it: attribute name bytes plus value bytes.
func itemSize(item map[string]types.AttributeValue) int {
	n := 0
	for name, v := range item {
		n += len(name)
		switch v := v.(type) {
		case *types.AttributeValueMemberS:
			n += len(v.Value)
		case *types.AttributeValueMemberN:
			n += len(v.Value)
		case *types.AttributeValueMemberB:
			n += len(v.Value)
		default:
			n++
		}
	}
	return n
}

var _ Store = (*DynamoStore)(nil)
