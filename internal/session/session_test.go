package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/gameplan-importer/internal/domain"
)

// fakeDynamo is an in-memory DynamoAPI that evaluates the two condition
// expressions DynamoStore issues.
// conflicts makes that many versioned puts fail as if another writer won.
type fakeDynamo struct {
	mu        sync.Mutex
	items     map[string]map[string]types.AttributeValue
	puts      int
	conflicts int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(m map[string]types.AttributeValue) string {
	return m["session_id"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := keyOf(in.Item)
	cur, exists := f.items[id]
	failed := &types.ConditionalCheckFailedException{Message: aws.String("conditional request failed")}
	switch aws.ToString(in.ConditionExpression) {
	case condNew:
		if exists {
			return nil, failed
		}
	case condVersion:
		want := in.ExpressionAttributeValues[":v"].(*types.AttributeValueMemberN).Value
		if !exists || cur["version"].(*types.AttributeValueMemberN).Value != want {
			return nil, failed
		}
		if f.conflicts > 0 {
			f.conflicts--
			return nil, failed
		}
	}
	f.puts++
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			return NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0, 0)
		},
		"dynamodb": func(t *testing.T) Store {
			return NewDynamoStore(newFakeDynamo(), "import_sessions", 0, 0)
		},
	}
}

func newSession(id string) *domain.ImportSession {
	return &domain.ImportSession{
		SessionID: id,
		Template:  "gameplan",
		CountryID: "Germany",
		Records:   []domain.Record{{"Campaign": "Dove Men Fresh"}},
	}
}

func status(s domain.SessionStatus) Patch { return Patch{}.WithStatus(s) }

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("create and get", func(t *testing.T) {
				st := open(t)
				require.NoError(t, st.Create(ctx, newSession("s1")))

				got, err := st.Get(ctx, "s1")
				require.NoError(t, err)
				assert.Equal(t, domain.SessionUploaded, got.Status)
				assert.Equal(t, "Dove Men Fresh", got.Records[0]["Campaign"])
				assert.NotNil(t, got.ValidationIssues)
				assert.NotNil(t, got.ImportErrors)
				assert.False(t, got.CreatedAt.IsZero())

				assert.ErrorIs(t, st.Create(ctx, newSession("s1")), ErrExists)
			})

			t.Run("missing", func(t *testing.T) {
				st := open(t)
				_, err := st.Get(ctx, "nope")
				assert.ErrorIs(t, err, ErrNotFound)
				_, err = st.Update(ctx, "nope", status(domain.SessionValidated))
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("lifecycle", func(t *testing.T) {
				st := open(t)
				require.NoError(t, st.Create(ctx, newSession("s2")))

				_, err := st.Update(ctx, "s2", status(domain.SessionImporting))
				require.ErrorIs(t, err, ErrInvalidTransition)

				summary := domain.ValidationSummary{Total: 1, Warning: 1, UniqueRows: 1}
				issues := []domain.ValidationIssue{{RowIndex: 0, ColumnName: "Range", Severity: domain.SeverityWarning}}
				got, err := st.Update(ctx, "s2", Patch{ValidationIssues: &issues, ValidationSummary: &summary}.WithStatus(domain.SessionValidated))
				require.NoError(t, err)
				assert.Equal(t, summary, got.ValidationSummary)

				_, err = st.Update(ctx, "s2", status(domain.SessionValidated))
				require.NoError(t, err, "re-validation is allowed")

				_, err = st.Update(ctx, "s2", Patch{ImportProgress: &domain.ImportProgress{Percentage: 0, Stage: domain.StageStarting}}.WithStatus(domain.SessionImporting))
				require.NoError(t, err)
				_, err = st.Update(ctx, "s2", Progress(domain.ImportProgress{Current: 5, Total: 10, Percentage: 75, Stage: domain.StageCommit}))
				require.NoError(t, err)
				got, err = st.Update(ctx, "s2", Progress(domain.ImportProgress{Current: 2, Total: 10, Percentage: 10, Stage: domain.StageCommit}))
				require.NoError(t, err)
				assert.Equal(t, 75, got.ImportProgress.Percentage, "progress never goes backwards")

				results := domain.ImportResults{GamePlansCount: 1, SuccessfulRows: []int{0}, FailedRows: []int{}}
				got, err = st.Update(ctx, "s2", Patch{ImportResults: &results}.WithStatus(domain.SessionImported))
				require.NoError(t, err)
				assert.Equal(t, domain.SessionImported, got.Status)

				_, err = st.Update(ctx, "s2", status(domain.SessionImporting))
				assert.ErrorIs(t, err, ErrInvalidTransition)

				got, err = st.Get(ctx, "s2")
				require.NoError(t, err)
				require.NotNil(t, got.ImportResults)
				assert.Equal(t, []int{0}, got.ImportResults.SuccessfulRows)
			})

			t.Run("failed", func(t *testing.T) {
				st := open(t)
				require.NoError(t, st.Create(ctx, newSession("s3")))
				got, err := st.Update(ctx, "s3", Failed(errors.New("store unreachable")))
				require.NoError(t, err)
				assert.Equal(t, domain.SessionError, got.Status)
				assert.Equal(t, "store unreachable", got.Error)
			})
		})
	}
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	st := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 2*time.Hour, 10*time.Minute)

	require.NoError(t, st.Create(ctx, newSession("s1")))
	assert.Equal(t, 2*time.Hour, mr.TTL("import_session:s1"))

	_, err := st.Update(ctx, "s1", Failed(errors.New("boom")))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, mr.TTL("import_session:s1"))

	mr.FastForward(11 * time.Minute)
	_, err = st.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreCorruptDocument(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("import_session:bad", "{not json"))
	st := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0, 0)

	_, err := st.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDynamoStoreVersioningAndExpiry(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	st := NewDynamoStore(fake, "import_sessions", time.Hour, time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	require.NoError(t, st.Create(ctx, newSession("s1")))
	_, err := st.Update(ctx, "s1", status(domain.SessionValidated))
	require.NoError(t, err)
	assert.Equal(t, "2", fake.items["s1"]["version"].(*types.AttributeValueMemberN).Value)
	assert.Equal(t, 2, fake.puts)

	now = now.Add(2 * time.Hour)
	_, err = st.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

// countTransitions replaces the transition metric with a counter for the
// duration of the test.
func countTransitions(t *testing.T) map[string]int {
	t.Helper()
	counts := make(map[string]int)
	var mu sync.Mutex
	prev := recordTransition
	recordTransition = func(status string) {
		mu.Lock()
		defer mu.Unlock()
		counts[status]++
	}
	t.Cleanup(func() { recordTransition = prev })
	return counts
}

func TestTransitionsCountedAfterCommit(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			counts := countTransitions(t)
			st := open(t)

			require.NoError(t, st.Create(ctx, newSession("s1")))
			assert.ErrorIs(t, st.Create(ctx, newSession("s1")), ErrExists)
			assert.Equal(t, map[string]int{"uploaded": 1}, counts)

			_, err := st.Update(ctx, "s1", status(domain.SessionImported))
			require.ErrorIs(t, err, ErrInvalidTransition)
			_, err = st.Update(ctx, "s1", Progress(domain.ImportProgress{Percentage: 10}))
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"uploaded": 1}, counts)

			_, err = st.Update(ctx, "s1", status(domain.SessionValidated))
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"uploaded": 1, "validated": 1}, counts)
		})
	}
}

func TestDynamoStoreRetriedUpdateCountsOnce(t *testing.T) {
	counts := countTransitions(t)
	ctx := context.Background()
	fake := newFakeDynamo()
	st := NewDynamoStore(fake, "import_sessions", 0, 0)

	require.NoError(t, st.Create(ctx, newSession("s1")))
	fake.conflicts = 2
	got, err := st.Update(ctx, "s1", status(domain.SessionValidated))
	require.NoError(t, err)
	assert.Equal(t, domain.SessionValidated, got.Status)
	assert.Equal(t, 2, fake.puts)
	assert.Equal(t, 1, counts["validated"])

	fake.conflicts = maxUpdateRetries
	_, err = st.Update(ctx, "s1", status(domain.SessionImporting))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contention")
	assert.Zero(t, counts["importing"])
}

func TestDynamoStoreRejectsOversizedSession(t *testing.T) {
	counts := countTransitions(t)
	ctx := context.Background()
	fake := newFakeDynamo()
	st := NewDynamoStore(fake, "import_sessions", 0, 0)

	big := newSession("big")
	big.Records = []domain.Record{{"Campaign": strings.Repeat("x", maxItemBytes)}}
	err := st.Create(ctx, big)
	require.ErrorIs(t, err, ErrTooLarge)
	assert.Zero(t, fake.puts)
	assert.Empty(t, counts)

	require.NoError(t, st.Create(ctx, newSession("s1")))
	issues := make([]domain.ValidationIssue, 4000)
	for i := range issues {
		issues[i] = domain.ValidationIssue{RowIndex: i, ColumnName: "Campaign", Severity: domain.SeverityWarning,
			Message: strings.Repeat("m", 100)}
	}
	_, err = st.Update(ctx, "s1", Patch{ValidationIssues: &issues}.WithStatus(domain.SessionValidated))
	require.ErrorIs(t, err, ErrTooLarge)

	got, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionUploaded, got.Status)
	assert.Empty(t, got.ValidationIssues)
}
