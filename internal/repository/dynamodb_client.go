package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"roi-slab-agent/internal/domain"
)

const (
	skPrefixTurn = "TURN#"
	skMeta       = "META#"
	ttlDuration  = 30 * 24 * time.Hour
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client writes the session transcript table. The table is an audit trail:
// nothing in the service reads it back into a live conversation.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a Client with the given DynamoDB API implementation and table.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

func sessionPK(sessionID string) string {
	return "SESSION#" + sessionID
}

func turnSK(ts time.Time) string {
	return skPrefixTurn + ts.UTC().Format(time.RFC3339Nano)
}

func (c *Client) ttlValue() int64 {
	return c.now().Add(ttlDuration).Unix()
}

// NewTurnRecord builds the record for turn number n of a session.
func (c *Client) NewTurnRecord(sessionID string, n int, userText, reply, model string, failed bool) domain.TurnRecord {
	return domain.TurnRecord{
		PK:        sessionPK(sessionID),
		SK:        turnSK(c.now()),
		SessionID: sessionID,
		Turn:      n,
		UserText:  userText,
		Reply:     reply,
		Failed:    failed,
		Model:     model,
		TTL:       c.ttlValue(),
	}
}

// NewSessionMeta builds the summary record of a session.
func (c *Client) NewSessionMeta(sessionID string, turns int) domain.SessionMeta {
	return domain.SessionMeta{
		PK:           sessionPK(sessionID),
		SK:           skMeta,
		SessionID:    sessionID,
		LastActivity: c.now().UTC().Format(time.RFC3339),
		Turns:        turns,
		TTL:          c.ttlValue(),
	}
}

// SaveTurn writes the turn and the refreshed session summary in one
// transaction.
func (c *Client) SaveTurn(ctx context.Context, rec domain.TurnRecord, meta domain.SessionMeta) error {
	if rec.PK == "" || rec.SK == "" {
		return errors.New("repository: SaveTurn: turn PK and SK are required")
	}
	if meta.PK == "" || meta.SK == "" {
		return errors.New("repository: SaveTurn: meta PK and SK are required")
	}

	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(c.tableName),
					Item:                turnItem(rec),
					ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(c.tableName),
					Item:      metaItem(meta),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: SaveTurn: %w", err)
	}
	return nil
}

// RecordTurn persists turn n of a session together with its summary.
func (c *Client) RecordTurn(ctx context.Context, sessionID string, n int, userText, reply, model string, failed bool) error {
	rec := c.NewTurnRecord(sessionID, n, userText, reply, model, failed)
	if err := c.SaveTurn(ctx, rec, c.NewSessionMeta(sessionID, n)); err != nil {
		return fmt.Errorf("repository: RecordTurn: %w", err)
	}
	return nil
}

// EndSession stamps the session summary with its end time.
func (c *Client) EndSession(ctx context.Context, sessionID string, turns int) error {
	meta := c.NewSessionMeta(sessionID, turns)
	meta.EndedAt = meta.LastActivity

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      metaItem(meta),
	})
	if err != nil {
		return fmt.Errorf("repository: EndSession: %w", err)
	}
	return nil
}

// ListTurns returns up to limit of the most recent turns, oldest first.
func (c *Client) ListTurns(ctx context.Context, sessionID string, limit int) ([]domain.TurnRecord, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: sessionPK(sessionID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixTurn},
		},
		// Newest first so the limit keeps the latest turns.
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: ListTurns query: %w", err)
	}

	turns := make([]domain.TurnRecord, 0, len(out.Items))
	for _, item := range out.Items {
		rec, err := itemToTurn(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListTurns unmarshal: %w", err)
		}
		turns = append(turns, rec)
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func itemToTurn(item map[string]types.AttributeValue) (domain.TurnRecord, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return domain.TurnRecord{}, err
	}
	sk, err := strAttr(item, "SK")
	if err != nil {
		return domain.TurnRecord{}, err
	}
	userText, err := strAttr(item, "userText")
	if err != nil {
		return domain.TurnRecord{}, err
	}
	reply, err := strAttr(item, "reply")
	if err != nil {
		return domain.TurnRecord{}, err
	}
	sessionID, err := strAttr(item, "sessionId")
	if err != nil {
		return domain.TurnRecord{}, err
	}
	model, err := strAttr(item, "model")
	if err != nil {
		return domain.TurnRecord{}, err
	}
	n, err := intAttr(item, "turn")
	if err != nil {
		return domain.TurnRecord{}, err
	}
	failed := false
	if v, ok := item["failed"].(*types.AttributeValueMemberBOOL); ok {
		failed = v.Value
	}

	return domain.TurnRecord{
		PK:        pk,
		SK:        sk,
		SessionID: sessionID,
		Turn:      n,
		UserText:  userText,
		Reply:     reply,
		Failed:    failed,
		Model:     model,
	}, nil
}

func turnItem(rec domain.TurnRecord) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: rec.PK},
		"SK":        &types.AttributeValueMemberS{Value: rec.SK},
		"sessionId": &types.AttributeValueMemberS{Value: rec.SessionID},
		"turn":      &types.AttributeValueMemberN{Value: strconv.Itoa(rec.Turn)},
		"userText":  &types.AttributeValueMemberS{Value: rec.UserText},
		"reply":     &types.AttributeValueMemberS{Value: rec.Reply},
		"failed":    &types.AttributeValueMemberBOOL{Value: rec.Failed},
		"model":     &types.AttributeValueMemberS{Value: rec.Model},
		"ttl":       &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.TTL, 10)},
	}
}

func metaItem(meta domain.SessionMeta) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: meta.PK},
		"SK":           &types.AttributeValueMemberS{Value: meta.SK},
		"sessionId":    &types.AttributeValueMemberS{Value: meta.SessionID},
		"lastActivity": &types.AttributeValueMemberS{Value: meta.LastActivity},
		"turns":        &types.AttributeValueMemberN{Value: strconv.Itoa(meta.Turns)},
		"ttl":          &types.AttributeValueMemberN{Value: strconv.FormatInt(meta.TTL, 10)},
	}
	if meta.EndedAt != "" {
		item["endedAt"] = &types.AttributeValueMemberS{Value: meta.EndedAt}
	}
	return item
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

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
