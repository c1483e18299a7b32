package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
)

// PostgresStore keeps conversations in one table with the turns as JSONB.
type PostgresStore struct {
	pool   *pgxpool.Pool
	now    func() time.Time
	logger *slog.Logger
}

const conversationColumns = `id, user_id, name, messages, created_at, updated_at`

// NewPostgresStore connects to PostgreSQL. The schema is managed by Migrate.
func NewPostgresStore(ctx context.Context, log *slog.Logger, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{
		pool:   pool,
		now:    time.Now,
		logger: log.With(slog.String("service", "postgres_store")),
	}, nil
}

func (s *PostgresStore) Create(ctx context.Context, conv conversation.Conversation) (conversation.Conversation, error) {
	conv = newConversationRecord(conv, s.now())
	messages, err := encodeTurns(conv.Messages)
	if err != nil {
		return conversation.Conversation{}, err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO conversations (`+conversationColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		conv.ID, conv.UserID, conv.Name, messages, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return conv, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID, conversationID string) (conversation.Conversation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id=$1 AND user_id=$2`,
		conversationID, userID,
	)
	return scanConversation(row, "get conversation")
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]conversation.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE user_id=$1 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := make([]conversation.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows, "scan conversation")
		if err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Save(ctx context.Context, conv conversation.Conversation) (conversation.Conversation, error) {
	messages, err := encodeTurns(conv.Messages)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = s.now().UTC()
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE conversations SET name=$3, messages=$4, updated_at=$5
		WHERE id=$1 AND user_id=$2
		RETURNING `+conversationColumns,
		conv.ID, conv.UserID, conv.Name, messages, conv.UpdatedAt,
	)
	return scanConversation(row, "save conversation")
}

func (s *PostgresStore) Rename(ctx context.Context, userID, conversationID, name string) (conversation.Conversation, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE conversations SET name=$3, updated_at=$4
		WHERE id=$1 AND user_id=$2
		RETURNING `+conversationColumns,
		conversationID, userID, name, s.now().UTC(),
	)
	return scanConversation(row, "rename conversation")
}

func (s *PostgresStore) Delete(ctx context.Context, userID, conversationID string) (conversation.Conversation, error) {
	row := s.pool.QueryRow(ctx,
		`DELETE FROM conversations WHERE id=$1 AND user_id=$2 RETURNING `+conversationColumns,
		conversationID, userID,
	)
	return scanConversation(row, "delete conversation")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func scanConversation(row pgx.Row, op string) (conversation.Conversation, error) {
	var (
		conv     conversation.Conversation
		messages []byte
	)
	err := row.Scan(&conv.ID, &conv.UserID, &conv.Name, &messages, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return conversation.Conversation{}, conversation.ErrConversationNotFound
	}
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("%s: %w", op, err)
	}
	conv.Messages, err = decodeTurns(messages)
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("%s: %w", op, err)
	}
	conv.CreatedAt = conv.CreatedAt.UTC()
	conv.UpdatedAt = conv.UpdatedAt.UTC()
	return conv, nil
}

// encodeTurns renders turns for the JSONB column. Content is normalized so
// an empty string never reaches storage.
func encodeTurns(turns []conversation.Turn) ([]byte, error) {
	out := make([]conversation.Turn, len(turns))
	for i, t := range turns {
		t.Content = conversation.NormalizeText(t.Content)
		out[i] = t
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	return data, nil
}

// decodeTurns parses the JSONB column. Legacy part-list content is
// flattened by Turn.UnmarshalJSON.
func decodeTurns(data []byte) ([]conversation.Turn, error) {
	turns := make([]conversation.Turn, 0)
	if len(data) == 0 {
		return turns, nil
	}
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return turns, nil
}
