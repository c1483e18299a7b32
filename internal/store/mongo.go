package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
)

const chatsCollection = "chats"

// MongoStore keeps one document per conversation in the chats collection.
type MongoStore struct {
	client *mongo.Client
	chats  *mongo.Collection
	now    func() time.Time
	logger *slog.Logger
}

type chatDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	Name      string    `bson:"name"`
	Messages  []turnDoc `bson:"messages"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// turnDoc keeps content raw so records written with a part list still load.
type turnDoc struct {
	Role      string        `bson:"role"`
	Content   bson.RawValue `bson:"content"`
	Timestamp int64         `bson:"timestamp"`
	Files     []fileDoc     `bson:"files,omitempty"`
}

type fileDoc struct {
	Name                 string    `bson:"name"`
	Type                 string    `bson:"type"`
	Size                 int64     `bson:"size"`
	RemoteURL            string    `bson:"remoteUrl"`
	RemoteDeletionHandle string    `bson:"remoteDeletionHandle"`
	UploadedAt           time.Time `bson:"uploadedAt"`
}

// NewMongoStore connects to MongoDB and ensures the chats indexes.
func NewMongoStore(ctx context.Context, log *slog.Logger, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	s := &MongoStore{
		client: client,
		chats:  client.Database(database).Collection(chatsCollection),
		now:    time.Now,
		logger: log.With(slog.String("service", "mongo_store")),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.chats.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "updatedAt", Value: -1}}},
		{Keys: bson.D{{Key: "_id", Value: 1}, {Key: "userId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create chats indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, conv conversation.Conversation) (conversation.Conversation, error) {
	conv = newConversationRecord(conv, s.now())
	if _, err := s.chats.InsertOne(ctx, toChatDoc(conv)); err != nil {
		return conversation.Conversation{}, fmt.Errorf("insert chat: %w", err)
	}
	return conv, nil
}

func (s *MongoStore) Get(ctx context.Context, userID, conversationID string) (conversation.Conversation, error) {
	var doc chatDoc
	err := s.chats.FindOne(ctx, ownerFilter(userID, conversationID)).Decode(&doc)
	if err != nil {
		return conversation.Conversation{}, notFound(err, "find chat")
	}
	return fromChatDoc(doc), nil
}

func (s *MongoStore) List(ctx context.Context, userID string) ([]conversation.Conversation, error) {
	cursor, err := s.chats.Find(ctx, bson.D{{Key: "userId", Value: userID}},
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	var docs []chatDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode chats: %w", err)
	}
	out := make([]conversation.Conversation, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromChatDoc(doc))
	}
	return out, nil
}

func (s *MongoStore) Save(ctx context.Context, conv conversation.Conversation) (conversation.Conversation, error) {
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = s.now().UTC()
	}
	doc := toChatDoc(conv)
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: doc.Name},
		{Key: "messages", Value: doc.Messages},
		{Key: "updatedAt", Value: doc.UpdatedAt},
	}}}
	return s.findOneAndUpdate(ctx, conv.UserID, conv.ID, update)
}

func (s *MongoStore) Rename(ctx context.Context, userID, conversationID, name string) (conversation.Conversation, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: name},
		{Key: "updatedAt", Value: s.now().UTC()},
	}}}
	return s.findOneAndUpdate(ctx, userID, conversationID, update)
}

func (s *MongoStore) Delete(ctx context.Context, userID, conversationID string) (conversation.Conversation, error) {
	var doc chatDoc
	err := s.chats.FindOneAndDelete(ctx, ownerFilter(userID, conversationID)).Decode(&doc)
	if err != nil {
		return conversation.Conversation{}, notFound(err, "delete chat")
	}
	return fromChatDoc(doc), nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) findOneAndUpdate(ctx context.Context, userID, conversationID string, update bson.D) (conversation.Conversation, error) {
	var doc chatDoc
	err := s.chats.FindOneAndUpdate(ctx, ownerFilter(userID, conversationID), update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		return conversation.Conversation{}, notFound(err, "update chat")
	}
	return fromChatDoc(doc), nil
}

func ownerFilter(userID, conversationID string) bson.D {
	return bson.D{{Key: "_id", Value: conversationID}, {Key: "userId", Value: userID}}
}

func notFound(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return conversation.ErrConversationNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toChatDoc(conv conversation.Conversation) chatDoc {
	turns := make([]turnDoc, 0, len(conv.Messages))
	for _, t := range conv.Messages {
		turns = append(turns, toTurnDoc(t))
	}
	return chatDoc{
		ID:        conv.ID,
		UserID:    conv.UserID,
		Name:      conv.Name,
		Messages:  turns,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
}

func toTurnDoc(t conversation.Turn) turnDoc {
	typ, data, err := bson.MarshalValue(conversation.NormalizeText(t.Content))
	content := bson.RawValue{Type: typ, Value: data}
	if err != nil {
		content = bson.RawValue{}
	}
	files := make([]fileDoc, 0, len(t.Files))
	for _, f := range t.Files {
		files = append(files, fileDoc(f))
	}
	return turnDoc{Role: t.Role, Content: content, Timestamp: t.Timestamp, Files: files}
}

func fromChatDoc(doc chatDoc) conversation.Conversation {
	turns := make([]conversation.Turn, 0, len(doc.Messages))
	for _, t := range doc.Messages {
		turns = append(turns, fromTurnDoc(t))
	}
	return conversation.Conversation{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Name:      doc.Name,
		Messages:  turns,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}
}

func fromTurnDoc(doc turnDoc) conversation.Turn {
	var files []conversation.FileRef
	for _, f := range doc.Files {
		files = append(files, conversation.FileRef(f))
	}
	return conversation.Turn{
		Role:      doc.Role,
		Content:   decodeContent(doc.Content),
		Timestamp: doc.Timestamp,
		Files:     files,
	}
}

// decodeContent flattens a stored content value into its display string.
func decodeContent(raw bson.RawValue) string {
	switch raw.Type {
	case 0, bson.TypeNull, bson.TypeUndefined:
		return conversation.PlaceholderEmptyMessage
	case bson.TypeString:
		return conversation.NormalizeText(raw.StringValue())
	case bson.TypeArray:
		var parts []conversation.Part
		if err := raw.Unmarshal(&parts); err != nil {
			return conversation.PlaceholderInvalidContent
		}
		return conversation.FlattenParts(parts)
	default:
		return conversation.PlaceholderInvalidContent
	}
}
