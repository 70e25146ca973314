package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nguyentranbao-ct/feed-client/internal/usecase"
)

const dedupRetention = 7 * 24 * time.Hour

// MergedEvent tracks realtime message ids already merged into the local
// cache, so redelivery across reconnects and restarts stays a no-op.
type MergedEvent struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID string             `bson:"conversation_id" json:"conversation_id"`
	MessageID      string             `bson:"message_id" json:"message_id"`
	MergedAt       time.Time          `bson:"merged_at" json:"merged_at"`
	ExpiresAt      time.Time          `bson:"expires_at" json:"expires_at"` // TTL index
}

type eventDedupRepo struct {
	collection *mongo.Collection
}

func NewEventDedup(db *DB) usecase.EventDedup {
	repo := &eventDedupRepo{
		collection: db.Database.Collection("merged_events"),
	}

	go repo.createIndexes(context.Background())

	return repo
}

func (r *eventDedupRepo) createIndexes(ctx context.Context) {
	// TTL index for automatic cleanup
	ttlIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().
			SetExpireAfterSeconds(0).
			SetName("expires_at_ttl"),
	}

	msgIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "conversation_id", Value: 1},
			{Key: "message_id", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetName("conversation_message_unique"),
	}

	r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{ttlIndex, msgIndex})
}

func (r *eventDedupRepo) Seen(ctx context.Context, conversationID, messageID string) (bool, error) {
	filter := bson.M{
		"conversation_id": conversationID,
		"message_id":      messageID,
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check merged event: %w", err)
	}
	return count > 0, nil
}

func (r *eventDedupRepo) Record(ctx context.Context, conversationID, messageID string) error {
	now := time.Now()
	event := MergedEvent{
		ConversationID: conversationID,
		MessageID:      messageID,
		MergedAt:       now,
		ExpiresAt:      now.Add(dedupRetention),
	}
	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("record merged event: %w", err)
	}
	return nil
}
