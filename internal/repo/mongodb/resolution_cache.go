package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nguyentranbao-ct/feed-client/internal/usecase"
)

// ResolvedPair is one durable pair-key to conversation-id mapping. It
// survives restarts so a conversation resolved once never needs the strategy
// chain again on the same install.
type ResolvedPair struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PairKey        string             `bson:"pair_key" json:"pair_key"`
	ConversationID string             `bson:"conversation_id" json:"conversation_id"`
	ResolvedAt     time.Time          `bson:"resolved_at" json:"resolved_at"`
}

type resolutionCacheRepo struct {
	collection *mongo.Collection
}

func NewResolutionCache(db *DB) usecase.ResolutionCache {
	repo := &resolutionCacheRepo{
		collection: db.Database.Collection("resolved_pairs"),
	}

	go repo.createIndexes(context.Background())

	return repo
}

func (r *resolutionCacheRepo) createIndexes(ctx context.Context) {
	pairIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "pair_key", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName("pair_key_unique"),
	}
	r.collection.Indexes().CreateOne(ctx, pairIndex)
}

func (r *resolutionCacheRepo) Lookup(ctx context.Context, pairKey string) (string, error) {
	var pair ResolvedPair
	err := r.collection.FindOne(ctx, bson.M{"pair_key": pairKey}).Decode(&pair)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup resolved pair: %w", err)
	}
	return pair.ConversationID, nil
}

func (r *resolutionCacheRepo) Store(ctx context.Context, pairKey, conversationID string) error {
	update := bson.M{
		"$set": bson.M{
			"conversation_id": conversationID,
			"resolved_at":     time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"pair_key": pairKey}, update, opts); err != nil {
		return fmt.Errorf("store resolved pair: %w", err)
	}
	return nil
}
