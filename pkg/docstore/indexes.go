package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// IndexModels are the indexes serving the search and ranking queries.
func IndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "content", Value: "text"}}},
		{Keys: bson.D{{Key: "retweetCount", Value: -1}}},
		{Keys: bson.D{{Key: "likeCount", Value: -1}}},
		{Keys: bson.D{{Key: "quoteCount", Value: -1}}},
		{Keys: bson.D{{Key: "user.followersCount", Value: -1}}},
		{Keys: bson.D{{Key: "user.username", Value: 1}}},
	}
}

// EnsureIndexes creates any missing index on coll.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) ([]string, error) {
	names, err := coll.Indexes().CreateMany(ctx, IndexModels())
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return names, nil
}
