package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// changeEvent is the subset of a change stream document we read.
type changeEvent struct {
	NS struct {
		Coll string `bson:"coll"`
	} `bson:"ns"`
}

// Watch opens a database-level change stream filtered to collections and
// calls fn with the collection name of every write. Change streams need a
// replica set or sharded cluster.
func (b *Backend) Watch(ctx context.Context, collections []string, fn func(collection string)) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "ns.coll", Value: bson.D{{Key: "$in", Value: collections}}},
			{Key: "operationType", Value: bson.D{{Key: "$in", Value: bson.A{"insert", "update", "replace", "delete"}}}},
		}}},
	}

	cs, err := b.db.Watch(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("open change stream: %w", err)
	}
	defer cs.Close(context.Background())

	for cs.Next(ctx) {
		var ev changeEvent
		if err := cs.Decode(&ev); err != nil {
			return fmt.Errorf("decode change: %w", err)
		}
		fn(ev.NS.Coll)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return cs.Err()
}
