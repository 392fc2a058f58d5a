package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

func indexPlan() []collectionIndexes {
	return []collectionIndexes{
		{
			collection: CollectionMenuItems,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "canteenId", Value: 1}},
					Options: options.Index().SetName("canteenId_index"),
				},
			},
		},
		{
			collection: CollectionOrders,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
					Options: options.Index().SetName("userId_createdAt_index"),
				},
				{
					Keys:    bson.D{{Key: "canteenId", Value: 1}, {Key: "status", Value: 1}, {Key: "updatedAt", Value: -1}},
					Options: options.Index().SetName("canteenId_status_updatedAt_index"),
				},
			},
		},
		{
			collection: CollectionPayments,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "orderId", Value: 1}, {Key: "createdAt", Value: -1}},
					Options: options.Index().SetName("orderId_createdAt_index"),
				},
				{
					// activeOrderId is only present while the payment is PENDING or SUCCESS
					Keys: bson.D{{Key: "activeOrderId", Value: 1}},
					Options: options.Index().
						SetName("activeOrderId_unique").
						SetUnique(true).
						SetPartialFilterExpression(bson.M{
							"activeOrderId": bson.M{"$exists": true},
						}),
				},
			},
		},
	}
}

// EnsureIndexes creates the indexes every repository relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, plan := range indexPlan() {
		names, err := db.Collection(plan.collection).Indexes().CreateMany(ctx, plan.models)
		if err != nil {
			logger.Error("index creation failed", zap.String("collection", plan.collection), zap.Error(err))
			return fmt.Errorf("creating %s indexes: %w", plan.collection, err)
		}
		logger.Info("indexes ensured", zap.String("collection", plan.collection), zap.Strings("indexes", names))
	}

	return nil
}
