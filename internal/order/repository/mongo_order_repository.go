package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kms/internal/domain"
	"kms/internal/errors"
	"kms/internal/infrastructure/mongodb"
)

type orderItemDocument struct {
	MenuItemID string  `bson:"menuItemId"`
	Name       string  `bson:"name"`
	Price      float64 `bson:"price"`
	Quantity   int     `bson:"quantity"`
}

type orderDocument struct {
	ID                  string              `bson:"_id"`
	UserID              string              `bson:"userId"`
	CanteenID           string              `bson:"canteenId"`
	Items               []orderItemDocument `bson:"items"`
	TotalAmount         float64             `bson:"totalAmount"`
	IsBulkOrder         bool                `bson:"isBulkOrder"`
	Status              string              `bson:"status"`
	PickupCode          string              `bson:"pickupCode,omitempty"`
	PickupCodeUsed      bool                `bson:"pickupCodeUsed"`
	SpecialInstructions string              `bson:"specialInstructions"`
	CancelledBy         string              `bson:"cancelledBy,omitempty"`
	CreatedAt           time.Time           `bson:"createdAt"`
	UpdatedAt           time.Time           `bson:"updatedAt"`
}

func toOrderDocument(o *domain.Order) orderDocument {
	items := make([]orderItemDocument, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemDocument{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Price:      it.Price,
			Quantity:   it.Quantity,
		}
	}
	return orderDocument{
		ID:                  o.ID,
		UserID:              o.UserID,
		CanteenID:           o.CanteenID,
		Items:               items,
		TotalAmount:         o.TotalAmount,
		IsBulkOrder:         o.IsBulkOrder,
		Status:              string(o.Status),
		PickupCode:          o.PickupCode,
		PickupCodeUsed:      o.PickupCodeUsed,
		SpecialInstructions: o.SpecialInstructions,
		CancelledBy:         string(o.CancelledBy),
		CreatedAt:           o.CreatedAt.UTC(),
		UpdatedAt:           o.UpdatedAt.UTC(),
	}
}

func (d orderDocument) toDomain() domain.Order {
	items := make([]domain.OrderItem, len(d.Items))
	for i, it := range d.Items {
		items[i] = domain.OrderItem{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Price:      it.Price,
			Quantity:   it.Quantity,
		}
	}
	return domain.Order{
		ID:                  d.ID,
		UserID:              d.UserID,
		CanteenID:           d.CanteenID,
		Items:               items,
		TotalAmount:         d.TotalAmount,
		IsBulkOrder:         d.IsBulkOrder,
		Status:              domain.OrderStatus(d.Status),
		PickupCode:          d.PickupCode,
		PickupCodeUsed:      d.PickupCodeUsed,
		SpecialInstructions: d.SpecialInstructions,
		CancelledBy:         domain.CancelledBy(d.CancelledBy),
		CreatedAt:           d.CreatedAt.UTC(),
		UpdatedAt:           d.UpdatedAt.UTC(),
	}
}

// MongoOrderRepository stores each order with its items embedded in a single document.
type MongoOrderRepository struct {
	coll *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{coll: db.Collection(mongodb.CollectionOrders)}
}

func (r *MongoOrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if _, err := r.coll.InsertOne(ctx, toOrderDocument(order)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.NewConflictError(fmt.Sprintf("order %s already exists", order.ID))
		}
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	order := doc.toDomain()
	return &order, nil
}

func (r *MongoOrderRepository) FindByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *MongoOrderRepository) FindByCanteen(ctx context.Context, canteenID string, statuses []domain.OrderStatus) ([]domain.Order, error) {
	filter := bson.M{"canteenId": canteenID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statusStrings(statuses)}
	}
	return r.find(ctx, filter)
}

func (r *MongoOrderRepository) FindAll(ctx context.Context, statuses []domain.OrderStatus) ([]domain.Order, error) {
	filter := bson.M{}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statusStrings(statuses)}
	}
	return r.find(ctx, filter)
}

func (r *MongoOrderRepository) SumCompleted(ctx context.Context, canteenID string, from, to time.Time) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"canteenId": canteenID,
			"status":    string(domain.OrderStatusCompleted),
			"updatedAt": bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$totalAmount"},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("summing completed orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, fmt.Errorf("decoding completed sum: %w", err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}

// UpdateStatus is a single FindOneAndUpdate guarded on the expected status, so two racing
// writers cannot both succeed.
func (r *MongoOrderRepository) UpdateStatus(ctx context.Context, id string, from domain.OrderStatus, change domain.StatusChange) (*domain.Order, error) {
	filter := bson.M{"_id": id, "status": string(from)}
	if change.ConsumePickupCode {
		filter["pickupCodeUsed"] = false
	}

	set := bson.M{
		"status":    string(change.To),
		"updatedAt": change.At.UTC(),
	}
	if change.PickupCode != "" {
		set["pickupCode"] = change.PickupCode
	}
	if change.ConsumePickupCode {
		set["pickupCodeUsed"] = true
	}
	if change.CancelledBy != "" {
		set["cancelledBy"] = string(change.CancelledBy)
	}

	var doc orderDocument
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		current, findErr := r.FindByID(ctx, id)
		if findErr != nil {
			return nil, findErr
		}
		return nil, errors.NewConflictError(fmt.Sprintf("order %s is %s, expected %s", id, current.Status, from))
	}
	if err != nil {
		return nil, fmt.Errorf("updating order status: %w", err)
	}

	order := doc.toDomain()
	return &order, nil
}

func (r *MongoOrderRepository) find(ctx context.Context, filter bson.M) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		orders = append(orders, d.toDomain())
	}
	return orders, nil
}

func statusStrings(statuses []domain.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
