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

type paymentDocument struct {
	ID            string    `bson:"_id"`
	OrderID       string    `bson:"orderId"`
	UserID        string    `bson:"userId"`
	Provider      string    `bson:"provider"`
	Amount        float64   `bson:"amount"`
	Status        string    `bson:"status"`
	TransactionID string    `bson:"transactionId,omitempty"`
	ActiveOrderID string    `bson:"activeOrderId,omitempty"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

func (d paymentDocument) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:            d.ID,
		OrderID:       d.OrderID,
		UserID:        d.UserID,
		Provider:      d.Provider,
		Amount:        d.Amount,
		Status:        domain.PaymentStatus(d.Status),
		TransactionID: d.TransactionID,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

// MongoPaymentRepository relies on the partial unique index over activeOrderId.
type MongoPaymentRepository struct {
	coll *mongo.Collection
}

func NewMongoPaymentRepository(db *mongo.Database) *MongoPaymentRepository {
	return &MongoPaymentRepository{coll: db.Collection(mongodb.CollectionPayments)}
}

func (r *MongoPaymentRepository) Insert(ctx context.Context, p *domain.Payment) error {
	doc := paymentDocument{
		ID:            p.ID,
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		Provider:      p.Provider,
		Amount:        p.Amount,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt.UTC(),
		UpdatedAt:     p.UpdatedAt.UTC(),
	}
	if p.Status.IsActive() {
		doc.ActiveOrderID = p.OrderID
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.NewConflictError(fmt.Sprintf("order %s already has an active payment", p.OrderID))
		}
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

func (r *MongoPaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	var doc paymentDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("payment with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment by id: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoPaymentRepository) FindLatestByOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	var doc paymentDocument
	err := r.coll.FindOne(ctx, bson.M{"orderId": orderID}, opts).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no payment found for order %s", orderID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment by order: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoPaymentRepository) UpdateStatus(ctx context.Context, id string, from, to domain.PaymentStatus, transactionID string, at time.Time) (*domain.Payment, error) {
	set := bson.M{
		"status":    string(to),
		"updatedAt": at.UTC(),
	}
	if transactionID != "" {
		set["transactionId"] = transactionID
	}
	update := bson.M{"$set": set}
	if !to.IsActive() {
		update["$unset"] = bson.M{"activeOrderId": ""}
	}

	var doc paymentDocument
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(from)},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		current, findErr := r.FindByID(ctx, id)
		if findErr != nil {
			return nil, findErr
		}
		return nil, errors.NewConflictError(fmt.Sprintf("payment %s is %s, expected %s", id, current.Status, from))
	}
	if err != nil {
		return nil, fmt.Errorf("updating payment status: %w", err)
	}
	return doc.toDomain(), nil
}
