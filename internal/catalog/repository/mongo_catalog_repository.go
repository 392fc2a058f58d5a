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

type canteenDocument struct {
	ID                    string    `bson:"_id"`
	Name                  string    `bson:"name"`
	Location              string    `bson:"location"`
	IsOpen                bool      `bson:"isOpen"`
	IsOnlineOrdersEnabled bool      `bson:"isOnlineOrdersEnabled"`
	MaxBulkSize           int       `bson:"maxBulkSize"`
	CreatedAt             time.Time `bson:"createdAt"`
	UpdatedAt             time.Time `bson:"updatedAt"`
}

type menuItemDocument struct {
	ID          string    `bson:"_id"`
	CanteenID   string    `bson:"canteenId"`
	Name        string    `bson:"name"`
	Category    string    `bson:"category"`
	Price       float64   `bson:"price"`
	IsAvailable bool      `bson:"isAvailable"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

type MongoRepository struct {
	canteens  *mongo.Collection
	menuItems *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		canteens:  db.Collection(mongodb.CollectionCanteens),
		menuItems: db.Collection(mongodb.CollectionMenuItems),
	}
}

func (r *MongoRepository) FindCanteenByID(ctx context.Context, id string) (*domain.Canteen, error) {
	var doc canteenDocument
	err := r.canteens.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("canteen with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying canteen by id: %w", err)
	}

	return &domain.Canteen{
		ID:                    doc.ID,
		Name:                  doc.Name,
		Location:              doc.Location,
		IsOpen:                doc.IsOpen,
		IsOnlineOrdersEnabled: doc.IsOnlineOrdersEnabled,
		MaxBulkSize:           doc.MaxBulkSize,
		CreatedAt:             doc.CreatedAt.UTC(),
		UpdatedAt:             doc.UpdatedAt.UTC(),
	}, nil
}

func (r *MongoRepository) FindMenuItemsByIDs(ctx context.Context, ids []string) ([]domain.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := r.menuItems.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("querying menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []menuItemDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding menu items: %w", err)
	}

	items := make([]domain.MenuItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, domain.MenuItem{
			ID:          d.ID,
			CanteenID:   d.CanteenID,
			Name:        d.Name,
			Category:    d.Category,
			Price:       d.Price,
			IsAvailable: d.IsAvailable,
			CreatedAt:   d.CreatedAt.UTC(),
			UpdatedAt:   d.UpdatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *MongoRepository) SaveCanteen(ctx context.Context, c *domain.Canteen) error {
	doc := canteenDocument{
		ID:                    c.ID,
		Name:                  c.Name,
		Location:              c.Location,
		IsOpen:                c.IsOpen,
		IsOnlineOrdersEnabled: c.IsOnlineOrdersEnabled,
		MaxBulkSize:           c.MaxBulkSize,
		CreatedAt:             c.CreatedAt.UTC(),
		UpdatedAt:             c.UpdatedAt.UTC(),
	}
	_, err := r.canteens.ReplaceOne(ctx, bson.M{"_id": c.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving canteen %s: %w", c.ID, err)
	}
	return nil
}

func (r *MongoRepository) SaveMenuItem(ctx context.Context, m *domain.MenuItem) error {
	doc := menuItemDocument{
		ID:          m.ID,
		CanteenID:   m.CanteenID,
		Name:        m.Name,
		Category:    m.Category,
		Price:       m.Price,
		IsAvailable: m.IsAvailable,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
	_, err := r.menuItems.ReplaceOne(ctx, bson.M{"_id": m.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving menu item %s: %w", m.ID, err)
	}
	return nil
}
