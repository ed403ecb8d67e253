package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
)

// ClientRepository implements ports.ClientRepository.
type ClientRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

// NewClientRepository creates a ClientRepository on the clients collection.
func NewClientRepository(db *mongo.Database) *ClientRepository {
	return &ClientRepository{db: db, coll: db.Collection(clientsCollection)}
}

type clientDoc struct {
	ID              int64      `bson:"_id"`
	SellerID        int64      `bson:"seller_id"`
	Name            string     `bson:"name"`
	Phone           string     `bson:"phone"`
	Description     *string    `bson:"description"`
	WhatsAppMessage *string    `bson:"whatsapp_message"`
	ScheduledAt     *time.Time `bson:"scheduled_at"`
	Status          string     `bson:"status"`
	ConcludedAt     *time.Time `bson:"concluded_at"`
	CreatedAt       time.Time  `bson:"created_at"`
	SellerName      string     `bson:"seller_name,omitempty"`
}

func (d clientDoc) toDomain() domain.Client {
	return domain.Client{
		ID:              d.ID,
		SellerID:        d.SellerID,
		Name:            d.Name,
		Phone:           d.Phone,
		Description:     d.Description,
		WhatsAppMessage: d.WhatsAppMessage,
		ScheduledAt:     utcPtr(d.ScheduledAt),
		Status:          domain.ClientStatus(d.Status),
		ConcludedAt:     utcPtr(d.ConcludedAt),
		CreatedAt:       d.CreatedAt.UTC(),
		SellerName:      d.SellerName,
	}
}

func (r *ClientRepository) Create(ctx context.Context, in domain.NewClient, createdAt time.Time) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	sellers, err := r.db.Collection(usersCollection).CountDocuments(ctx, bson.M{"_id": in.SellerID})
	if err != nil {
		return nil, fmt.Errorf("check seller: %w", err)
	}
	if sellers == 0 {
		return nil, domain.ErrSellerNotFound
	}

	id, err := nextID(ctx, r.db, clientsCollection)
	if err != nil {
		return nil, err
	}
	doc := clientDoc{
		ID:              id,
		SellerID:        in.SellerID,
		Name:            in.Name,
		Phone:           in.Phone,
		Description:     in.Description,
		WhatsAppMessage: in.WhatsAppMessage,
		ScheduledAt:     utcPtr(in.ScheduledAt),
		Status:          string(domain.ClientPending),
		CreatedAt:       createdAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}
	c := doc.toDomain()
	return &c, nil
}

func (r *ClientRepository) FindByID(ctx context.Context, id int64) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc clientDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	c := doc.toDomain()
	return &c, nil
}

func (r *ClientRepository) ListBySeller(ctx context.Context, sellerID int64) ([]domain.Client, error) {
	return r.aggregate(ctx, listPipeline(bson.M{"seller_id": sellerID}, false))
}

func (r *ClientRepository) ListAllWithSeller(ctx context.Context) ([]domain.Client, error) {
	return r.aggregate(ctx, listPipeline(bson.M{}, true))
}

func (r *ClientRepository) Update(ctx context.Context, id int64, ch domain.ClientChanges, concludedAt *time.Time) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc clientDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": updateFields(ch, concludedAt)}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("update client: %w", err)
	}
	c := doc.toDomain()
	return &c, nil
}

func (r *ClientRepository) Delete(ctx context.Context, id int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc clientDoc
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrClientNotFound
		}
		return 0, fmt.Errorf("delete client: %w", err)
	}
	return doc.SellerID, nil
}

func (r *ClientRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate clients: %w", err)
	}
	var docs []clientDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode clients: %w", err)
	}

	clients := make([]domain.Client, len(docs))
	for i, d := range docs {
		clients[i] = d.toDomain()
	}
	return clients, nil
}

// listPipeline matches filter and orders scheduled clients by time with
// unscheduled ones last, newest first. withSeller joins the owner's name and
// drops clients whose owner no longer exists.
func listPipeline(filter bson.M, withSeller bool) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$addFields", Value: bson.M{
			"_unscheduled": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{"$scheduled_at", nil}}, nil}}, 1, 0,
			}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "_unscheduled", Value: 1},
			{Key: "scheduled_at", Value: 1},
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: -1},
		}}},
	}
	if withSeller {
		pipeline = append(pipeline,
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         usersCollection,
				"localField":   "seller_id",
				"foreignField": "_id",
				"as":           "_seller",
			}}},
			bson.D{{Key: "$unwind", Value: "$_seller"}},
			bson.D{{Key: "$addFields", Value: bson.M{"seller_name": "$_seller.name"}}},
		)
	}
	return append(pipeline, bson.D{{Key: "$project", Value: bson.M{"_unscheduled": 0, "_seller": 0}}})
}

// updateFields lists the $set fields. concluded_at is only written when a
// stamp is given so reopening leaves it in place.
func updateFields(ch domain.ClientChanges, concludedAt *time.Time) bson.M {
	set := bson.M{
		"name":             ch.Name,
		"phone":            ch.Phone,
		"description":      ch.Description,
		"whatsapp_message": ch.WhatsAppMessage,
		"scheduled_at":     utcPtr(ch.ScheduledAt),
		"status":           string(ch.Status),
	}
	if concludedAt != nil {
		set["concluded_at"] = concludedAt.UTC()
	}
	return set
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
