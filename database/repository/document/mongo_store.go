package documentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kvrdesk/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	documentID         = "booking_state"
	maxUpdateAttempts  = 5
	mongoOpTimeout     = 5 * time.Second
	collectionDocument = "documents"
)

// versionedDocument is the stored shape: the document plus an optimistic version counter.
type versionedDocument struct {
	ID              string `bson:"_id"`
	Version         int64  `bson:"version"`
	models.Document `bson:",inline"`
}

// MongoStore keeps the document as one MongoDB record and commits with compare-and-swap on version.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(collectionDocument)}
}

func (s *MongoStore) Load(ctx context.Context) (*models.Document, error) {
	vd, err := s.loadVersioned(ctx)
	if err != nil {
		return nil, err
	}
	doc := vd.Document
	return &doc, nil
}

func (s *MongoStore) Save(ctx context.Context, doc *models.Document) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	doc.Normalize()
	update := bson.M{
		"$set": bson.M{
			"appointments":          doc.Appointments,
			"bookings":              doc.Bookings,
			"pending_confirmations": doc.PendingConfirmations,
		},
		"$inc": bson.M{"version": 1},
	}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": documentID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, fn func(doc *models.Document) error) error {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		vd, err := s.loadVersioned(ctx)
		if err != nil {
			return err
		}
		if err := fn(&vd.Document); err != nil {
			if errors.Is(err, ErrNoChanges) {
				return nil
			}
			return err
		}

		committed, err := s.compareAndSwap(ctx, vd)
		if err != nil {
			return err
		}
		if committed {
			return nil
		}
		// Another writer won; retry against the new version.
		time.Sleep(time.Duration(attempt*20) * time.Millisecond)
	}
	return ErrConflict
}

func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()
	return s.coll.Database().Client().Ping(ctx, nil)
}

func (s *MongoStore) loadVersioned(ctx context.Context) (*versionedDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var vd versionedDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": documentID}).Decode(&vd)
	if errors.Is(err, mongo.ErrNoDocuments) {
		vd = versionedDocument{ID: documentID, Version: 0, Document: *models.NewDocument()}
		_, insertErr := s.coll.InsertOne(ctx, vd)
		switch {
		case insertErr == nil:
			return &vd, nil
		case mongo.IsDuplicateKeyError(insertErr):
			// Lost the first-run race; read what the winner wrote.
			if err := s.coll.FindOne(ctx, bson.M{"_id": documentID}).Decode(&vd); err != nil {
				return nil, fmt.Errorf("load document: %w", err)
			}
			vd.Document.Normalize()
			return &vd, nil
		default:
			return nil, fmt.Errorf("create initial document: %w", insertErr)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	vd.Document.Normalize()
	return &vd, nil
}

func (s *MongoStore) compareAndSwap(ctx context.Context, vd *versionedDocument) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	expected := vd.Version
	vd.Version++
	vd.Document.Normalize()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": documentID, "version": expected}, vd)
	if err != nil {
		return false, fmt.Errorf("commit document: %w", err)
	}
	return res.MatchedCount == 1, nil
}
