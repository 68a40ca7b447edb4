package scenario

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore MongoDB集合存储，文档_id为template_id
// 说明：模板先编码为JSON文档再转为BSON，与文件存储共用同一套编码
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore 创建集合存储
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func toBSON(t *Template) (bson.D, error) {
	doc, err := t.ToDocument()
	if err != nil {
		return nil, err
	}
	var d bson.D
	if err := bson.UnmarshalExtJSON(doc, false, &d); err != nil {
		return nil, fmt.Errorf("convert template %s: %w", t.ID, err)
	}
	return append(bson.D{{Key: "_id", Value: t.ID}}, d...), nil
}

func fromBSON(raw bson.Raw) (*Template, error) {
	doc, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("convert template document: %w", err)
	}
	return FromDocument(doc)
}

func (s *MongoStore) Load(ctx context.Context, id string) (*Template, error) {
	raw, err := s.coll.FindOne(ctx, bson.M{"_id": id}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return fromBSON(raw)
}

func (s *MongoStore) Save(ctx context.Context, t *Template, overwrite bool) error {
	d, err := toBSON(t)
	if err != nil {
		return err
	}
	if !overwrite {
		_, err = s.coll.InsertOne(ctx, d)
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrExists, t.ID)
		}
		return err
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, d, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *MongoStore) IDs(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

func (s *MongoStore) String() string {
	return fmt.Sprintf("mongodb:%s.%s", s.coll.Database().Name(), s.coll.Name())
}
