package archive

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/railsim/pkg/errors"
	"github.com/matzehuels/railsim/pkg/pipeline"
)

// Collection is the MongoDB collection holding runs.
const Collection = "runs"

// Mongo archives runs in MongoDB, one document per run. The summary
// fields are top-level so they can be queried and indexed; the full
// result is kept as an encoded payload.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type document struct {
	Summary `bson:",inline"`
	Payload []byte `bson:"payload"`
}

// NewMongo connects to uri, pings the server and ensures the indexes
// used by List exist.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}

	m := &Mongo{client: client, coll: client.Database(database).Collection(Collection)}
	_, err = m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created", Value: -1}}},
		{Keys: bson.D{{Key: "scenario", Value: 1}, {Key: "created", Value: -1}}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "create indexes")
	}
	return m, nil
}

func (m *Mongo) Save(ctx context.Context, r *pipeline.Result) error {
	payload, err := pipeline.MarshalResult(r)
	if err != nil {
		return err
	}
	doc := document{Summary: Summarize(r), Payload: payload}
	_, err = m.coll.ReplaceOne(ctx, bson.M{"_id": r.RunID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "save run %s", r.RunID)
	}
	return nil
}

func (m *Mongo) Get(ctx context.Context, runID string) (*pipeline.Result, error) {
	var doc document
	err := m.coll.FindOne(ctx, bson.M{"_id": runID}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(runID)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "load run %s", runID)
	}
	return pipeline.UnmarshalResult(doc.Payload)
}

func (m *Mongo) List(ctx context.Context, q Query) ([]Summary, error) {
	filter := filterFor(q)
	opts := options.Find().
		SetSort(bson.D{{Key: "created", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(q.limit())).
		SetProjection(bson.M{"payload": 0})

	cur, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "list runs")
	}
	var out []Summary
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "decode runs")
	}
	return out, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}

func filterFor(q Query) bson.M {
	if q.Scenario == "" {
		return bson.M{}
	}
	return bson.M{"scenario": q.Scenario}
}

var _ Archive = (*Mongo)(nil)
