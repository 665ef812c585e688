package portal

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/annel0/mmo-portals/internal/vec"
	"github.com/annel0/mmo-portals/internal/world"
	"github.com/annel0/mmo-portals/internal/world/block"
)

// MongoConfig contains connection settings for the MongoDB portal repository.
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. portals
	Collection string // e.g. portals
}

// MongoRepo implements Repo on a MongoDB backend.
type MongoRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration
}

type portalDoc struct {
	Name          string  `bson:"name"`
	World         string  `bson:"world"`
	MinX          int     `bson:"min_x"`
	MinY          int     `bson:"min_y"`
	MinZ          int     `bson:"min_z"`
	MaxX          int     `bson:"max_x"`
	MaxY          int     `bson:"max_y"`
	MaxZ          int     `bson:"max_z"`
	FrameMaterial uint16  `bson:"frame_material"`
	Price         float64 `bson:"price"`
	Currency      string  `bson:"currency"`
	DestName      string  `bson:"dest_name"`
	DestWorld     string  `bson:"dest_world"`
	DestX         int     `bson:"dest_x"`
	DestY         int     `bson:"dest_y"`
	DestZ         int     `bson:"dest_z"`
	DestSafe      bool    `bson:"dest_safe"`
}

// NewMongoRepo establishes connection and returns the repository.
func NewMongoRepo(cfg MongoConfig) (*MongoRepo, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "portals"
	}
	if cfg.Collection == "" {
		cfg.Collection = "portals"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	repo := &MongoRepo{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ctxTimeout: 5 * time.Second,
	}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (m *MongoRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	nameIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("name_unique"),
	}
	worldIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "world", Value: 1}},
		Options: options.Index().SetName("world_lookup"),
	}
	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{nameIdx, worldIdx})
	return err
}

// LoadAll implements Repo.
func (m *MongoRepo) LoadAll(ctx context.Context) ([]Definition, error) {
	cursor, err := m.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Definition
	for cursor.Next(ctx) {
		var doc portalDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode: %w", err)
		}
		out = append(out, doc.toDefinition())
	}
	return out, cursor.Err()
}

// Save implements Repo (upsert by name).
func (m *MongoRepo) Save(ctx context.Context, def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("недействительное имя портала")
	}

	doc := portalDoc{
		Name:          def.Name,
		World:         def.Region.World,
		MinX:          def.Region.Min.X,
		MinY:          def.Region.Min.Y,
		MinZ:          def.Region.Min.Z,
		MaxX:          def.Region.Max.X,
		MaxY:          def.Region.Max.Y,
		MaxZ:          def.Region.Max.Z,
		FrameMaterial: uint16(def.FrameMaterial),
		Price:         def.Price,
		Currency:      def.Currency,
		DestName:      def.Destination.Name,
		DestWorld:     def.Destination.Loc.World,
		DestX:         def.Destination.Loc.Pos.X,
		DestY:         def.Destination.Loc.Pos.Y,
		DestZ:         def.Destination.Loc.Pos.Z,
		DestSafe:      def.Destination.Safe,
	}

	opts := options.Replace().SetUpsert(true)
	_, err := m.collection.ReplaceOne(ctx, bson.M{"name": def.Name}, doc, opts)
	if err != nil {
		return fmt.Errorf("mongo save '%s': %w", def.Name, err)
	}
	return nil
}

// Delete implements Repo.
func (m *MongoRepo) Delete(ctx context.Context, name string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return fmt.Errorf("mongo delete '%s': %w", name, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("портал '%s' не найден", name)
	}
	return nil
}

// Close disconnects the client.
func (m *MongoRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (d portalDoc) toDefinition() Definition {
	return Definition{
		Name: d.Name,
		Region: Region{
			World: d.World,
			Min:   vec.Vec3{X: d.MinX, Y: d.MinY, Z: d.MinZ},
			Max:   vec.Vec3{X: d.MaxX, Y: d.MaxY, Z: d.MaxZ},
		},
		FrameMaterial: block.MaterialID(d.FrameMaterial),
		Price:         d.Price,
		Currency:      d.Currency,
		Destination: Destination{
			Name: d.DestName,
			Loc:  world.Location{World: d.DestWorld, Pos: vec.Vec3{X: d.DestX, Y: d.DestY, Z: d.DestZ}},
			Safe: d.DestSafe,
		},
	}
}
