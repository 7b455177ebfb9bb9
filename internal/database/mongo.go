package database

import (
	"context"
	"errors"
	"fmt"
	"guestlist/entity"
	"guestlist/internal/config"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionGuests = "guests"
)

type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) (*MongoDB, error) {
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	if err := client.createIndexes(context.Background()); err != nil {
		return nil, err
	}
	return client, nil
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(context.Background())
}

func (m *MongoDB) guests(connection *mongo.Client) *mongo.Collection {
	return connection.Database(m.database).Collection(collectionGuests)
}

func (m *MongoDB) createIndexes(ctx context.Context) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	_, err = m.guests(connection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("mongodb create indexes: %w", err)
	}
	return nil
}

func (m *MongoDB) CreateGuest(ctx context.Context, guest *entity.Guest) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	_, err = m.guests(connection).InsertOne(ctx, guest)
	if err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}
	return nil
}

func (m *MongoDB) ListGuests(ctx context.Context) ([]*entity.Guest, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.guests(connection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	defer cursor.Close(ctx)

	guests := make([]*entity.Guest, 0)
	if err = cursor.All(ctx, &guests); err != nil {
		return nil, fmt.Errorf("mongodb decode: %w", err)
	}
	return guests, nil
}

func (m *MongoDB) GetGuest(ctx context.Context, id string) (*entity.Guest, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	var guest entity.Guest
	err = m.guests(connection).FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&guest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	return &guest, nil
}

func (m *MongoDB) SetGuestStatus(ctx context.Context, id string, status entity.GuestStatus) (bool, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return false, err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "id", Value: id}, {Key: "status", Value: entity.StatusPending}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: status}}}}
	res, err := m.guests(connection).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("mongodb update status: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// MarkGuestUsed relies on single-document atomicity of UpdateOne: the filter
// matches only while is_used is false, so one caller wins a race.
func (m *MongoDB) MarkGuestUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return false, err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "id", Value: id}, {Key: "status", Value: entity.StatusApproved}, {Key: "is_used", Value: false}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "is_used", Value: true},
		{Key: "used_at", Value: usedAt},
	}}}
	res, err := m.guests(connection).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("mongodb mark used: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (m *MongoDB) DeleteAllGuests(ctx context.Context) (int64, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer m.disconnect(connection)

	res, err := m.guests(connection).DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongodb delete: %w", err)
	}
	return res.DeletedCount, nil
}
