package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ticketpay/config"
	"ticketpay/entity"
	"ticketpay/services"
)

const (
	collectionLog           = "payment_log"
	collectionPaymentOrders = "payment_orders"
)

type MongoDB struct {
	client           *mongo.Client
	database         string
	logRecordsNumber int64
}

func NewMongoClient(ctx context.Context, conf *config.Config) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	m := &MongoDB{
		client:           client,
		database:         conf.Mongo.Database,
		logRecordsNumber: conf.LogRecords,
	}
	if err = m.createIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) orders() *mongo.Collection {
	return m.client.Database(m.database).Collection(collectionPaymentOrders)
}

func (m *MongoDB) createIndexes(ctx context.Context) error {
	_, err := m.orders().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{"reference_id", 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{"status", 1}, {"expires_at", 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", storageError(err))
	}
	return nil
}

func (m *MongoDB) WriteLogMessage(ctx context.Context, data services.Data) error {
	collection := m.client.Database(m.database).Collection(collectionLog)
	if _, err := collection.InsertOne(ctx, data); err != nil {
		return storageError(err)
	}
	if m.logRecordsNumber > 0 {
		m.trimLog(ctx, collection)
	}
	return nil
}

// trimLog keeps the newest logRecordsNumber records of the log collection.
func (m *MongoDB) trimLog(ctx context.Context, collection *mongo.Collection) {
	count, err := collection.EstimatedDocumentCount(ctx)
	if err != nil || count <= m.logRecordsNumber {
		return
	}
	opt := options.FindOne().SetSort(bson.D{{"time", -1}}).SetSkip(m.logRecordsNumber)
	var oldest entity.LogMessage
	if err = collection.FindOne(ctx, bson.D{}, opt).Decode(&oldest); err != nil {
		return
	}
	_, _ = collection.DeleteMany(ctx, bson.D{{"time", bson.D{{"$lte", oldest.Time}}}})
}

func (m *MongoDB) CreateOrder(ctx context.Context, order *entity.PaymentOrder) error {
	if _, err := m.orders().InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("order %s already exists", order.ReferenceId)
		}
		return storageError(err)
	}
	return nil
}

func (m *MongoDB) GetOrder(ctx context.Context, referenceId string) (*entity.PaymentOrder, error) {
	filter := bson.D{{"reference_id", referenceId}}
	var order entity.PaymentOrder
	err := m.orders().FindOne(ctx, filter).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, services.ErrOrderNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}
	return &order, nil
}

func (m *MongoDB) MarkPending(ctx context.Context, referenceId string) error {
	return m.transition(ctx, referenceId, entity.StatusPending, nil)
}

func (m *MongoDB) MarkPaid(ctx context.Context, referenceId string, result *entity.PaymentResult) error {
	return m.transition(ctx, referenceId, entity.StatusPaid, result)
}

func (m *MongoDB) MarkFailed(ctx context.Context, referenceId string, result *entity.PaymentResult) error {
	return m.transition(ctx, referenceId, entity.StatusFailed, result)
}

func (m *MongoDB) MarkExpired(ctx context.Context, referenceId string, result *entity.PaymentResult) error {
	return m.transition(ctx, referenceId, entity.StatusExpired, result)
}

func (m *MongoDB) GetExpiredOrders(ctx context.Context, now time.Time, limit int) ([]*entity.PaymentOrder, error) {
	filter := bson.D{
		{"status", entity.StatusPending},
		{"expires_at", bson.D{{"$lt", now}}},
	}
	opt := options.Find().SetSort(bson.D{{"expires_at", 1}})
	if limit > 0 {
		opt.SetLimit(int64(limit))
	}
	cursor, err := m.orders().Find(ctx, filter, opt)
	if err != nil {
		return nil, storageError(err)
	}
	var orders []*entity.PaymentOrder
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, storageError(err)
	}
	return orders, nil
}

// transition updates the order only while it is in a state the target state
// may be reached from; the filter makes the update a compare-and-set.
func (m *MongoDB) transition(ctx context.Context, referenceId string, to entity.OrderStatus, result *entity.PaymentResult) error {
	filter := bson.D{
		{"reference_id", referenceId},
		{"status", bson.D{{"$in", entity.SourcesOf(to)}}},
	}
	set := bson.D{{"status", to}}
	if result != nil {
		set = append(set,
			bson.E{Key: "time_closed", Value: result.Time},
			bson.E{Key: "response_code", Value: result.ResponseCode},
			bson.E{Key: "transaction_no", Value: result.TransactionNo},
			bson.E{Key: "bank_code", Value: result.BankCode},
			bson.E{Key: "pay_date", Value: result.PayDate},
			bson.E{Key: "fail_reason", Value: result.Reason},
		)
	}
	res, err := m.orders().UpdateOne(ctx, filter, bson.D{{"$set", set}})
	if err != nil {
		return storageError(err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	order, err := m.GetOrder(ctx, referenceId)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s is %s", services.ErrOrderNotPending, referenceId, order.Status)
}

// storageError marks network and timeout failures as retryable.
func storageError(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", services.ErrStorageTransient, err)
	}
	return err
}
