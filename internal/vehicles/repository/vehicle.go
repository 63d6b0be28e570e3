package repository

import (
	"context"
	"errors"
	"fmt"
	vehicleserrors "motorpool/internal/vehicles/errors"
	"motorpool/pkg/config"
	mongotx "motorpool/pkg/db/mongo"
	"motorpool/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Vehicles"
)

type mongoVehicleRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	FindByID(ctx context.Context, id string) (*model.Vehicle, error)
	FindAll(ctx context.Context, status model.VehicleStatus, limit int, offset int64) ([]*model.Vehicle, error)
	Count(ctx context.Context, status model.VehicleStatus) (int64, error)
	Claim(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, from, to model.VehicleStatus) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoVehicleRepository(cfg *config.Config) VehicleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVehicleRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context
// unchanged with a no-op cancel function, as we cannot wrap SessionContext
// without breaking transaction semantics.
func (r *mongoVehicleRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoVehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, vehicle)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return vehicleserrors.ErrDuplicatePlate
		}
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	return nil
}

func (r *mongoVehicleRepository) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var vehicle model.Vehicle
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, vehicleserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}

	return &vehicle, nil
}

func (r *mongoVehicleRepository) FindAll(ctx context.Context, status model.VehicleStatus, limit int, offset int64) ([]*model.Vehicle, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "plate_number", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicles: %w", err)
	}
	defer cursor.Close(ctx)

	var vehicles []*model.Vehicle
	if err = cursor.All(ctx, &vehicles); err != nil {
		return nil, fmt.Errorf("failed to decode vehicles: %w", err)
	}

	return vehicles, nil
}

func (r *mongoVehicleRepository) Count(ctx context.Context, status model.VehicleStatus) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	return count, nil
}

// Claim flips an available vehicle to unavailable. The conditional update is
// the single mutual-exclusion point: of any number of concurrent claims on
// the same vehicle, exactly one matches the {status: available} filter. On
// no match the document is fetched once to classify the refusal.
func (r *mongoVehicleRepository) Claim(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "status": model.VehicleAvailable}
	update := bson.M{"$set": bson.M{
		"status":     model.VehicleUnavailable,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to claim vehicle: %w", err)
	}

	if result.MatchedCount == 0 {
		return r.classifyClaimFailure(ctx, id)
	}

	return nil
}

// classifyClaimFailure distinguishes why a conditional claim matched nothing.
func (r *mongoVehicleRepository) classifyClaimFailure(ctx context.Context, id string) error {
	var vehicle model.Vehicle
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return vehicleserrors.ErrNotFound
		}
		return fmt.Errorf("failed to inspect vehicle after claim refusal: %w", err)
	}

	if vehicle.Status == model.VehicleMaintenance {
		return vehicleserrors.ErrInMaintenance
	}

	return vehicleserrors.ErrUnavailable
}

// Release flips a claimed vehicle back to available.
func (r *mongoVehicleRepository) Release(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "status": model.VehicleUnavailable}
	update := bson.M{"$set": bson.M{
		"status":     model.VehicleAvailable,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release vehicle: %w", err)
	}

	if result.MatchedCount == 0 {
		return r.classifyReleaseFailure(ctx, id)
	}

	return nil
}

func (r *mongoVehicleRepository) classifyReleaseFailure(ctx context.Context, id string) error {
	var vehicle model.Vehicle
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return vehicleserrors.ErrNotFound
		}
		return fmt.Errorf("failed to inspect vehicle after release refusal: %w", err)
	}

	return vehicleserrors.ErrNotClaimed
}

// SetStatus transitions a vehicle between explicit states, used by the fleet
// service for maintenance moves. The from-state filter keeps the transition
// conditional the same way Claim is.
func (r *mongoVehicleRepository) SetStatus(ctx context.Context, id string, from, to model.VehicleStatus) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{
		"status":     to,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update vehicle status: %w", err)
	}

	if result.MatchedCount == 0 {
		return r.classifyClaimFailure(ctx, id)
	}

	return nil
}

func (r *mongoVehicleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
