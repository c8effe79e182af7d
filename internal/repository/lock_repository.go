package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"media-tracker/internal/models"
)

const (
	lockedItemsCollection  = "locked_items"
	clearedItemsCollection = "cleared_items"
)

// LockRepository keeps active goals and the cleared-goal log in MongoDB.
type LockRepository struct {
	locked  *mongo.Collection
	cleared *mongo.Collection
}

// NewLockRepository creates a LockRepository on the given database.
func NewLockRepository(db *mongo.Database) *LockRepository {
	return &LockRepository{
		locked:  db.Collection(lockedItemsCollection),
		cleared: db.Collection(clearedItemsCollection),
	}
}

// EnsureIndexes creates the lookup indexes. Safe to call repeatedly.
func (r *LockRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.locked.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "key_parent", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "item_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create locked_items indexes: %w", err)
	}
	_, err = r.cleared.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "cleared_at", Value: -1}}},
		{
			Keys: bson.D{{Key: "lock_id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"lock_id": bson.M{"$gt": ""}}),
		},
	})
	if err != nil {
		return fmt.Errorf("create cleared_items indexes: %w", err)
	}
	return nil
}

// FindLock returns the owner's lock for keyParent.
func (r *LockRepository) FindLock(ctx context.Context, ownerID, keyParent string) (*models.LockedItem, error) {
	return r.findOne(ctx, bson.M{"owner_id": ownerID, "key_parent": keyParent})
}

// FindLockForItem returns the owner's lock keyed by, or targeting, itemID.
func (r *LockRepository) FindLockForItem(ctx context.Context, ownerID, itemID string) (*models.LockedItem, error) {
	return r.findOne(ctx, bson.M{
		"owner_id": ownerID,
		"$or":      bson.A{bson.M{"key_parent": itemID}, bson.M{"item_id": itemID}},
	})
}

// ListLocks returns the owner's active locks, newest first.
func (r *LockRepository) ListLocks(ctx context.Context, ownerID string) ([]models.LockedItem, error) {
	cur, err := r.locked.Find(ctx, bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find locked items: %w", err)
	}
	locks := make([]models.LockedItem, 0)
	if err := cur.All(ctx, &locks); err != nil {
		return nil, fmt.Errorf("decode locked items: %w", err)
	}
	return locks, nil
}

// InsertLock stores a new lock. A second lock for the same owner and key
// is a conflict.
func (r *LockRepository) InsertLock(ctx context.Context, lock *models.LockedItem) error {
	if _, err := r.locked.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert locked item: %w", err)
	}
	return nil
}

// IncrementProgress adds delta to the progress counters atomically and
// returns the updated lock.
func (r *LockRepository) IncrementProgress(ctx context.Context, ownerID, keyParent string, delta models.LockProgress) (*models.LockedItem, error) {
	return r.update(ctx, ownerID, keyParent, bson.M{
		"$inc": bson.M{
			"time_complete":     delta.Minutes,
			"pages_complete":    delta.Pages,
			"episodes_complete": delta.Episodes,
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
}

// RaiseProgress lifts each progress field to at least the given floor and
// returns the updated lock. Fields never decrease.
func (r *LockRepository) RaiseProgress(ctx context.Context, ownerID, keyParent string, floor models.LockProgress) (*models.LockedItem, error) {
	return r.update(ctx, ownerID, keyParent, bson.M{
		"$max": bson.M{
			"time_complete":     floor.Minutes,
			"pages_complete":    floor.Pages,
			"episodes_complete": floor.Episodes,
			"percent_complete":  floor.PercentComplete,
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
}

// DeleteLock removes the owner's lock with the given id. A lock re-created
// under the same key has a new id and is left alone.
func (r *LockRepository) DeleteLock(ctx context.Context, ownerID, lockID string) error {
	res, err := r.locked.DeleteOne(ctx, bson.M{"owner_id": ownerID, "_id": lockID})
	if err != nil {
		return fmt.Errorf("delete locked item: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertCleared appends to the cleared-goal log. A lock is recorded at most
// once; a second record for the same lock id is a conflict.
func (r *LockRepository) InsertCleared(ctx context.Context, item *models.ClearedItem) error {
	if _, err := r.cleared.InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert cleared item: %w", err)
	}
	return nil
}

// ListCleared returns the owner's cleared goals, newest first.
func (r *LockRepository) ListCleared(ctx context.Context, ownerID string) ([]models.ClearedItem, error) {
	cur, err := r.cleared.Find(ctx, bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "cleared_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find cleared items: %w", err)
	}
	items := make([]models.ClearedItem, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode cleared items: %w", err)
	}
	return items, nil
}

func (r *LockRepository) findOne(ctx context.Context, filter bson.M) (*models.LockedItem, error) {
	var lock models.LockedItem
	err := r.locked.FindOne(ctx, filter).Decode(&lock)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find locked item: %w", err)
	}
	return &lock, nil
}

func (r *LockRepository) update(ctx context.Context, ownerID, keyParent string, update bson.M) (*models.LockedItem, error) {
	var lock models.LockedItem
	err := r.locked.FindOneAndUpdate(ctx,
		bson.M{"owner_id": ownerID, "key_parent": keyParent},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&lock)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update locked item: %w", err)
	}
	return &lock, nil
}
