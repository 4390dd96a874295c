package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stylelab/platform/internal/core/domain"
)

const collectionSettings = "site_settings"

type SettingsRepository struct {
	col *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) *SettingsRepository {
	return &SettingsRepository{col: db.Collection(collectionSettings)}
}

type mongoSettings struct {
	Key              string    `bson:"_id"`
	RegistrationOpen bool      `bson:"registration_open"`
	DefaultUserLevel string    `bson:"default_user_level"`
	Styles           []string  `bson:"styles"`
	ExperienceLevels []string  `bson:"experience_levels"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func (r *SettingsRepository) Get(ctx context.Context) (*domain.SiteSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoSettings
	if err := r.col.FindOne(ctx, bson.M{"_id": domain.SiteSettingsKey}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("find settings: %w", err)
	}
	return &domain.SiteSettings{
		Key:              doc.Key,
		RegistrationOpen: doc.RegistrationOpen,
		DefaultUserLevel: domain.UserLevel(doc.DefaultUserLevel),
		Styles:           doc.Styles,
		ExperienceLevels: doc.ExperienceLevels,
		UpdatedAt:        doc.UpdatedAt.UTC(),
	}, nil
}

// EnsureDefaults upserts s with $setOnInsert, so an existing document is
// never modified.
func (r *SettingsRepository) EnsureDefaults(ctx context.Context, s domain.SiteSettings) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	key := s.Key
	if key == "" {
		key = domain.SiteSettingsKey
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$setOnInsert": bson.M{
			"registration_open":  s.RegistrationOpen,
			"default_user_level": string(s.DefaultUserLevel),
			"styles":             s.Styles,
			"experience_levels":  s.ExperienceLevels,
			"updated_at":         s.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("ensure settings: %w", err)
	}
	return res.UpsertedCount > 0, nil
}
