package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stylelab/platform/internal/core/domain"
	"github.com/stylelab/platform/internal/core/ports"
)

const (
	collectionUsers    = "users"
	collectionCounters = "counters"
	userSequence       = "user_uid"
)

type UserRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		col:      db.Collection(collectionUsers),
		counters: db.Collection(collectionCounters),
	}
}

var _ ports.UserRepository = (*UserRepository)(nil)

type mongoSocialLogin struct {
	Name  string         `bson:"name"`
	Token string         `bson:"token,omitempty"`
	Meta  map[string]any `bson:"meta,omitempty"`
}

type mongoUser struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	UID                int64              `bson:"uid"`
	FirstName          string             `bson:"first_name"`
	LastName           string             `bson:"last_name"`
	Username           string             `bson:"username"`
	Email              string             `bson:"email"`
	Role               string             `bson:"role"`
	UserLevel          string             `bson:"user_level"`
	SocialLogins       []mongoSocialLogin `bson:"social_logins,omitempty"`
	IsVerified         bool               `bson:"is_verified"`
	IsFirstLogin       bool               `bson:"is_first_login"`
	ReferralCode       string             `bson:"referral_code"`
	ReferredCode       string             `bson:"referred_code,omitempty"`
	ProfileImage       string             `bson:"profile_image,omitempty"`
	PreferredStyles    []string           `bson:"preferred_styles"`
	ExperienceLevels   []string           `bson:"experience_levels"`
	PasswordHash       string             `bson:"password_hash,omitempty"`
	ResetPasswordToken string             `bson:"reset_password_token,omitempty"`
	VerificationToken  string             `bson:"verification_token,omitempty"`
	CreatedAt          time.Time          `bson:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at"`
}

func toMongoUser(u *domain.User) mongoUser {
	doc := mongoUser{
		UID:                u.UID,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Username:           u.Username,
		Email:              u.Email,
		Role:               string(u.Role),
		UserLevel:          string(u.UserLevel),
		IsVerified:         u.IsVerified,
		IsFirstLogin:       u.IsFirstLogin,
		ReferralCode:       u.ReferralCode,
		ReferredCode:       u.ReferredCode,
		ProfileImage:       u.ProfileImage,
		PreferredStyles:    nonNilStrings(u.PreferredStyles),
		ExperienceLevels:   nonNilStrings(u.ExperienceLevels),
		PasswordHash:       u.PasswordHash,
		ResetPasswordToken: u.ResetPasswordToken,
		VerificationToken:  u.VerificationToken,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
	for _, sl := range u.SocialLogins {
		doc.SocialLogins = append(doc.SocialLogins, mongoSocialLogin{Name: sl.Name, Token: sl.Token, Meta: sl.Meta})
	}
	return doc
}

func (d mongoUser) toDomain() *domain.User {
	u := &domain.User{
		ID:                 d.ID.Hex(),
		UID:                d.UID,
		FirstName:          d.FirstName,
		LastName:           d.LastName,
		Username:           d.Username,
		Email:              d.Email,
		Role:               domain.Role(d.Role),
		UserLevel:          domain.UserLevel(d.UserLevel),
		IsVerified:         d.IsVerified,
		IsFirstLogin:       d.IsFirstLogin,
		ReferralCode:       d.ReferralCode,
		ReferredCode:       d.ReferredCode,
		ProfileImage:       d.ProfileImage,
		PreferredStyles:    d.PreferredStyles,
		ExperienceLevels:   d.ExperienceLevels,
		PasswordHash:       d.PasswordHash,
		ResetPasswordToken: d.ResetPasswordToken,
		VerificationToken:  d.VerificationToken,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
	}
	for _, sl := range d.SocialLogins {
		u.SocialLogins = append(u.SocialLogins, domain.SocialLogin{Name: sl.Name, Token: sl.Token, Meta: sl.Meta})
	}
	return u
}

// Create validates and inserts a new user. A duplicate referral code is
// reported separately so the caller can retry with a fresh code.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	u := *user
	u.ApplyDefaults()
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	doc := toMongoUser(&u)
	doc.ID = primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, mapWriteError(err)
	}
	return doc.toDomain(), nil
}

// Update replaces the stored document for user.ID. CreatedAt and the
// referral attribution are preserved from the stored copy.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	u := *user
	u.ApplyDefaults()
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = time.Now().UTC()
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoUser(&u)
	set := bson.M{
		"first_name":        doc.FirstName,
		"last_name":         doc.LastName,
		"username":          doc.Username,
		"email":             doc.Email,
		"role":              doc.Role,
		"user_level":        doc.UserLevel,
		"social_logins":     doc.SocialLogins,
		"is_verified":       doc.IsVerified,
		"is_first_login":    doc.IsFirstLogin,
		"profile_image":     doc.ProfileImage,
		"preferred_styles":  doc.PreferredStyles,
		"experience_levels": doc.ExperienceLevels,
		"password_hash":     doc.PasswordHash,
		"updated_at":        doc.UpdatedAt,
	}
	unset := bson.M{}
	for field, value := range map[string]string{
		"reset_password_token": doc.ResetPasswordToken,
		"verification_token":   doc.VerificationToken,
	} {
		if value == "" {
			unset[field] = ""
		} else {
			set[field] = value
		}
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var out mongoUser
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, mapWriteError(err)
	}
	return out.toDomain(), nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoUser
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *UserRepository) FindByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"referral_code": code})
}

func (r *UserRepository) FindByResetToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"reset_password_token": token})
}

func (r *UserRepository) FindByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"verification_token": token})
}

// ListReferredBy returns users whose referred_code matches, oldest first.
func (r *UserRepository) ListReferredBy(ctx context.Context, referralCode string) ([]*domain.User, error) {
	if referralCode == "" {
		return []*domain.User{}, nil
	}
	return r.find(ctx, bson.M{"referred_code": referralCode}, options.Find().SetSort(bson.D{{Key: "uid", Value: 1}}))
}

// List returns a page of users ordered by uid and the total count matching filter.
func (r *UserRepository) List(ctx context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	q := bson.M{}
	if filter.Role != "" {
		q["role"] = string(filter.Role)
	}

	countCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	total, err := r.col.CountDocuments(countCtx, q)
	cancel()
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	skip, ok := pageOffset(filter.Page, filter.Limit, total)
	if !ok {
		return []*domain.User{}, total, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "uid", Value: 1}}).
		SetSkip(skip).
		SetLimit(int64(filter.Limit))
	users, err := r.find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// pageOffset returns the number of documents to skip for page. It reports
// false when the page starts past total.
func pageOffset(page, limit int, total int64) (int64, bool) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return 0, true
	}
	if int64(page-1) >= (total+int64(limit)-1)/int64(limit) {
		return 0, false
	}
	return int64(page-1) * int64(limit), true
}

func (r *UserRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]*domain.User, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

// NextUID atomically increments the user id counter.
func (r *UserRepository) NextUID(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": userSequence},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next uid: %w", err)
	}
	return counter.Seq, nil
}

// EnsureIndexes creates the unique and lookup indexes on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sparseUnique := options.Index().SetUnique(true).SetSparse(true)
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "referral_code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "uid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "referred_code", Value: 1}}},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "uid", Value: 1}}},
		{Keys: bson.D{{Key: "reset_password_token", Value: 1}}, Options: sparseUnique},
		{Keys: bson.D{{Key: "verification_token", Value: 1}}, Options: sparseUnique},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func mapWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), "referral_code") {
			return domain.ErrDuplicateReferral
		}
		return domain.ErrUserExists
	}
	return fmt.Errorf("write user: %w", err)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
