package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/filter"
	"github.com/99minutos/customer-api/internal/core/ports"
)

const (
	customersCollection = "customers"
	countersCollection  = "counters"
	customerSequence    = "customer_id"

	emailIndex      = "customers_email_key"
	nationalIDIndex = "customers_national_id_key"
)

var _ ports.CustomerRepository = (*CustomerRepository)(nil)

// CustomerRepository implements ports.CustomerRepository using MongoDB.
// Numeric IDs are drawn from a sequence document in the counters collection.
type CustomerRepository struct {
	customers *mongo.Collection
	counters  *mongo.Collection
}

func NewCustomerRepository(db *mongo.Database) *CustomerRepository {
	return &CustomerRepository{
		customers: db.Collection(customersCollection),
		counters:  db.Collection(countersCollection),
	}
}

type mongoCustomer struct {
	ID           int64     `bson:"_id"`
	Name         string    `bson:"name"`
	NationalID   string    `bson:"national_id"`
	Email        string    `bson:"email"`
	BirthDate    time.Time `bson:"birth_date"`
	Phone        string    `bson:"phone"`
	PasswordHash string    `bson:"password_hash"`
	Role         int       `bson:"role"`
}

// EnsureIndexes creates the unique indexes backing the email and national ID
// constraints. It is safe to call on every startup.
func (r *CustomerRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.customers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(emailIndex),
		},
		{
			Keys:    bson.D{{Key: "national_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(nationalIDIndex),
		},
	})
	if err != nil {
		return fmt.Errorf("create customer indexes: %w", err)
	}
	return nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := toDocument(c)
	doc.ID = id
	if _, err := r.customers.InsertOne(ctx, doc); err != nil {
		if dup := duplicateKey(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("insert customer: %w", err)
	}

	created := *c
	created.ID = id
	return &created, nil
}

func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	update := bson.M{"$set": bson.M{
		"name":          c.Name,
		"email":         c.Email,
		"birth_date":    c.BirthDate.UTC(),
		"phone":         c.Phone,
		"password_hash": c.PasswordHash,
		"role":          c.Role.Code(),
	}}

	res, err := r.customers.UpdateByID(ctx, c.ID, update)
	if err != nil {
		if dup := duplicateKey(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, &domain.NotFoundError{ID: c.ID}
	}

	updated := *c
	return &updated, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.customers.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if res.DeletedCount == 0 {
		return &domain.NotFoundError{ID: id}
	}
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := r.findOne(ctx, bson.M{"_id": id})
	if errors.Is(err, domain.ErrCustomerNotFound) {
		return nil, &domain.NotFoundError{ID: id}
	}
	return c, err
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *CustomerRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, bson.M{"_id": id})
}

func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

func (r *CustomerRepository) ExistsByNationalID(ctx context.Context, nationalID string) (bool, error) {
	return r.exists(ctx, bson.M{"national_id": nationalID})
}

func (r *CustomerRepository) Find(ctx context.Context, pred filter.Predicate, page ports.Page) ([]*domain.Customer, int64, error) {
	query := toBSON(pred)

	total, err := r.customers.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Size))

	cursor, err := r.customers.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find customers: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoCustomer
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode customers: %w", err)
	}

	out := make([]*domain.Customer, 0, len(docs))
	for _, d := range docs {
		c, err := d.toDomain()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, nil
}

func (r *CustomerRepository) nextID(ctx context.Context) (int64, error) {
	var seq struct {
		Value int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": customerSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&seq)
	if err != nil {
		return 0, fmt.Errorf("next customer id: %w", err)
	}
	return seq.Value, nil
}

func (r *CustomerRepository) findOne(ctx context.Context, query bson.M) (*domain.Customer, error) {
	var doc mongoCustomer
	if err := r.customers.FindOne(ctx, query).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return doc.toDomain()
}

func (r *CustomerRepository) exists(ctx context.Context, query bson.M) (bool, error) {
	n, err := r.customers.CountDocuments(ctx, query, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count customers: %w", err)
	}
	return n > 0, nil
}

func toDocument(c *domain.Customer) mongoCustomer {
	return mongoCustomer{
		ID:           c.ID,
		Name:         c.Name,
		NationalID:   c.NationalID,
		Email:        c.Email,
		BirthDate:    c.BirthDate.UTC(),
		Phone:        c.Phone,
		PasswordHash: c.PasswordHash,
		Role:         c.Role.Code(),
	}
}

func (d mongoCustomer) toDomain() (*domain.Customer, error) {
	role, err := domain.RoleFromCode(d.Role)
	if err != nil {
		return nil, fmt.Errorf("customer %d: %w", d.ID, err)
	}
	return &domain.Customer{
		ID:           d.ID,
		Name:         d.Name,
		NationalID:   d.NationalID,
		Email:        d.Email,
		BirthDate:    d.BirthDate.UTC(),
		Phone:        d.Phone,
		PasswordHash: d.PasswordHash,
		Role:         role,
	}, nil
}

// toBSON renders a predicate as a query document. Tautologies contribute
// nothing, so an empty predicate selects the whole collection. A field that
// is constrained more than once keeps its first clause inline and moves the
// rest under $and.
func toBSON(pred filter.Predicate) bson.M {
	query := bson.M{}
	var repeated bson.A
	for _, cond := range pred.Conditions() {
		var clause any
		switch cond.Op {
		case filter.OpEqual:
			clause = cond.Value
		case filter.OpContainsFold:
			s, _ := cond.Value.(string)
			clause = bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
		default:
			continue
		}
		field := string(cond.Field)
		if _, taken := query[field]; taken {
			repeated = append(repeated, bson.M{field: clause})
			continue
		}
		query[field] = clause
	}
	if len(repeated) > 0 {
		query["$and"] = repeated
	}
	return query
}

// duplicateKey maps a unique index violation to the matching business error.
func duplicateKey(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	switch msg := err.Error(); {
	case strings.Contains(msg, nationalIDIndex):
		return domain.ErrNationalIDExists
	case strings.Contains(msg, emailIndex):
		return domain.ErrEmailExists
	default:
		return fmt.Errorf("%w: %v", domain.ErrBusinessRule, err)
	}
}
