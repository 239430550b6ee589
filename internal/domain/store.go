package domain

import "context"

type Op int

const (
	OpEq Op = iota
	OpNe
	OpGte
	OpLte
	OpIn
	OpLike // case-insensitive substring
	OpHas  // array field contains the value
)

// Cond matches one dotted field path of a document ("author.authorId").
type Cond struct {
	Field string
	Op    Op
	Value any
}

type Filter []Cond

func Where(conds ...Cond) Filter { return Filter(conds) }

func (f Filter) And(conds ...Cond) Filter {
	out := make(Filter, 0, len(f)+len(conds))
	out = append(out, f...)
	return append(out, conds...)
}

func Eq(field string, v any) Cond { return Cond{Field: field, Op: OpEq, Value: v} }
func Ne(field string, v any) Cond { return Cond{Field: field, Op: OpNe, Value: v} }
func Gte(field string, v any) Cond { return Cond{Field: field, Op: OpGte, Value: v} }
func Lte(field string, v any) Cond { return Cond{Field: field, Op: OpLte, Value: v} }
func Like(field, sub string) Cond { return Cond{Field: field, Op: OpLike, Value: sub} }
func In(field string, vs ...any) Cond { return Cond{Field: field, Op: OpIn, Value: vs} }
func Has(field string, v any) Cond { return Cond{Field: field, Op: OpHas, Value: v} }

func InStrings(field string, vs []string) Cond {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return In(field, out...)
}

// Update replaces fields ($set) and appends missing array values ($addToSet).
type Update struct {
	Set      map[string]any
	AddToSet map[string][]any
}

func Set(kv map[string]any) Update { return Update{Set: kv} }

func AddToSet(field string, vs []string) Update {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return Update{AddToSet: map[string][]any{field: out}}
}

type PageQuery struct {
	Filter Filter
	Page   int // 1-based
	Limit  int // 0 = no limit
}

// Collection is the document accessor every store exposes per collection.
// Lookups that match nothing return an error matching ErrNotFound.
type Collection[T any] interface {
	CreateOne(ctx context.Context, doc *T) error
	CreateMany(ctx context.Context, docs []*T) error
	FindOne(ctx context.Context, f Filter) (*T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	FindMany(ctx context.Context, q PageQuery) ([]T, error)
	FindOneUpdate(ctx context.Context, f Filter, u Update) (*T, error)
	FindByIDUpdate(ctx context.Context, id string, u Update) (*T, error)
	UpdateMany(ctx context.Context, f Filter, u Update) (int64, error)
	DeleteMany(ctx context.Context, f Filter) (int64, error)
}

type Store interface {
	Hotels() Collection[Hotel]
	RoomTypes() Collection[RoomType]
	Reviews() Collection[Review]
	Memberships() Collection[Membership]
	Users() Collection[User]
	KeyStores() Collection[KeyStore]

	// WithTx runs fn against a transactional view of the store. Every write
	// made through tx is discarded when fn returns an error.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
