package models

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidID             = errors.New("invalid id")
	ErrNotFound              = errors.New("document not found")
	ErrDuplicateRegistration = errors.New("duplicate registration")
	ErrEmptyUpdate           = errors.New("empty update")
	ErrInvalidField          = errors.New("invalid field")
)

// Owner is the user embedded in a marathon at creation time.
type Owner struct {
	Email string `bson:"email" json:"email"`
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
	Photo string `bson:"photo,omitempty" json:"photo,omitempty"`
}

// Marathon is one event listing. Dates are kept as the strings clients send;
// fields not declared here survive round trips through Extra.
type Marathon struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Title                 string             `bson:"title" json:"title" binding:"required"`
	StartRegistrationDate string             `bson:"startRegistrationDate,omitempty" json:"startRegistrationDate,omitempty"`
	EndRegistrationDate   string             `bson:"endRegistrationDate,omitempty" json:"endRegistrationDate,omitempty"`
	MarathonStartDate     string             `bson:"marathonStartDate,omitempty" json:"marathonStartDate,omitempty"`
	Location              string             `bson:"location,omitempty" json:"location,omitempty"`
	RunningDistance       string             `bson:"runningDistance,omitempty" json:"runningDistance,omitempty"`
	Description           string             `bson:"description,omitempty" json:"description,omitempty"`
	Image                 string             `bson:"image,omitempty" json:"image,omitempty"`
	RegistrationCount     int64              `bson:"registrationCount" json:"registrationCount"`
	User                  Owner              `bson:"user" json:"user"`
	CreatedAt             string             `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	Extra                 bson.M             `bson:",inline" json:"-"`
}

// Registration is a participant's application, keyed by (email, marathonTitle).
type Registration struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Email             string             `bson:"email" json:"email" binding:"required,email"`
	MarathonTitle     string             `bson:"marathonTitle" json:"marathonTitle" binding:"required"`
	MarathonID        string             `bson:"marathonId,omitempty" json:"marathonId,omitempty"`
	MarathonStartDate string             `bson:"marathonStartDate,omitempty" json:"marathonStartDate,omitempty"`
	FirstName         string             `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName          string             `bson:"lastName,omitempty" json:"lastName,omitempty"`
	ContactNumber     string             `bson:"contactNumber,omitempty" json:"contactNumber,omitempty"`
	AdditionalInfo    string             `bson:"additionalInfo,omitempty" json:"additionalInfo,omitempty"`
	Extra             bson.M             `bson:",inline" json:"-"`
}

type InsertResult struct {
	Acknowledged bool `json:"acknowledged"`
	InsertedID   any  `json:"insertedId"`
}

type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
	UpsertedCount int64 `json:"upsertedCount"`
	UpsertedID    any   `json:"upsertedId"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

type UpdateOutcome int

const (
	OutcomeNotFound UpdateOutcome = iota
	OutcomeNoChange
	OutcomeUpdated
	OutcomeCreated
)

// Outcome classifies an upsert: nothing matched and nothing was inserted is
// NotFound, an insert is Created, a match without modification is NoChange.
func (r UpdateResult) Outcome() UpdateOutcome {
	switch {
	case r.UpsertedCount > 0:
		return OutcomeCreated
	case r.MatchedCount == 0:
		return OutcomeNotFound
	case r.ModifiedCount == 0:
		return OutcomeNoChange
	default:
		return OutcomeUpdated
	}
}

type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder maps unrecognized values to SortNone.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case SortAsc:
		return SortAsc
	case SortDesc:
		return SortDesc
	default:
		return SortNone
	}
}

// ===== Marathons =====
type MarathonRepository interface {
	// List returns every marathon, or only the first limit when limit > 0.
	List(ctx context.Context, limit int64) ([]Marathon, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]Marathon, error)
	GetByID(ctx context.Context, id string) (Marathon, error)
	ListByOwner(ctx context.Context, email string, order SortOrder) ([]Marathon, error)
	Create(ctx context.Context, m *Marathon) (InsertResult, error)
	// Upsert returns ErrInvalidField when a declared field has the wrong
	// type, and ErrEmptyUpdate when nothing settable is left.
	Upsert(ctx context.Context, id string, fields bson.M, upsert bool) (UpdateResult, error)
	IncrementRegistrations(ctx context.Context, id string) (UpdateResult, error)
	Delete(ctx context.Context, id string) (DeleteResult, error)
}

// ===== Registrations =====
type RegistrationRepository interface {
	// ListByEmail filters by a case-insensitive substring of marathonTitle
	// when search is not empty.
	ListByEmail(ctx context.Context, email, search string) ([]Registration, error)
	// Create returns ErrDuplicateRegistration when (email, marathonTitle) exists.
	Create(ctx context.Context, r *Registration) (InsertResult, error)
	Upsert(ctx context.Context, id string, fields bson.M, upsert bool) (UpdateResult, error)
	Delete(ctx context.Context, id string) (DeleteResult, error)
}
