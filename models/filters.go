package models

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const sortKeyField = "createdAtDate"

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func idFilter(id string) (bson.M, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": oid}, nil
}

func ownerFilter(email string) bson.M {
	return bson.M{"user.email": email}
}

// ownerPipeline sorts on createdAt reinterpreted as a date. The converted
// value lives in a temporary field so documents keep their string timestamp.
// It returns nil for SortNone.
func ownerPipeline(email string, order SortOrder) mongo.Pipeline {
	var dir int
	switch order {
	case SortAsc:
		dir = 1
	case SortDesc:
		dir = -1
	default:
		return nil
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: ownerFilter(email)}},
		{{Key: "$addFields", Value: bson.M{sortKeyField: toDate("$createdAt")}}},
		{{Key: "$sort", Value: bson.D{{Key: sortKeyField, Value: dir}, {Key: "_id", Value: 1}}}},
		{{Key: "$project", Value: bson.M{sortKeyField: 0}}},
	}
}

// upcomingFilter matches marathons whose registration window closes at or
// after now. Unparsable or missing end dates never match.
func upcomingFilter(now time.Time) bson.M {
	return bson.M{"$expr": bson.M{"$gte": bson.A{toDate("$endRegistrationDate"), now}}}
}

func toDate(field string) bson.M {
	return bson.M{"$convert": bson.M{
		"input":   field,
		"to":      "date",
		"onError": nil,
		"onNull":  nil,
	}}
}

func registrationSearchFilter(email, search string) bson.M {
	filter := bson.M{"email": email}
	if search != "" {
		filter["marathonTitle"] = primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	}
	return filter
}

// MarathonUpdate builds the $set document for a marathon update. The
// registration counter only moves through IncrementRegistrations, so it is
// dropped along with _id.
func MarathonUpdate(fields bson.M) (bson.M, error) {
	return setUpdate(fields, &Marathon{}, "registrationCount")
}

func RegistrationUpdate(fields bson.M) (bson.M, error) {
	return setUpdate(fields, &Registration{})
}

// setUpdate builds a $set document from client fields. Declared fields must
// decode into shape, otherwise the stored document could no longer be read
// back. Operator and dotted keys are rejected for the same reason.
func setUpdate(fields bson.M, shape any, immutable ...string) (bson.M, error) {
	set := make(bson.M, len(fields))
	for k, v := range fields {
		if k == "_id" || slices.Contains(immutable, k) {
			continue
		}
		if k == "" || strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidField, k)
		}
		set[k] = v
	}
	if len(set) == 0 {
		return nil, ErrEmptyUpdate
	}

	raw, err := bson.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	if err := bson.Unmarshal(raw, shape); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	return bson.M{"$set": set}, nil
}

func insertedObjectID(res *mongo.InsertOneResult) primitive.ObjectID {
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid
	}
	return primitive.NilObjectID
}

// toUpdateResult is only called for successful writes, which the default
// write concern acknowledges.
func toUpdateResult(res *mongo.UpdateResult) UpdateResult {
	if res == nil {
		return UpdateResult{}
	}
	return UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}
}
