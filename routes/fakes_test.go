package routes

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"raceconnect/models"
)

var errStoreDown = errors.New("store down")

// applySet mimics $set on a stored document: doc goes through BSON, the
// fields are merged, and the result must decode back into T just as a read
// from the store would.
func applySet[T any](doc T, set bson.M) (T, bool, error) {
	var before, after T
	raw, err := bson.Marshal(doc)
	if err != nil {
		return after, false, err
	}
	if err := bson.Unmarshal(raw, &before); err != nil {
		return after, false, err
	}
	var stored bson.M
	if err := bson.Unmarshal(raw, &stored); err != nil {
		return after, false, err
	}
	for k, v := range set {
		stored[k] = v
	}
	if raw, err = bson.Marshal(stored); err != nil {
		return after, false, err
	}
	if err := bson.Unmarshal(raw, &after); err != nil {
		return after, false, err
	}
	return after, !reflect.DeepEqual(before, after), nil
}

// fakeMarathons is an in-memory MarathonRepository. Setting Err makes every
// call fail with it.
type fakeMarathons struct {
	mu    sync.Mutex
	Items map[primitive.ObjectID]models.Marathon
	Order []primitive.ObjectID
	Err   error
}

func newFakeMarathons() *fakeMarathons {
	return &fakeMarathons{Items: map[primitive.ObjectID]models.Marathon{}}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, models.ErrInvalidID
	}
	return oid, nil
}

func (f *fakeMarathons) add(m models.Marathon) models.Marathon {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	f.Items[m.ID] = m
	f.Order = append(f.Order, m.ID)
	return m
}

func (f *fakeMarathons) all() []models.Marathon {
	out := []models.Marathon{}
	for _, id := range f.Order {
		if m, ok := f.Items[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeMarathons) List(_ context.Context, limit int64) ([]models.Marathon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := f.all()
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMarathons) ListUpcoming(_ context.Context, now time.Time) ([]models.Marathon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := []models.Marathon{}
	for _, m := range f.all() {
		end, err := time.Parse(time.RFC3339, m.EndRegistrationDate)
		if err == nil && !end.Before(now) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMarathons) GetByID(_ context.Context, id string) (models.Marathon, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.Marathon{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.Marathon{}, f.Err
	}
	m, ok := f.Items[oid]
	if !ok {
		return models.Marathon{}, models.ErrNotFound
	}
	return m, nil
}

func (f *fakeMarathons) ListByOwner(_ context.Context, email string, order models.SortOrder) ([]models.Marathon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := []models.Marathon{}
	for _, m := range f.all() {
		if m.User.Email == email {
			out = append(out, m)
		}
	}
	switch order {
	case models.SortAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	case models.SortDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	}
	return out, nil
}

func (f *fakeMarathons) Create(_ context.Context, m *models.Marathon) (models.InsertResult, error) {
	if f.Err != nil {
		return models.InsertResult{}, f.Err
	}
	*m = f.add(*m)
	return models.InsertResult{Acknowledged: true, InsertedID: m.ID}, nil
}

func (f *fakeMarathons) Upsert(_ context.Context, id string, fields bson.M, upsert bool) (models.UpdateResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.UpdateResult{}, err
	}
	update, err := models.MarathonUpdate(fields)
	if err != nil {
		return models.UpdateResult{}, err
	}
	set := update["$set"].(bson.M)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.UpdateResult{}, f.Err
	}

	m, ok := f.Items[oid]
	if !ok {
		if !upsert {
			return models.UpdateResult{Acknowledged: true}, nil
		}
		created, _, err := applySet(models.Marathon{ID: oid}, set)
		if err != nil {
			return models.UpdateResult{}, err
		}
		f.Items[oid] = created
		f.Order = append(f.Order, oid)
		return models.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: oid}, nil
	}

	updated, changed, err := applySet(m, set)
	if err != nil {
		return models.UpdateResult{}, err
	}
	if !changed {
		return models.UpdateResult{Acknowledged: true, MatchedCount: 1}, nil
	}
	f.Items[oid] = updated
	return models.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeMarathons) IncrementRegistrations(_ context.Context, id string) (models.UpdateResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.UpdateResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.UpdateResult{}, f.Err
	}
	m, ok := f.Items[oid]
	if !ok {
		return models.UpdateResult{Acknowledged: true}, nil
	}
	m.RegistrationCount++
	f.Items[oid] = m
	return models.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeMarathons) Delete(_ context.Context, id string) (models.DeleteResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.DeleteResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.DeleteResult{}, f.Err
	}
	if _, ok := f.Items[oid]; !ok {
		return models.DeleteResult{Acknowledged: true}, nil
	}
	delete(f.Items, oid)
	return models.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

// fakeRegistrations enforces (email, marathonTitle) uniqueness like the
// unique index does.
type fakeRegistrations struct {
	mu    sync.Mutex
	Items map[primitive.ObjectID]models.Registration
	Err   error
}

func newFakeRegistrations() *fakeRegistrations {
	return &fakeRegistrations{Items: map[primitive.ObjectID]models.Registration{}}
}

func (f *fakeRegistrations) ListByEmail(_ context.Context, email, search string) ([]models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := []models.Registration{}
	for _, r := range f.Items {
		if r.Email != email {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(r.MarathonTitle), strings.ToLower(search)) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarathonTitle < out[j].MarathonTitle })
	return out, nil
}

func (f *fakeRegistrations) Create(_ context.Context, r *models.Registration) (models.InsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.InsertResult{}, f.Err
	}
	for _, existing := range f.Items {
		if existing.Email == r.Email && existing.MarathonTitle == r.MarathonTitle {
			return models.InsertResult{}, models.ErrDuplicateRegistration
		}
	}
	r.ID = primitive.NewObjectID()
	f.Items[r.ID] = *r
	return models.InsertResult{Acknowledged: true, InsertedID: r.ID}, nil
}

func (f *fakeRegistrations) Upsert(_ context.Context, id string, fields bson.M, upsert bool) (models.UpdateResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.UpdateResult{}, err
	}
	update, err := models.RegistrationUpdate(fields)
	if err != nil {
		return models.UpdateResult{}, err
	}
	set := update["$set"].(bson.M)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.UpdateResult{}, f.Err
	}

	r, ok := f.Items[oid]
	if !ok {
		if !upsert {
			return models.UpdateResult{Acknowledged: true}, nil
		}
		created, _, err := applySet(models.Registration{ID: oid}, set)
		if err != nil {
			return models.UpdateResult{}, err
		}
		f.Items[oid] = created
		return models.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: oid}, nil
	}

	updated, changed, err := applySet(r, set)
	if err != nil {
		return models.UpdateResult{}, err
	}
	if !changed {
		return models.UpdateResult{Acknowledged: true, MatchedCount: 1}, nil
	}
	f.Items[oid] = updated
	return models.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeRegistrations) Delete(_ context.Context, id string) (models.DeleteResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.DeleteResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return models.DeleteResult{}, f.Err
	}
	if _, ok := f.Items[oid]; !ok {
		return models.DeleteResult{Acknowledged: true}, nil
	}
	delete(f.Items, oid)
	return models.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}
