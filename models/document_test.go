package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMarathonJSON_KeepsUnknownFields(t *testing.T) {
	body := `{"title":"City 10K","location":"Dhaka","user":{"email":"a@x.com"},"createdAt":"2025-01-02T03:04:05Z","sponsor":"ACME","tags":["road"]}`

	var m Marathon
	require.NoError(t, json.Unmarshal([]byte(body), &m))

	assert.Equal(t, "City 10K", m.Title)
	assert.Equal(t, "a@x.com", m.User.Email)
	assert.Equal(t, bson.M{"sponsor": "ACME", "tags": []any{"road"}}, m.Extra)

	out, err := json.Marshal(m)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "ACME", got["sponsor"])
	assert.Equal(t, "City 10K", got["title"])
	assert.EqualValues(t, 0, got["registrationCount"])
}

func TestMarathonJSON_ExtraDoesNotShadowKnownFields(t *testing.T) {
	m := Marathon{Title: "Real", Extra: bson.M{"title": "Shadow"}}

	out, err := json.Marshal(m)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "Real", got["title"])
}

func TestRegistrationJSON_RoundTrip(t *testing.T) {
	id := primitive.NewObjectID()
	r := Registration{
		ID:            id,
		Email:         "a@x.com",
		MarathonTitle: "5K Run",
		Extra:         bson.M{"tShirtSize": "M"},
	}

	out, err := json.Marshal(r)
	require.NoError(t, err)

	var back Registration
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, id, back.ID)
	assert.Equal(t, "5K Run", back.MarathonTitle)
	assert.Equal(t, bson.M{"tShirtSize": "M"}, back.Extra)
}

func TestRegistrationJSON_NoExtra(t *testing.T) {
	var r Registration
	require.NoError(t, json.Unmarshal([]byte(`{"email":"a@x.com","marathonTitle":"5K Run"}`), &r))
	assert.Nil(t, r.Extra)
}
