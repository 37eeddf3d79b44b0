package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type scanInput struct {
	YourURL        string   `json:"your_url" validate:"required,weburl"`
	CompetitorURLs []string `json:"competitor_urls" validate:"required,min=1,max=5,dive,weburl"`
	Email          string   `json:"email" validate:"omitempty,mailaddr"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestToDetailsUsesJSONNamesAndIndexes(t *testing.T) {
	err := newValidator().Struct(scanInput{
		CompetitorURLs: []string{"b.com", ""},
		Email:          "nope",
	})
	d := ToDetails(err)
	assert.Equal(t, "is required", d["your_url"])
	assert.Equal(t, "must be a URL of at most 2048 characters", d["competitor_urls[1]"])
	assert.Equal(t, "must be a valid email", d["email"])
}

func TestToDetailsSliceBounds(t *testing.T) {
	err := newValidator().Struct(scanInput{YourURL: "a.com", CompetitorURLs: []string{"1", "2", "3", "4", "5", "6"}})
	assert.Equal(t, "must contain at most 5 items", ToDetails(err)["competitor_urls"])
}

func TestToDetailsInvalidJSON(t *testing.T) {
	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("EOF")))

	var v map[string]any
	err := json.Unmarshal([]byte(`{"a":}`), &v)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Nil(t, ToDetails(nil))
}
