package testkit_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/pkg/response"
	"github.com/rainbowartistery/atelier/pkg/testkit"
)

func TestNewDBIsMigratedAndIsolated(t *testing.T) {
	a := testkit.NewDB(t)
	b := testkit.NewDB(t)

	assert.True(t, a.Migrator().HasTable(&models.Product{}))
	assert.True(t, a.Migrator().HasTable(&models.VerificationToken{}))

	assert.NoError(t, a.Create(&models.Announcement{Title: "Festive Launch", Message: "hi", Active: true}).Error)

	var n int64
	b.Model(&models.Announcement{}).Count(&n)
	assert.Zero(t, n, "databases must not share rows")
}

func TestDoAndEnvelope(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Created(w, map[string]string{"ct": r.Header.Get("Content-Type")})
	})

	res := testkit.Do(t, h, testkit.Request{Method: http.MethodPost, Path: "/x", JSON: map[string]int{"a": 1}})
	testkit.AssertStatus(t, http.StatusCreated, res)
	testkit.AssertJSONEqual(t, `{"status":201,"data":{"ct":"application/json"}}`, res.Body.Bytes())

	var data map[string]string
	res.Data(&data)
	assert.Equal(t, "application/json", data["ct"])
}
