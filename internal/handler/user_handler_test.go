package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/survey-api/internal/dto"
	"github.com/noah-isme/survey-api/internal/models"
	appErrors "github.com/noah-isme/survey-api/pkg/errors"
)

type fakeUserService struct {
	filter    models.UserFilter
	signup    dto.SignupRequest
	signupErr error
	deleted   string
	taken     map[string]bool
}

func (f *fakeUserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	f.filter = filter
	return []models.User{{ID: "u1", Username: "alice"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, nil
}

func (f *fakeUserService) Get(ctx context.Context, id string) (*models.User, error) {
	if id != "u1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return &models.User{ID: id, Username: "alice"}, nil
}

func (f *fakeUserService) Signup(ctx context.Context, req dto.SignupRequest, meta models.Actor) (*models.User, error) {
	f.signup = req
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return &models.User{ID: "u9", Username: req.Username, Email: req.Email}, nil
}

func (f *fakeUserService) Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateUserRequest) (*models.User, error) {
	if !actor.Is(id) {
		return nil, appErrors.ErrForbidden
	}
	return &models.User{ID: id, FirstName: *req.FirstName}, nil
}

func (f *fakeUserService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if !actor.Is(id) {
		return appErrors.ErrForbidden
	}
	f.deleted = id
	return nil
}

func (f *fakeUserService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	return !f.taken[username], nil
}

func (f *fakeUserService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	return !f.taken[email], nil
}

func TestUserHandlerList(t *testing.T) {
	svc := &fakeUserService{}
	h := NewUserHandler(svc)

	c, rec := newContext(http.MethodGet, "/api/users?page=2&limit=5&search=ali", nil, "", nil)
	h.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, svc.filter.Page)
	assert.Equal(t, 5, svc.filter.PageSize)
	assert.Equal(t, "ali", svc.filter.Search)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, float64(1), env.Pagination["total_count"])
}

func TestUserHandlerGet(t *testing.T) {
	h := NewUserHandler(&fakeUserService{})

	c, rec := newContext(http.MethodGet, "/api/users/u1", nil, "u1", gin.Params{param("userId", "u1")})
	h.Get(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newContext(http.MethodGet, "/api/users/u2", nil, "u1", gin.Params{param("userId", "u2")})
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserHandlerSignup(t *testing.T) {
	svc := &fakeUserService{}
	h := NewUserHandler(svc)

	c, rec := newContext(http.MethodPost, "/api/users", dto.SignupRequest{Username: "bob", Email: "bob@example.com", Password: "secret1"}, "", nil)
	h.Signup(c)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "bob", svc.signup.Username)

	svc.signupErr = appErrors.Clone(appErrors.ErrConflict, "username already taken")
	c, rec = newContext(http.MethodPost, "/api/users", dto.SignupRequest{Username: "bob", Email: "bob@example.com", Password: "secret1"}, "", nil)
	h.Signup(c)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decodeEnvelope(t, rec).Error.Code)
}

func TestUserHandlerUpdateAndDelete(t *testing.T) {
	svc := &fakeUserService{}
	h := NewUserHandler(svc)
	first := "Bob"

	c, rec := newContext(http.MethodPut, "/api/users/u1", dto.UpdateUserRequest{FirstName: &first}, "u1", gin.Params{param("userId", "u1")})
	h.Update(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newContext(http.MethodDelete, "/api/users/u2", nil, "u1", gin.Params{param("userId", "u2")})
	h.Delete(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = newContext(http.MethodDelete, "/api/users/u1", nil, "u1", gin.Params{param("userId", "u1")})
	h.Delete(c)
	assert.Equal(t, http.StatusNoContent, statusOf(c, rec))
	assert.Equal(t, "u1", svc.deleted)
}

func TestUserHandlerAvailability(t *testing.T) {
	h := NewUserHandler(&fakeUserService{taken: map[string]bool{"alice": true}})

	c, rec := newContext(http.MethodGet, "/api/users/username/alice", nil, "", gin.Params{param("username", "alice")})
	h.UsernameAvailable(c)
	var res dto.AvailabilityResponse
	decodeData(t, rec, &res)
	assert.False(t, res.Available)

	c, rec = newContext(http.MethodGet, "/api/users/email/x@example.com", nil, "", gin.Params{param("email", "x@example.com")})
	h.EmailAvailable(c)
	decodeData(t, rec, &res)
	assert.True(t, res.Available)
}
