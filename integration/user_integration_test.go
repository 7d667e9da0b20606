package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickrooney09/tiba-update-user/internal/auth"
	"github.com/patrickrooney09/tiba-update-user/internal/user"
)

func TestUserRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	cleanTables(t, db, "users")

	repo := user.NewRepository(db)
	ctx := context.Background()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	created, err := repo.Create(ctx, "Front Desk", "desk@lot.example", hash, user.RoleStaff)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	found, err := repo.FindByEmail(ctx, "desk@lot.example")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, user.RoleStaff, found.Role)

	exists, err := repo.EmailExists(ctx, "desk@lot.example")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.FindByEmail(ctx, "nobody@lot.example")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestLoginFlow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()
	cleanTables(t, db, "users")

	gin.SetMode(gin.TestMode)

	repo := user.NewRepository(db)
	svc := user.NewService(repo, nil, "test-secret")
	handler := user.NewHandler(svc)

	router := gin.New()
	router.POST("/auth/login", handler.Login)

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), "Front Desk", "desk@lot.example", hash, user.RoleStaff)
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{
		"email":    "desk@lot.example",
		"password": "password123",
	})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp user.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := auth.ValidateToken(resp.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "desk@lot.example", claims.Email)
}
