package services

import (
	"testing"

	"github.com/huangang/ideahub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserListAndProfile(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice@uni.edu", "Alice Smith", models.UserRoleStudent)
	createUser(t, db, "bob@uni.edu", "Bob Jones", models.UserRoleMentor)
	svc := NewUserService(db)

	skills := []string{"Go", "Postgres", "Go"}
	bio := "Backend tinkerer"
	updated, err := svc.UpdateProfile(alice.ID, alice.ID, &UpdateProfileRequest{Skills: &skills, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Postgres"}, []string(updated.Skills))
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, "alice@uni.edu", updated.Email)

	mentors, err := svc.List(&UserListRequest{Role: models.UserRoleMentor})
	require.NoError(t, err)
	require.Len(t, mentors.Items, 1)
	assert.Equal(t, "Bob Jones", mentors.Items[0].FullName)

	gophers, err := svc.List(&UserListRequest{Skill: "Go"})
	require.NoError(t, err)
	require.Len(t, gophers.Items, 1)
	assert.Equal(t, alice.ID, gophers.Items[0].ID)

	found, err := svc.List(&UserListRequest{Search: "Jon"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, found.Total)

	_, err = svc.UpdateProfile(alice.ID, alice.ID+1, &UpdateProfileRequest{Bio: &bio})
	assert.ErrorIs(t, err, ErrForbidden)

	admin := models.UserRoleAdmin
	_, err = svc.UpdateProfile(alice.ID, alice.ID, &UpdateProfileRequest{Role: &admin})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Get(4242)
	assert.ErrorIs(t, err, ErrNotFound)
}
