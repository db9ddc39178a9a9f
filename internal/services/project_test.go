package services

import (
	"testing"

	"github.com/huangang/ideahub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeList(t *testing.T) {
	got := normalizeList([]string{" go ", "", "web", "go", "  "})
	assert.Equal(t, []string{"go", "web"}, []string(got))
}

func TestProjectCreate(t *testing.T) {
	db := setupDB(t)
	owner := createUser(t, db, "owner@uni.edu", "Olivia Owner", models.UserRoleStudent)
	svc := NewProjectService(db)

	project := createProject(t, db, owner, "  Study Buddy  ")
	assert.Equal(t, "Study Buddy", project.Title)
	assert.Equal(t, models.StageIdea, project.Stage)
	assert.Equal(t, owner.ID, project.OwnerID)

	tests := []struct {
		name string
		req  CreateProjectRequest
	}{
		{"blank title", CreateProjectRequest{Title: " ", Description: "d", Domain: "x", Difficulty: "y"}},
		{"blank description", CreateProjectRequest{Title: "t", Description: "", Domain: "x", Difficulty: "y"}},
		{"blank domain", CreateProjectRequest{Title: "t", Description: "d", Domain: "", Difficulty: "y"}},
		{"blank difficulty", CreateProjectRequest{Title: "t", Description: "d", Domain: "x", Difficulty: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(&tt.req, owner.ID)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := svc.Create(&CreateProjectRequest{Title: "t", Description: "d", Domain: "x", Difficulty: "y"}, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectUpdate(t *testing.T) {
	db := setupDB(t)
	owner := createUser(t, db, "owner@uni.edu", "Olivia Owner", models.UserRoleStudent)
	other := createUser(t, db, "other@uni.edu", "Otto Other", models.UserRoleStudent)
	project := createProject(t, db, owner, "Study Buddy")
	svc := NewProjectService(db)

	stage := models.StagePrototype
	title := "Study Buddy 2"
	tags := []string{"ai"}
	updated, err := svc.Update(project.ID, owner.ID, &UpdateProjectRequest{Title: &title, Stage: &stage, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, models.StagePrototype, updated.Stage)
	assert.Equal(t, []string{"ai"}, []string(updated.Tags))
	assert.Equal(t, project.Description, updated.Description, "nil fields stay unchanged")

	hijack := "Hijacked"
	_, err = svc.Update(project.ID, other.ID, &UpdateProjectRequest{Title: &hijack})
	assert.ErrorIs(t, err, ErrForbidden)
	unchanged, err := svc.GetByID(project.ID)
	require.NoError(t, err)
	assert.Equal(t, title, unchanged.Title, "a refused update leaves the project as it was")

	bad := "Launched"
	_, err = svc.Update(project.ID, owner.ID, &UpdateProjectRequest{Stage: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	empty := ""
	_, err = svc.Update(project.ID, owner.ID, &UpdateProjectRequest{Title: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(404, owner.ID, &UpdateProjectRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectList(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice@uni.edu", "Alice", models.UserRoleStudent)
	bob := createUser(t, db, "bob@uni.edu", "Bob", models.UserRoleMentor)
	svc := NewProjectService(db)

	first := createProject(t, db, alice, "First")
	createProject(t, db, bob, "Second")
	third := createProject(t, db, alice, "Third")
	aiTags := []string{"ai"}
	_, err := svc.Update(third.ID, alice.ID, &UpdateProjectRequest{Tags: &aiTags})
	require.NoError(t, err)

	all, err := svc.List(&ProjectListRequest{}, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Total)
	require.Len(t, all.Items, 3)
	assert.Equal(t, "Third", all.Items[0].Title, "newest first")
	assert.Equal(t, "Alice", all.Items[0].OwnerName)

	mine, err := svc.List(&ProjectListRequest{Mine: true}, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine.Total)
	for _, item := range mine.Items {
		assert.Equal(t, alice.ID, item.OwnerID)
	}

	_, err = svc.List(&ProjectListRequest{Mine: true}, 0)
	assert.ErrorIs(t, err, ErrValidation)

	tagged, err := svc.List(&ProjectListRequest{Tag: "ai"}, 0)
	require.NoError(t, err)
	require.Len(t, tagged.Items, 1)
	assert.Equal(t, third.ID, tagged.Items[0].ID)

	paged, err := svc.List(&ProjectListRequest{Page: 2, PageSize: 2}, 0)
	require.NoError(t, err)
	require.Len(t, paged.Items, 1)
	assert.Equal(t, first.ID, paged.Items[0].ID)

	clamped, err := svc.List(&ProjectListRequest{Page: -1, PageSize: 10000}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, clamped.Page)
	assert.Equal(t, 100, clamped.PageSize)
	assert.Len(t, clamped.Items, 3)
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, 20},
		{-3, -1, 1, 20},
		{2, 50, 2, 50},
		{1, 101, 1, 100},
	}
	for _, tt := range tests {
		page, size := clampPage(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, page, "page for %d/%d", tt.page, tt.size)
		assert.Equal(t, tt.wantSize, size, "size for %d/%d", tt.page, tt.size)
	}
}

func TestProjectDetailAndDelete(t *testing.T) {
	db := setupDB(t)
	tm := setupTeam(t, db)
	svc := NewProjectService(db)
	tasks := NewTaskService(db)
	chat := NewMessageService(db, nil)

	_, err := tasks.Create(tm.project.ID, tm.member.ID, &CreateTaskRequest{Title: "Wireframes"})
	require.NoError(t, err)
	_, err = chat.PostProjectChat(tm.project.ID, tm.owner.ID, "kickoff at 5")
	require.NoError(t, err)

	detail, err := svc.GetDetail(tm.project.ID)
	require.NoError(t, err)
	require.Len(t, detail.Members, 1)
	assert.Equal(t, "Mo Member", detail.Members[0].FullName)
	assert.Equal(t, "Backend", detail.Members[0].Role)
	assert.Len(t, detail.Tasks, 1)
	assert.Equal(t, "Olivia Owner", detail.Project.OwnerName)

	assert.ErrorIs(t, svc.Delete(tm.project.ID, tm.member.ID), ErrForbidden)
	require.NoError(t, svc.Delete(tm.project.ID, tm.owner.ID))

	_, err = svc.GetByID(tm.project.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, model := range []interface{}{&models.Task{}, &models.Application{}, &models.ProjectMember{}, &models.ChatMessage{}} {
		var count int64
		require.NoError(t, db.Model(model).Where("project_id = ?", tm.project.ID).Count(&count).Error)
		assert.Zero(t, count)
	}

	// The welcome direct message is not project scoped and survives.
	var dms int64
	db.Model(&models.DirectMessage{}).Count(&dms)
	assert.EqualValues(t, 1, dms)

	assert.ErrorIs(t, svc.Delete(tm.project.ID, tm.owner.ID), ErrNotFound)
}
