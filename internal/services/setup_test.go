package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/huangang/ideahub/backend/internal/models"
	"github.com/huangang/ideahub/backend/internal/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	utils.SetJWTSecret("test-secret")
}

// setupDB opens a private in-memory database. A single connection makes
// concurrent transactions queue instead of failing with SQLITE_BUSY.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email, name, role string) *models.User {
	t.Helper()
	user := models.User{
		Email:    email,
		FullName: name,
		Role:     role,
		AuthType: models.AuthTypeLocal,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createProject(t *testing.T, db *gorm.DB, owner *models.User, title string, roles ...string) *models.Project {
	t.Helper()
	svc := NewProjectService(db)
	project, err := svc.Create(&CreateProjectRequest{
		Title:         title,
		Description:   "An idea worth building",
		Domain:        "Web Development",
		Difficulty:    "Intermediate",
		Tags:          []string{"go", "web"},
		RequiredRoles: roles,
	}, owner.ID)
	require.NoError(t, err)
	return project
}

// recordingQueue captures enqueued notifications.
type recordingQueue struct {
	mu    sync.Mutex
	tasks []*NotificationTask
	err   error
}

func (q *recordingQueue) Enqueue(task *NotificationTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) IsAsync() bool { return false }
func (q *recordingQueue) Close() error  { return nil }

func (q *recordingQueue) Tasks() []*NotificationTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*NotificationTask(nil), q.tasks...)
}

// team is an owner, one accepted member and one outsider on a project.
type team struct {
	owner    *models.User
	member   *models.User
	outsider *models.User
	project  *models.Project
}

func setupTeam(t *testing.T, db *gorm.DB) *team {
	t.Helper()
	tm := &team{
		owner:    createUser(t, db, "owner@uni.edu", "Olivia Owner", models.UserRoleStudent),
		member:   createUser(t, db, "member@uni.edu", "Mo Member", models.UserRoleDeveloper),
		outsider: createUser(t, db, "out@uni.edu", "Oscar Outsider", models.UserRoleStudent),
	}
	tm.project = createProject(t, db, tm.owner, "Campus Marketplace")

	apps := NewApplicationService(db, nil)
	app, err := apps.Submit(tm.project.ID, tm.member.ID, &SubmitApplicationRequest{RoleAppliedFor: "Backend"})
	require.NoError(t, err)
	_, err = apps.Decide(app.ID, tm.owner.ID, models.ApplicationAccepted)
	require.NoError(t, err)
	return tm
}
