package services

import (
	"fmt"
	"testing"

	"github.com/huangang/ideahub/backend/internal/config"
	"github.com/huangang/ideahub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostDirect(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice@uni.edu", "Alice", models.UserRoleStudent)
	bob := createUser(t, db, "bob@uni.edu", "Bob", models.UserRoleMentor)
	svc := NewMessageService(db, nil)

	msg, err := svc.PostDirect(alice.ID, bob.ID, "  hi bob  ")
	require.NoError(t, err)
	assert.Equal(t, "hi bob", msg.Message)
	assert.Equal(t, "Alice", msg.Sender.FullName)
	assert.False(t, msg.IsRead)

	_, err = svc.PostDirect(alice.ID, alice.ID, "me")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.PostDirect(alice.ID, bob.ID, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.PostDirect(alice.ID, 555, "anyone?")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationMarksRead(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice@uni.edu", "Alice", models.UserRoleStudent)
	bob := createUser(t, db, "bob@uni.edu", "Bob", models.UserRoleMentor)
	carol := createUser(t, db, "carol@uni.edu", "Carol", models.UserRoleDeveloper)
	svc := NewMessageService(db, nil)

	_, err := svc.PostDirect(alice.ID, bob.ID, "one")
	require.NoError(t, err)
	_, err = svc.PostDirect(bob.ID, alice.ID, "two")
	require.NoError(t, err)
	_, err = svc.PostDirect(alice.ID, bob.ID, "three")
	require.NoError(t, err)
	_, err = svc.PostDirect(carol.ID, bob.ID, "unrelated")
	require.NoError(t, err)

	thread, err := svc.Conversation(bob.ID, alice.ID, nil)
	require.NoError(t, err)
	require.Len(t, thread.Items, 3)
	assert.False(t, thread.HasMore)
	assert.Equal(t, []string{"one", "two", "three"}, []string{thread.Items[0].Message, thread.Items[1].Message, thread.Items[2].Message})

	var unreadFromAlice, unreadFromCarol, unreadForAlice int64
	db.Model(&models.DirectMessage{}).Where("sender_id = ? AND receiver_id = ? AND is_read = ?", alice.ID, bob.ID, false).Count(&unreadFromAlice)
	db.Model(&models.DirectMessage{}).Where("sender_id = ? AND receiver_id = ? AND is_read = ?", carol.ID, bob.ID, false).Count(&unreadFromCarol)
	db.Model(&models.DirectMessage{}).Where("receiver_id = ? AND is_read = ?", alice.ID, false).Count(&unreadForAlice)
	assert.Zero(t, unreadFromAlice)
	assert.EqualValues(t, 1, unreadFromCarol, "other threads stay unread")
	assert.EqualValues(t, 1, unreadForAlice, "reading never marks the reader's own messages")
}

func TestConversationPaging(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice@uni.edu", "Alice", models.UserRoleStudent)
	bob := createUser(t, db, "bob@uni.edu", "Bob", models.UserRoleMentor)
	svc := NewMessageService(db, &config.ChatConfig{PageSize: 2, MaxPageSize: 10})

	for i := 1; i <= 3; i++ {
		_, err := svc.PostDirect(alice.ID, bob.ID, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	page, err := svc.Conversation(bob.ID, alice.ID, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)

	var unread int64
	db.Model(&models.DirectMessage{}).Where("receiver_id = ? AND is_read = ?", bob.ID, false).Count(&unread)
	assert.EqualValues(t, 1, unread, "only the returned page is marked read")

	page, err = svc.Conversation(bob.ID, alice.ID, &PageRequest{AfterID: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "msg 3", page.Items[0].Message)
	assert.False(t, page.HasMore)

	_, err = svc.Conversation(bob.ID, 999, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversations(t *testing.T) {
	db := setupDB(t)
	alice := createUser(t, db, "alice@uni.edu", "Alice", models.UserRoleStudent)
	bob := createUser(t, db, "bob@uni.edu", "Bob", models.UserRoleMentor)
	carol := createUser(t, db, "carol@uni.edu", "Carol", models.UserRoleDeveloper)
	svc := NewMessageService(db, nil)

	_, err := svc.PostDirect(bob.ID, alice.ID, "from bob 1")
	require.NoError(t, err)
	_, err = svc.PostDirect(bob.ID, alice.ID, "from bob 2")
	require.NoError(t, err)
	_, err = svc.PostDirect(alice.ID, carol.ID, "to carol")
	require.NoError(t, err)

	inbox, err := svc.Conversations(alice.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 2)

	assert.Equal(t, carol.ID, inbox[0].Contact.ID, "most recent first")
	assert.Equal(t, "to carol", inbox[0].LastMessage.Message)
	assert.Zero(t, inbox[0].UnreadCount)

	assert.Equal(t, bob.ID, inbox[1].Contact.ID)
	assert.Equal(t, "from bob 2", inbox[1].LastMessage.Message)
	assert.EqualValues(t, 2, inbox[1].UnreadCount)

	empty, err := svc.Conversations(carol.ID + 100)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProjectChat(t *testing.T) {
	db := setupDB(t)
	tm := setupTeam(t, db)
	svc := NewMessageService(db, &config.ChatConfig{PageSize: 2, MaxPageSize: 3})

	for i := 1; i <= 5; i++ {
		sender := tm.owner.ID
		if i%2 == 0 {
			sender = tm.member.ID
		}
		_, err := svc.PostProjectChat(tm.project.ID, sender, fmt.Sprintf("line %d", i))
		require.NoError(t, err)
	}

	_, err := svc.PostProjectChat(tm.project.ID, tm.outsider.ID, "let me in")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.PostProjectChat(tm.project.ID, tm.owner.ID, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.ListProjectChat(tm.project.ID, tm.outsider.ID, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	page, err := svc.ListProjectChat(tm.project.ID, tm.member.ID, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "line 1", page.Items[0].Message)
	assert.Equal(t, "Olivia Owner", page.Items[0].Sender.FullName)

	page, err = svc.ListProjectChat(tm.project.ID, tm.member.ID, &PageRequest{AfterID: page.NextCursor, Limit: 50})
	require.NoError(t, err)
	require.Len(t, page.Items, 3, "limit is capped at the max page size")
	assert.Equal(t, "line 3", page.Items[0].Message)
	assert.False(t, page.HasMore)

	last := page.NextCursor
	page, err = svc.ListProjectChat(tm.project.ID, tm.member.ID, &PageRequest{AfterID: last})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, last, page.NextCursor)
	assert.False(t, page.HasMore)
}
