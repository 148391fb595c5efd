package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/evidark-org/evidark/internal/constant"
	"github.com/evidark-org/evidark/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePrivateChatIfAbsent(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	chat, created, err := repo.CreatePrivateChatIfAbsent(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, constant.ChatTypePrivate, chat.Type)
	require.Len(t, chat.Participants, 2)
	assert.NotNil(t, chat.ActiveParticipant(alice.ID))
	assert.NotNil(t, chat.ActiveParticipant(bob.ID))

	t.Run("Reversed Pair Returns Existing", func(t *testing.T) {
		again, created, err := repo.CreatePrivateChatIfAbsent(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, chat.ID, again.ID)
	})
}

func TestCreatePrivateChatIfAbsent_Concurrent(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	chatIDs := make(map[uuid.UUID]bool)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := alice.ID, bob.ID
			if i%2 == 1 {
				a, b = b, a
			}
			chat, created, err := repo.CreatePrivateChatIfAbsent(ctx, a, b)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if created {
				createdCount++
			}
			chatIDs[chat.ID] = true
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	assert.Len(t, chatIDs, 1)

	var rows int64
	require.NoError(t, db.Model(&entity.Chat{}).Where("type = ?", constant.ChatTypePrivate).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestIsParticipantAndRole(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	owner := createUser(t, db, "owner")
	member := createUser(t, db, "member")
	outsider := createUser(t, db, "outsider")

	chat, err := repo.CreateGroupChat(ctx, owner.ID, "Night Shift", "", []uuid.UUID{member.ID})
	require.NoError(t, err)

	ok, err := repo.IsParticipant(ctx, chat.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsParticipant(ctx, chat.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	role, err := repo.GetUserRole(ctx, chat.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, constant.ParticipantRoleAdmin, role)

	_, err = repo.GetUserRole(ctx, chat.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	t.Run("Inactive Participant", func(t *testing.T) {
		require.NoError(t, repo.DeactivateParticipant(ctx, chat.ID, member.ID))
		ok, err := repo.IsParticipant(ctx, chat.ID, member.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, repo.ReactivateParticipant(ctx, chat.ID, member.ID))
		ok, err = repo.IsParticipant(ctx, chat.ID, member.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Soft Deleted Chat", func(t *testing.T) {
		require.NoError(t, repo.SoftDeleteChat(ctx, chat.ID))
		ok, err := repo.IsParticipant(ctx, chat.ID, owner.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = repo.FindChatByID(ctx, chat.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListChatsForUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	_, _, err := repo.CreatePrivateChatIfAbsent(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = repo.CreateGroupChat(ctx, alice.ID, "Ghost Stories", "", []uuid.UUID{carol.ID})
	require.NoError(t, err)
	_, err = repo.CreateGroupChat(ctx, bob.ID, "Not Mine", "", []uuid.UUID{carol.ID})
	require.NoError(t, err)

	chats, total, err := repo.ListChatsForUser(ctx, alice.ID, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, chats, 2)

	t.Run("Search By Chat Name", func(t *testing.T) {
		chats, total, err := repo.ListChatsForUser(ctx, alice.ID, "ghost", 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, chats, 1)
		assert.Equal(t, "Ghost Stories", chats[0].Name)
	})

	t.Run("Search By Participant Name", func(t *testing.T) {
		chats, total, err := repo.ListChatsForUser(ctx, alice.ID, "BOB", 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, chats, 1)
		assert.Equal(t, constant.ChatTypePrivate, chats[0].Type)
	})

	t.Run("Paging", func(t *testing.T) {
		chats, total, err := repo.ListChatsForUser(ctx, alice.ID, "", 2, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, chats, 1)
	})

	t.Run("Search Treats Wildcards Literally", func(t *testing.T) {
		_, err := repo.CreateGroupChat(ctx, alice.ID, "Sale 50% off", "", []uuid.UUID{carol.ID})
		require.NoError(t, err)
		_, err = repo.CreateGroupChat(ctx, alice.ID, "Sale 500", "", []uuid.UUID{carol.ID})
		require.NoError(t, err)

		chats, total, err := repo.ListChatsForUser(ctx, alice.ID, "50%", 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, chats, 1)
		assert.Equal(t, "Sale 50% off", chats[0].Name)

		_, total, err = repo.ListChatsForUser(ctx, alice.ID, "%", 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})
}
