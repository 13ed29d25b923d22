package service

import (
	"context"
	"fmt"
	"testing"

	"pylearn_backend/internal/model"
	"pylearn_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRequestGuards(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	t.Run("self request", func(t *testing.T) {
		_, err := env.socialSvc.SendRequest(alice, alice.ID)
		assert.ErrorIs(t, err, util.ErrSelfFriendRequest)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := env.socialSvc.SendRequest(alice, 9999)
		assert.ErrorIs(t, err, util.ErrUserNotFound)
	})

	t.Run("duplicate request", func(t *testing.T) {
		_, err := env.socialSvc.SendRequest(alice, bob.ID)
		require.NoError(t, err)

		_, err = env.socialSvc.SendRequest(alice, bob.ID)
		assert.ErrorIs(t, err, util.ErrRequestPending)

		// The reverse direction is blocked too while one is pending.
		_, err = env.socialSvc.SendRequest(bob, alice.ID)
		assert.ErrorIs(t, err, util.ErrRequestPending)
	})
}

func TestAcceptRequestMakesFriendsBothWays(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	ctx := context.Background()

	_, err := env.socialSvc.SendRequest(alice, bob.ID)
	require.NoError(t, err)

	f, err := env.socialSvc.AcceptRequest(bob, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipAccepted, f.Status)

	// Friendship reads as symmetric despite the directed storage.
	aliceFriends, err := env.socialSvc.GetFriends(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceFriends, 1)
	assert.Equal(t, bob.ID, aliceFriends[0].ID)

	bobFriends, err := env.socialSvc.GetFriends(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobFriends, 1)
	assert.Equal(t, alice.ID, bobFriends[0].ID)

	// A new request between friends is rejected.
	_, err = env.socialSvc.SendRequest(bob, alice.ID)
	assert.ErrorIs(t, err, util.ErrAlreadyFriends)
}

func TestOnlyRecipientCanAccept(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	_, err := env.socialSvc.SendRequest(alice, bob.ID)
	require.NoError(t, err)

	// Alice sent the request; she cannot accept it herself.
	_, err = env.socialSvc.AcceptRequest(alice, bob.ID)
	assert.ErrorIs(t, err, util.ErrRequestNotFound)
}

func TestRejectedRequestCanBeResent(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	first, err := env.socialSvc.SendRequest(alice, bob.ID)
	require.NoError(t, err)
	require.NoError(t, env.socialSvc.RejectRequest(bob, alice.ID))

	// Re-requesting reuses the rejected row instead of violating the unique
	// (user_id, friend_id) index.
	second, err := env.socialSvc.SendRequest(alice, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.FriendshipPending, second.Status)
}

func TestRemoveFriend(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	ctx := context.Background()

	_, err := env.socialSvc.SendRequest(alice, bob.ID)
	require.NoError(t, err)
	_, err = env.socialSvc.AcceptRequest(bob, alice.ID)
	require.NoError(t, err)

	// Either side may remove; bob removes here even though alice sent.
	require.NoError(t, env.socialSvc.RemoveFriend(bob, alice.ID))

	friends, err := env.socialSvc.GetFriends(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)

	err = env.socialSvc.RemoveFriend(bob, alice.ID)
	assert.ErrorIs(t, err, util.ErrFriendshipNotFound)
}

func TestRelationStatusPrecedence(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	status, err := env.socialSvc.RelationStatus(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, status)

	_, err = env.socialSvc.SendRequest(alice, bob.ID)
	require.NoError(t, err)
	status, err = env.socialSvc.RelationStatus(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipPending, status)

	_, err = env.socialSvc.AcceptRequest(bob, alice.ID)
	require.NoError(t, err)
	status, err = env.socialSvc.RelationStatus(bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipAccepted, status)
}

func TestPendingRequestsListsIncomingOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	dave := env.createUser(t, "dave")

	_, err := env.socialSvc.SendRequest(alice, carol.ID)
	require.NoError(t, err)
	_, err = env.socialSvc.SendRequest(bob, carol.ID)
	require.NoError(t, err)

	// Carol's own outgoing request must not show up in her incoming list.
	_, err = env.socialSvc.SendRequest(carol, dave.ID)
	require.NoError(t, err)

	pending, err := env.socialSvc.GetPendingRequests(carol.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	for _, f := range pending {
		assert.Equal(t, carol.ID, f.FriendID)
	}
}

func TestFriendLeaderboardOrdersByXPThenLevel(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	ctx := context.Background()

	require.NoError(t, env.progression.AddXP(bob, 3000))
	require.NoError(t, env.progression.AddXP(carol, 500))
	require.NoError(t, env.progression.AddXP(alice, 1200))

	for _, friend := range []*model.User{bob, carol} {
		_, err := env.socialSvc.SendRequest(alice, friend.ID)
		require.NoError(t, err)
		_, err = env.socialSvc.AcceptRequest(friend, alice.ID)
		require.NoError(t, err)
	}

	board, err := env.socialSvc.FriendLeaderboard(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, bob.ID, board[0].ID)
	assert.Equal(t, alice.ID, board[1].ID)
	assert.Equal(t, carol.ID, board[2].ID)
}

func TestFriendLeaderboardTruncatesToLimit(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		friend := env.createUser(t, fmt.Sprintf("friend%02d", i))
		require.NoError(t, env.progression.AddXP(friend, (i+1)*100))
		_, err := env.socialSvc.SendRequest(alice, friend.ID)
		require.NoError(t, err)
		_, err = env.socialSvc.AcceptRequest(friend, alice.ID)
		require.NoError(t, err)
	}

	board, err := env.socialSvc.FriendLeaderboard(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, board, 10)

	// The top entry holds the most XP and the weakest entries fell off,
	// alice with 0 XP among them.
	assert.Equal(t, 1200, board[0].XP)
	for _, entry := range board {
		assert.NotEqual(t, alice.ID, entry.ID)
	}

	// A larger limit shows everyone.
	full, err := env.socialSvc.FriendLeaderboard(ctx, alice, 20)
	require.NoError(t, err)
	require.Len(t, full, 13)
}

func TestFriendLeaderboardWithNoFriends(t *testing.T) {
	env := newTestEnv(t)
	loner := env.createUser(t, "loner")
	ctx := context.Background()

	board, err := env.socialSvc.FriendLeaderboard(ctx, loner, 10)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, loner.ID, board[0].ID)
}
