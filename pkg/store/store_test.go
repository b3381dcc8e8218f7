package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redpilot/pkg/auth"
	"redpilot/pkg/logging"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	logging.SetLogDir(t.TempDir())
	log, _ := logging.New("store-test")
	t.Cleanup(func() { log.Close() })

	s, err := Open(filepath.Join(t.TempDir(), "redpilot.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testIdentity() auth.Identity {
	return auth.Identity{
		ExternalID: "5f8a9b2c",
		Nickname:   "美食小分队",
		AvatarURL:  "https://sns-avatar.example.com/avatar.jpg",
		AccountID:  "13800138000",
	}
}

func TestUpsertIdentityInsertsAndUpdates(t *testing.T) {
	s := testStore(t)
	identity := testIdentity()

	require.NoError(t, s.UpsertIdentity(identity))

	// A second sign-in with a changed nickname must update, not insert.
	identity.Nickname = "美食小分队2号"
	require.NoError(t, s.UpsertIdentity(identity))

	users, err := s.Users()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "美食小分队2号", users[0].Nickname)
	assert.Equal(t, identity.AccountID, users[0].Phone, "phone mirrors the account id")
}

func TestUpsertIdentityPreservesFirstSignIn(t *testing.T) {
	s := testStore(t)
	identity := testIdentity()

	require.NoError(t, s.UpsertIdentity(identity))
	first, err := s.FindUser(identity.AccountID)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.False(t, first.CreatedAt.IsZero())

	// A later validate re-upserts the same account; the first sign-in
	// timestamp must survive it.
	require.NoError(t, s.UpsertIdentity(identity))
	second, err := s.FindUser(identity.AccountID)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, time.Second)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

func TestFindUser(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.UpsertIdentity(testIdentity()))

	user, err := s.FindUser("13800138000")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "5f8a9b2c", user.ExternalID)

	missing, err := s.FindUser("10000000000")
	require.NoError(t, err)
	assert.Nil(t, missing, "unknown account is nil, not an error")
}

func TestSavePostRoundTrip(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.UpsertIdentity(testIdentity()))

	post := &Post{
		AccountID:  "13800138000",
		Title:      "周末探店",
		Content:    "发现了一家宝藏咖啡馆",
		Images:     []string{"a.jpg", "b.jpg"},
		CoverImage: "a.jpg",
		Status:     PostStatusPublished,
	}
	require.NoError(t, s.SavePost(post))
	assert.NotZero(t, post.ID)

	posts, err := s.Posts("13800138000")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, posts[0].Images)
	assert.Equal(t, PostStatusPublished, posts[0].Status)
}

func TestDeleteAccountRemovesUserAndPosts(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.UpsertIdentity(testIdentity()))
	require.NoError(t, s.SavePost(&Post{
		AccountID: "13800138000",
		Title:     "周末探店",
		Images:    []string{"a.jpg"},
		Status:    PostStatusPublished,
	}))

	require.NoError(t, s.DeleteAccount("13800138000"))

	user, err := s.FindUser("13800138000")
	require.NoError(t, err)
	assert.Nil(t, user)

	posts, err := s.Posts("13800138000")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestDeleteAccountUnknownIsNoError(t *testing.T) {
	s := testStore(t)
	assert.NoError(t, s.DeleteAccount("10000000000"))
}

func TestDeletePost(t *testing.T) {
	s := testStore(t)
	post := &Post{AccountID: "13800138000", Images: []string{"a.jpg"}, Status: PostStatusFailed}
	require.NoError(t, s.SavePost(post))

	require.NoError(t, s.DeletePost(post.ID))
	assert.Error(t, s.DeletePost(post.ID), "deleting twice reports not found")
}
