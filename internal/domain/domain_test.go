package domain_test

import (
	"testing"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestUserValidate(t *testing.T) {
	assert.Error(t, (&domain.User{}).Validate())
	assert.Error(t, (&domain.User{ID: 7}).Validate(), "needs at least one identity field")
	assert.NoError(t, (&domain.User{ID: 7, Username: "aruzhan"}).Validate())
	assert.NoError(t, (&domain.User{ID: 7, PhoneNumber: "+77012345678"}).Validate())
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Aruzhan Seitova", (&domain.User{FirstName: "Aruzhan", LastName: "Seitova", Username: "aru"}).DisplayName())
	assert.Equal(t, "aru", (&domain.User{Username: "aru"}).DisplayName())
	assert.Equal(t, "a@b.co", (&domain.User{Email: "a@b.co"}).DisplayName())
	assert.Equal(t, "+77012345678", (&domain.User{PhoneNumber: "+77012345678"}).DisplayName())
}

func TestPostValidate(t *testing.T) {
	valid := &domain.Post{ID: 1, Author: domain.User{ID: 7, Username: "a"}}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&domain.Post{Author: domain.User{ID: 7, Username: "a"}}).Validate())
	assert.Error(t, (&domain.Post{ID: 1}).Validate(), "author must be usable")

	badPrivacy := &domain.Post{ID: 1, Author: domain.User{ID: 7, Username: "a"}, Privacy: "secret"}
	assert.Error(t, badPrivacy.Validate())
}

func TestCommentOwnedBy(t *testing.T) {
	byID := &domain.Comment{ID: 1, AuthorID: 7}
	assert.True(t, byID.OwnedBy(7))
	assert.False(t, byID.OwnedBy(9))

	// Some endpoints only embed the author record.
	embedded := &domain.Comment{ID: 1, Author: domain.User{ID: 7}}
	assert.True(t, embedded.OwnedBy(7))
	assert.False(t, embedded.OwnedBy(9))
}

func TestSessionAuthenticated(t *testing.T) {
	var nilSession *domain.Session
	assert.False(t, nilSession.Authenticated())
	assert.False(t, domain.NewSession(1, "a", "r", nil).Authenticated())
	assert.False(t, domain.NewSession(1, "", "", &domain.User{ID: 7}).Authenticated())
	assert.True(t, domain.NewSession(1, "a", "r", &domain.User{ID: 7}).Authenticated())
}

func TestSessionTokenRotation(t *testing.T) {
	sess := domain.NewSession(1, "a1", "r1", nil)
	sess.SetTokens("a2", "r1")

	accessToken, refreshToken := sess.Tokens()
	assert.Equal(t, "a2", accessToken)
	assert.Equal(t, "r1", refreshToken)
}
