package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func countDefaults(u *User) int {
	n := 0
	for _, a := range u.Addresses {
		if a.IsDefault {
			n++
		}
	}
	return n
}

func TestUserAddresses(t *testing.T) {
	u := &User{ID: "u1"}

	u.AddAddress(Address{ID: "a1"})
	assert.True(t, u.Addresses[0].IsDefault)

	u.AddAddress(Address{ID: "a2"})
	assert.Equal(t, 1, countDefaults(u))
	assert.False(t, u.Addresses[1].IsDefault)

	u.AddAddress(Address{ID: "a3", IsDefault: true})
	assert.Equal(t, 1, countDefaults(u))
	assert.True(t, u.Addresses[2].IsDefault)
	assert.Equal(t, 2, u.Addresses[2].Position)
	assert.Equal(t, "u1", u.Addresses[2].UserID)

	assert.True(t, u.SetDefaultAddress("a2"))
	assert.Equal(t, 1, countDefaults(u))
	assert.True(t, u.Addresses[1].IsDefault)
	assert.False(t, u.SetDefaultAddress("nope"))

	assert.True(t, u.RemoveAddress("a1"))
	assert.False(t, u.RemoveAddress("a1"))
	assert.Len(t, u.Addresses, 2)
	assert.Equal(t, 0, u.Addresses[0].Position)
}

func TestUserWishlist(t *testing.T) {
	u := &User{}
	assert.True(t, u.AddToWishlist("p1"))
	assert.False(t, u.AddToWishlist("p1"))
	assert.True(t, u.AddToWishlist("p2"))
	assert.Equal(t, []string{"p1", "p2"}, u.Wishlist)

	assert.True(t, u.RemoveFromWishlist("p1"))
	assert.False(t, u.RemoveFromWishlist("p1"))
	assert.Equal(t, []string{"p2"}, u.Wishlist)
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleUser}).IsAdmin())
}
