package models

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Address is one saved delivery address of a user.
type Address struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"id"`
	UserID    string `json:"-" gorm:"type:varchar(36);index" bson:"-"`
	Position  int    `json:"-" bson:"-"`
	Name      string `json:"name" bson:"name"`
	Phone     string `json:"phone" bson:"phone"`
	Street    string `json:"street" bson:"street"`
	City      string `json:"city" bson:"city"`
	State     string `json:"state" bson:"state"`
	Pincode   string `json:"pincode" bson:"pincode"`
	IsDefault bool   `json:"isDefault" bson:"isDefault"`
}

// User represents a customer or administrator account.
type User struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Name            string    `json:"name" gorm:"type:varchar(50);not null" bson:"name"`
	Email           string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" bson:"email"`
	Password        string    `json:"-" gorm:"type:varchar(255)" bson:"password"`
	Phone           string    `json:"phone,omitempty" gorm:"type:varchar(10)" bson:"phone,omitempty"`
	Avatar          string    `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Role            Role      `json:"role" gorm:"type:varchar(10);index;default:user" bson:"role"`
	Addresses       []Address `json:"addresses" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" bson:"addresses"`
	Wishlist        []string  `json:"wishlist" gorm:"serializer:json" bson:"wishlist"`
	IsEmailVerified bool      `json:"isEmailVerified" bson:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AddAddress appends addr. The first address, or one flagged as default,
// becomes the only default.
func (u *User) AddAddress(addr Address) {
	if len(u.Addresses) == 0 {
		addr.IsDefault = true
	}
	if addr.IsDefault {
		u.clearDefault()
	}
	u.Addresses = append(u.Addresses, addr)
	u.renumberAddresses()
}

// RemoveAddress deletes the address with the given id.
func (u *User) RemoveAddress(id string) bool {
	for i, a := range u.Addresses {
		if a.ID == id {
			u.Addresses = append(u.Addresses[:i], u.Addresses[i+1:]...)
			u.renumberAddresses()
			return true
		}
	}
	return false
}

// SetDefaultAddress marks id as the default address and clears the flag on
// every other address.
func (u *User) SetDefaultAddress(id string) bool {
	idx := -1
	for i, a := range u.Addresses {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	u.clearDefault()
	u.Addresses[idx].IsDefault = true
	return true
}

func (u *User) clearDefault() {
	for i := range u.Addresses {
		u.Addresses[i].IsDefault = false
	}
}

func (u *User) renumberAddresses() {
	for i := range u.Addresses {
		u.Addresses[i].Position = i
		u.Addresses[i].UserID = u.ID
	}
}

// AddToWishlist adds productID if it is not already present.
func (u *User) AddToWishlist(productID string) bool {
	for _, id := range u.Wishlist {
		if id == productID {
			return false
		}
	}
	u.Wishlist = append(u.Wishlist, productID)
	return true
}

// RemoveFromWishlist removes productID if present.
func (u *User) RemoveFromWishlist(productID string) bool {
	for i, id := range u.Wishlist {
		if id == productID {
			u.Wishlist = append(u.Wishlist[:i], u.Wishlist[i+1:]...)
			return true
		}
	}
	return false
}
