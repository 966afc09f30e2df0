package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName           string         `json:"firstName"`
	LastName            string         `json:"lastName"`
	Email               string         `json:"email" gorm:"uniqueIndex"`
	Password            string         `json:"password"`
	SocialLogin         bool           `json:"socialLogin"`
	SocialProvider      string         `json:"socialProvider"`
	AvatarURL           string         `json:"avatarURL"`
	SavedListings       datatypes.JSON `json:"savedListings"`
	AllowsNotifications *bool          `json:"allowsNotifications"`
	Role                string         `json:"role" gorm:"type:varchar(20);default:user;index"` // user, admin, super_admin
}

// IsSupportDesk reports whether the account can act as the support desk.
func (u *User) IsSupportDesk() bool {
	return u.Role == "admin" || u.Role == "super_admin"
}

// DisplayName is the name shown to counterparts in conversations.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		name = u.Email
	}
	return name
}

// Custom JSON marshaling so JSON columns come out as arrays, not raw bytes
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		SavedListings []int  `json:"savedListings,omitempty"`
		Password      string `json:"password,omitempty"`
		*Alias
	}{
		SavedListings: []int{},
		Alias:         (*Alias)(u),
	}

	if u.SavedListings != nil {
		var saved []int
		if err := json.Unmarshal(u.SavedListings, &saved); err == nil {
			aux.SavedListings = saved
		}
	}

	return json.Marshal(aux)
}
