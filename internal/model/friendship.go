package model

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipRejected FriendshipStatus = "rejected"
)

// Friendship is a directed request edge (user → friend). Once accepted the
// logical relation is undirected: an accepted row in either direction means
// "friends". A rejected row is reused when the sender re-requests.
type Friendship struct {
	BaseModel
	UserID   uint             `gorm:"uniqueIndex:idx_user_friend;not null" json:"userId"`
	FriendID uint             `gorm:"uniqueIndex:idx_user_friend;not null" json:"friendId"`
	User     User             `gorm:"foreignKey:UserID;references:ID;constraint:false" json:"user,omitempty"`
	Friend   User             `gorm:"foreignKey:FriendID;references:ID;constraint:false" json:"friend,omitempty"`
	Status   FriendshipStatus `gorm:"size:20;default:'pending';index" json:"status"`
}

func (Friendship) TableName() string {
	return "friendships"
}
