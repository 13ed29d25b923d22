package model

const (
	TutorRoleUser      = "user"
	TutorRoleAssistant = "assistant"
)

// TutorMessage persists one turn of an AI-tutor conversation. SessionID groups
// a conversation thread; history is replayed into the prompt on each turn.
type TutorMessage struct {
	BaseModel
	UserID    uint   `gorm:"index:idx_user_session;not null" json:"userId"`
	SessionID string `gorm:"size:36;index:idx_user_session;not null" json:"sessionId"`
	Role      string `gorm:"size:20;not null" json:"role"`
	Content   string `gorm:"type:text" json:"content"`
}

func (TutorMessage) TableName() string {
	return "tutor_messages"
}
