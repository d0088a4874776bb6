package models

// User represents an account within the ReelTalk application.
//
// Password holds the one-way credential digest, never the plaintext.
// FollowingUsernames is ordered, duplicate-free and never contains the
// user's own username; Following always equals its length.
type User struct {
	Username           string   `json:"username"`
	DisplayName        string   `json:"displayName"`
	Avatar             string   `json:"avatar"`
	Email              string   `json:"email,omitempty"`
	Phone              string   `json:"phone,omitempty"`
	Password           string   `json:"password,omitempty"`
	Followers          int      `json:"followers"`
	Following          int      `json:"following"`
	FollowingUsernames []string `json:"followingUsernames"`
}

// Follows reports whether the user already follows the given username.
func (u User) Follows(username string) bool {
	for _, name := range u.FollowingUsernames {
		if name == username {
			return true
		}
	}
	return false
}

// Video is a posted clip. User is a denormalized snapshot of the author
// kept for display; the canonical record lives in the users collection
// and is re-resolved against it on every load.
//
// When IsLocal is set the payload lives in the blob store under ID and
// Src is a transient playable handle reconstructed at load time; it is
// never persisted verbatim for local videos.
type Video struct {
	ID        int64  `json:"id"`
	Src       string `json:"src,omitempty"`
	User      User   `json:"user"`
	Caption   string `json:"caption"`
	AudioName string `json:"audioName"`
	Likes     int64  `json:"likes"`
	Comments  int64  `json:"comments"`
	Shares    int64  `json:"shares"`
	Views     int64  `json:"views"`
	IsLocal   bool   `json:"isLocal,omitempty"`
}

// Message sender roles.
const (
	SenderSelf         = "me"
	SenderCounterparty = "them"
)

// ChatMessage is a single immutable entry in a conversation.
type ChatMessage struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Conversation is a two-party thread between the session owner and one
// other user. User is the counterparty snapshot; LastMessage and
// LastMessageTime cache the tail of Messages for list rendering.
type Conversation struct {
	ID              string        `json:"id"`
	User            User          `json:"user"`
	LastMessage     string        `json:"lastMessage"`
	LastMessageTime string        `json:"lastMessageTime"`
	Messages        []ChatMessage `json:"messages"`
}

// ProfileExport is the one-way downloadable snapshot of the session
// user's data. The credential digest is deliberately excluded.
type ProfileExport struct {
	Profile       ExportedProfile      `json:"profile"`
	Videos        []Video              `json:"videos"`
	Conversations []ExportConversation `json:"conversations"`
}

// ExportedProfile holds the public profile fields of the exported user.
type ExportedProfile struct {
	Username           string   `json:"username"`
	DisplayName        string   `json:"displayName"`
	Avatar             string   `json:"avatar"`
	Email              string   `json:"email,omitempty"`
	Phone              string   `json:"phone,omitempty"`
	Followers          int      `json:"followers"`
	Following          int      `json:"following"`
	FollowingUsernames []string `json:"followingUsernames"`
}

// ExportConversation pairs a counterparty identity with the full
// message sequence.
type ExportConversation struct {
	With        string        `json:"with"`
	DisplayName string        `json:"displayName"`
	Messages    []ChatMessage `json:"messages"`
}
