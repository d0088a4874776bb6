package state

import (
	"fmt"
	"math/rand"

	"github.com/reeltalk/reeltalk/internal/auth"
	"github.com/reeltalk/reeltalk/internal/models"
)

const seedPassword = "password123"

// seedUsers builds the demo accounts installed on first boot. Follower
// counts are randomized once at seed time and then persisted, so they
// stay stable across restarts.
func seedUsers() []models.User {
	digest := auth.HashPassword(seedPassword)

	demo := []struct {
		username    string
		displayName string
		avatarID    int
		email       string
		phone       string
	}{
		{"naturelover", "Nature Lover", 1027, "nature@example.com", "+11111111111"},
		{"bunnyfan", "Bunny Fan", 237, "bunny@example.com", "+12222222222"},
		{"dreamscapes", "Dream Scapes", 1015, "dreams@example.com", "+13333333333"},
		{"techguru", "Tech Guru", 1074, "guru@example.com", "+14444444444"},
		{"citylights", "City Lights", 1084, "city@example.com", "+15555555555"},
		{"foodie", "Foodie", 1080, "food@example.com", "+16666666666"},
	}

	users := make([]models.User, 0, len(demo))
	for _, d := range demo {
		users = append(users, models.User{
			Username:           d.username,
			DisplayName:        d.displayName,
			Avatar:             fmt.Sprintf("https://picsum.photos/id/%d/100/100", d.avatarID),
			Email:              d.email,
			Phone:              d.phone,
			Password:           digest,
			Followers:          rand.Intn(5000) + 100,
			FollowingUsernames: []string{},
		})
	}

	return users
}

// seedVideos builds the demo feed shown before anyone has posted. The
// clips live on a public sample bucket, so they carry remote sources
// and no blob entry.
func seedVideos(users []models.User) []models.Video {
	byUsername := func(username string) models.User {
		for i := range users {
			if users[i].Username == username {
				return cloneUser(users[i])
			}
		}
		return models.User{Username: username}
	}

	nature := byUsername("naturelover")

	return []models.Video{
		{
			ID:        1,
			Src:       "http://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
			User:      nature,
			Caption:   "Just a beautiful day in the mountains! 🏔️ #nature #hiking #adventure",
			AudioName: "Original Audio - " + nature.DisplayName,
			Likes:     12345,
			Comments:  678,
			Shares:    910,
		},
		{
			ID:        2,
			Src:       "http://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4",
			User:      byUsername("dreamscapes"),
			Caption:   "Exploring some surreal landscapes. What do you think? #art #cgi #surreal",
			AudioName: "Dreamy Lo-fi - Aesthetic Sounds",
			Likes:     54321,
			Comments:  1234,
			Shares:    567,
		},
		{
			ID:        3,
			Src:       "http://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4",
			User:      byUsername("bunnyfan"),
			Caption:   "My bunny is the cutest! 😍 #bunny #cute #pets",
			AudioName: "Funny Tune - Comical Beats",
			Likes:     9876,
			Comments:  543,
			Shares:    210,
		},
	}
}
