package seed

import (
	"fmt"
	"log"

	"mindbridge/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumCircles  int
	NumPosts    int
	NumFeedback int
	ShouldClean bool
}

// Seed populates the database with demo data: users, circles with
// memberships, posts with comments, journals, mood histories, and
// anonymous feedback.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users, %d circles, %d posts...",
		opts.NumUsers, opts.NumCircles, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	f := NewFactory(db)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create users: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("✓ %d demo users created", len(users))

	if len(users) == 0 {
		log.Println("🎉 Database seeding completed (nothing else to seed without users)")
		return nil
	}

	circles := make([]*models.Circle, 0, opts.NumCircles)
	for i := 0; i < opts.NumCircles; i++ {
		creator := users[i%len(users)]
		circle, err := f.CreateCircle(creator)
		if err != nil {
			return fmt.Errorf("failed to create circles: %w", err)
		}
		// Roughly half the user base joins each circle.
		for _, user := range users {
			if user.ID == creator.ID || f.rand.Intn(2) == 0 {
				continue
			}
			if err := f.AddMember(circle, user); err != nil {
				return fmt.Errorf("failed to add circle members: %w", err)
			}
		}
		circles = append(circles, circle)
	}
	log.Printf("✓ %d circles created", len(circles))

	posts := make([]*models.Post, 0, opts.NumPosts)
	if len(circles) > 0 {
		for i := 0; i < opts.NumPosts; i++ {
			circle := circles[f.rand.Intn(len(circles))]
			author := users[f.rand.Intn(len(users))]
			post, err := f.CreatePost(author, circle)
			if err != nil {
				return fmt.Errorf("failed to create posts: %w", err)
			}
			for c := 0; c < f.rand.Intn(4); c++ {
				commenter := users[f.rand.Intn(len(users))]
				if _, err := f.CreateComment(commenter, post); err != nil {
					return fmt.Errorf("failed to create comments: %w", err)
				}
			}
			posts = append(posts, post)
		}
	}
	log.Printf("✓ %d posts created", len(posts))

	for _, user := range users {
		if err := f.CreateMoodHistory(user, 30); err != nil {
			return fmt.Errorf("failed to create mood histories: %w", err)
		}
		for j := 0; j < 1+f.rand.Intn(4); j++ {
			if _, err := f.CreateJournal(user); err != nil {
				return fmt.Errorf("failed to create journals: %w", err)
			}
		}
	}
	log.Printf("✓ mood histories and journals created for %d users", len(users))

	for i := 0; i < opts.NumFeedback; i++ {
		if _, err := f.CreateFeedback(); err != nil {
			return fmt.Errorf("failed to create feedback: %w", err)
		}
	}
	log.Printf("✓ %d feedback posts created", opts.NumFeedback)

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE comments, posts, notifications, moods, journals,
		circle_join_requests, circle_memberships, circles, feedbacks, users
		RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}
