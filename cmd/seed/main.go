// Command main runs the database seeder for MindBridge.
package main

import (
	"flag"
	"log"

	"mindbridge/internal/config"
	"mindbridge/internal/database"
	"mindbridge/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numCircles := flag.Int("circles", 12, "Number of circles to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	numFeedback := flag.Int("feedback", 40, "Number of anonymous feedback posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d circles, %d posts, %d feedback, clean=%v\n",
		*numUsers, *numCircles, *numPosts, *numFeedback, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumCircles:  *numCircles,
		NumPosts:    *numPosts,
		NumFeedback: *numFeedback,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	// After a clean the starter circles need to come back.
	if err := seed.Circles(db); err != nil {
		log.Fatalf("❌ Built-in circle seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with demo data.")
	log.Println("📧 All demo users have the password: password123")
}
