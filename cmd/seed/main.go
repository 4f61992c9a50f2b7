// Seeds a local database with a demo user and a handful of articles so the
// API has something to serve before the first search runs.
package main

import (
	"flag"
	"log"
	"time"

	"news-aggregator/internal/database"
	"news-aggregator/internal/models"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	username := flag.String("user", "demo", "username for the seeded account")
	password := flag.String("password", "demo-password", "password for the seeded account")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := database.Connect(database.LoadConfig()); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	db := database.DB

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}
	user := models.User{Username: *username, PasswordHash: string(hash)}
	if err := db.Where("username = ?", *username).FirstOrCreate(&user).Error; err != nil {
		log.Fatal("Failed to seed user:", err)
	}
	log.Printf("Seeded user %q", user.Username)

	source := models.Source{
		Name:     "Example Wire",
		URL:      "https://www.examplewire.com",
		Language: "en",
	}
	if err := db.Where("url = ?", source.URL).FirstOrCreate(&source).Error; err != nil {
		log.Fatal("Failed to seed source:", err)
	}

	now := time.Now()
	categories := "technology,science"
	articles := []models.Article{
		{
			Title:         "Grid-scale batteries pass a durability milestone",
			URL:           "https://www.examplewire.com/batteries-milestone",
			Content:       "A multi-year field trial of grid-scale battery installations reported capacity retention above expectations.",
			SourceID:      &source.ID,
			PublishedDate: &now,
			Language:      "en",
			Categories:    &categories,
		},
		{
			Title:         "Open dataset released for regional air quality",
			URL:           "https://www.examplewire.com/air-quality-dataset",
			Content:       "Researchers published a decade of hourly air quality measurements covering forty monitoring stations.",
			SourceID:      &source.ID,
			PublishedDate: &now,
			Language:      "en",
			Categories:    &categories,
		},
	}
	for i := range articles {
		if err := db.Where("url = ?", articles[i].URL).FirstOrCreate(&articles[i]).Error; err != nil {
			log.Fatal("Failed to seed article:", err)
		}
	}
	log.Printf("Seeded %d articles from %q", len(articles), source.Name)
}
