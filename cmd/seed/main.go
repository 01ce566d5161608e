package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"tastebook-backend/config"
	"tastebook-backend/internal/database"
	"tastebook-backend/internal/models"
)

// fixture is the JSON shape of a catalog seed file.
type fixture struct {
	Tags        []models.Tag        `json:"tags"`
	Ingredients []models.Ingredient `json:"ingredients"`
}

var defaultFixture = fixture{
	Tags: []models.Tag{
		{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
		{Name: "Lunch", Color: "#49B64E", Slug: "lunch"},
		{Name: "Dinner", Color: "#8775D2", Slug: "dinner"},
	},
	Ingredients: []models.Ingredient{
		{Name: "Salt", MeasurementUnit: "g"},
		{Name: "Sugar", MeasurementUnit: "g"},
		{Name: "Milk", MeasurementUnit: "ml"},
		{Name: "Flour", MeasurementUnit: "g"},
		{Name: "Egg", MeasurementUnit: "pc"},
	},
}

func main() {
	fixturePath := flag.String("fixture", "", "path to a JSON catalog fixture; built-in defaults when empty")
	flag.Parse()

	data := defaultFixture
	if *fixturePath != "" {
		raw, err := os.ReadFile(*fixturePath)
		if err != nil {
			log.Fatalf("Failed to read fixture: %v", err)
		}
		data = fixture{}
		if err := json.Unmarshal(raw, &data); err != nil {
			log.Fatalf("Failed to parse fixture: %v", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	for _, tag := range data.Tags {
		if err := db.Where(models.Tag{Name: tag.Name}).FirstOrCreate(&tag).Error; err != nil {
			log.Fatalf("Failed to seed tag %q: %v", tag.Name, err)
		}
	}
	for _, ingredient := range data.Ingredients {
		if err := db.Where(models.Ingredient{Name: ingredient.Name}).FirstOrCreate(&ingredient).Error; err != nil {
			log.Fatalf("Failed to seed ingredient %q: %v", ingredient.Name, err)
		}
	}

	log.Printf("Seeded %d tags and %d ingredients", len(data.Tags), len(data.Ingredients))
}
