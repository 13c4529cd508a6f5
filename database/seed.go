package database

import (
	"log"

	"gorm.io/gorm"
)

var defaultCategories = []map[string]string{
	{"pt-BR": "Tecnologia", "en": "Technology", "es": "Tecnología"},
	{"pt-BR": "Viagem", "en": "Travel", "es": "Viajes"},
	{"pt-BR": "Culinária", "en": "Food", "es": "Cocina"},
	{"pt-BR": "Esportes", "en": "Sports", "es": "Deportes"},
	{"pt-BR": "Estilo de vida", "en": "Lifestyle", "es": "Estilo de vida"},
	{"pt-BR": "Outros", "en": "Other", "es": "Otros"},
}

// SeedCategories inserts the default categories when the catalog is empty.
func SeedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, names := range defaultCategories {
			category := Category{}
			for locale, name := range names {
				category.Translations = append(category.Translations, CategoryTranslation{Locale: locale, Name: name})
			}
			if err := tx.Create(&category).Error; err != nil {
				return err
			}
		}
		log.Printf("Seeded %d default categories", len(defaultCategories))
		return nil
	})
}
