package voices

import (
	"encoding/json"
	"errors"
	"log/slog"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type seedVoice struct {
	ExternalID  string
	Name        string
	Description string
	Labels      map[string]string
}

// Default catalog shipped to every install. External ids are the provider's
// premade voice ids.
var seedVoices = []seedVoice{
	{ExternalID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel", Description: "Calm, young, American narration voice", Labels: map[string]string{"accent": "american", "gender": "female", "use_case": "narration"}},
	{ExternalID: "29vD33N1CtxCmqQRPOHJ", Name: "Drew", Description: "Well-rounded, middle-aged American male", Labels: map[string]string{"accent": "american", "gender": "male", "use_case": "news"}},
	{ExternalID: "2EiwWnXFnvU5JabPnv8n", Name: "Clyde", Description: "War veteran character voice, gravelly", Labels: map[string]string{"accent": "american", "gender": "male", "use_case": "characters"}},
	{ExternalID: "AZnzlk1XvdvUeBnXmlld", Name: "Domi", Description: "Strong, confident, youthful", Labels: map[string]string{"accent": "american", "gender": "female", "use_case": "narration"}},
	{ExternalID: "CYw3kZ02Hs0563khs1Fj", Name: "Dave", Description: "Conversational British male", Labels: map[string]string{"accent": "british", "gender": "male", "use_case": "conversational"}},
	{ExternalID: "D38z5RcWu1voky8WS1ja", Name: "Fin", Description: "Old Irish sailor character", Labels: map[string]string{"accent": "irish", "gender": "male", "use_case": "characters"}},
	{ExternalID: "EXAVITQu4vr4xnSDxMaL", Name: "Sarah", Description: "Soft news presenter voice", Labels: map[string]string{"accent": "american", "gender": "female", "use_case": "news"}},
	{ExternalID: "ErXwobaYiN019PkySvjV", Name: "Antoni", Description: "Well-rounded male narration", Labels: map[string]string{"accent": "american", "gender": "male", "use_case": "narration"}},
	{ExternalID: "IKne3meq5aSn9XLyUdCD", Name: "Charlie", Description: "Casual Australian male", Labels: map[string]string{"accent": "australian", "gender": "male", "use_case": "conversational"}},
	{ExternalID: "JBFqnCBsd6RMkjVDRZzb", Name: "George", Description: "Warm British storyteller", Labels: map[string]string{"accent": "british", "gender": "male", "use_case": "narration"}},
	{ExternalID: "LcfcDJNUP1GQjkzn1xUU", Name: "Emily", Description: "Calm meditative female voice", Labels: map[string]string{"accent": "american", "gender": "female", "use_case": "meditation"}},
	{ExternalID: "MF3mGyEYCl7XYWbV9V6O", Name: "Elli", Description: "Emotional young female narration", Labels: map[string]string{"accent": "american", "gender": "female", "use_case": "narration"}},
	{ExternalID: "TX3LPaxmHKxFdv7VOQHJ", Name: "Liam", Description: "Articulate young American male", Labels: map[string]string{"accent": "american", "gender": "male", "use_case": "narration"}},
	{ExternalID: "ThT5KcBeYPX3keUQqHPh", Name: "Dorothy", Description: "Pleasant British voice for children's stories", Labels: map[string]string{"accent": "british", "gender": "female", "use_case": "childrens_stories"}},
	{ExternalID: "XB0fDUnXU5powFXDhCwa", Name: "Charlotte", Description: "Seductive Swedish-accented character", Labels: map[string]string{"accent": "swedish", "gender": "female", "use_case": "characters"}},
	{ExternalID: "pNInz6obpgDQGcFmaJgB", Name: "Adam", Description: "Deep American male narration", Labels: map[string]string{"accent": "american", "gender": "male", "use_case": "narration"}},
}

// SeedCatalog upserts the default voice catalog keyed by external id.
// Running it twice never duplicates an entry.
func SeedCatalog(db *gorm.DB) error {
	seeded := 0

	for _, sv := range seedVoices {
		labelsJSON, err := json.Marshal(sv.Labels)
		if err != nil {
			return err
		}

		var existing Voice
		err = db.Where("external_id = ?", sv.ExternalID).First(&existing).Error
		if err == nil {
			updates := map[string]interface{}{
				"name":        sv.Name,
				"description": sv.Description,
				"labels":      labelsJSON,
			}
			if err := db.Model(&existing).Updates(updates).Error; err != nil {
				return err
			}
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		voice := Voice{
			ExternalID:  sv.ExternalID,
			Name:        sv.Name,
			Description: sv.Description,
			Category:    CategoryPremade,
			Labels:      datatypes.JSON(labelsJSON),
		}
		if err := db.Create(&voice).Error; err != nil {
			return err
		}
		seeded++
	}

	if seeded > 0 {
		slog.Info("seeded voice catalog", "new", seeded, "total", len(seedVoices))
	}
	return nil
}
