package server

import (
	"errors"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/agenthands/groundtruth/internal/core/model"
)

var (
	zipCodePattern = regexp.MustCompile(`^[0-9]{5}$`)
	registerOnce   sync.Once
)

type ZipCodeForm struct {
	Name              string   `form:"name" binding:"required,zipcode"`
	HomeownershipRate float64  `form:"homeownership_rate" binding:"gte=0,lte=100"`
	MedianHomeAge     int      `form:"median_home_age" binding:"gte=0"`
	ContactIDs        []string `form:"contact_ids"`
}

func (f ZipCodeForm) Input() model.ZipCodeInput {
	return model.ZipCodeInput{
		Name:              f.Name,
		HomeownershipRate: f.HomeownershipRate,
		MedianHomeAge:     f.MedianHomeAge,
	}
}

type AssociationForm struct {
	ZipID string `form:"zip_id"`
}

func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("zipcode", func(fl validator.FieldLevel) bool {
				return zipCodePattern.MatchString(fl.Field().String())
			})
		}
	})
}

var fieldMessages = map[string]map[string]string{
	"Name": {
		"required": "Please enter a zip code.",
		"zipcode":  "Zip code must be exactly 5 digits (e.g., 84101).",
	},
	"HomeownershipRate": {
		"gte": "Homeownership rate cannot be negative.",
		"lte": "Homeownership rate cannot exceed 100%.",
	},
	"MedianHomeAge": {
		"gte": "Median home age cannot be negative.",
	},
}

// validationMessage turns a binding error into the first user-facing message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if msg, ok := fieldMessages[fe.Field()][fe.Tag()]; ok {
				return msg
			}
		}
	}
	return "Please check the values you entered. Rates may have decimals, home age must be a whole number."
}
