package monthly

import (
	"errors"
	"regexp"
	"strings"

	"github.com/patrickrooney09/tiba-update-user/internal/smartpark"
)

var (
	ErrMissingMonthlyID = errors.New("monthly account id is required")
	ErrInvalidPlate     = errors.New("license plate may contain only A-Z and 0-9")
	ErrTooManyPlates    = errors.New("a monthly account holds at most 5 license plates")
	ErrDiscountBounds   = errors.New("discount must be between 1 and 2000 cents")
)

// MaxDiscountCents caps a single front-desk discount at $20.
const MaxDiscountCents int64 = 2000

const maxPlates = 5

var platePattern = regexp.MustCompile(`^[A-Z0-9]*$`)

// UpdateRequest is a full replacement record as submitted by the admin UI,
// plus the audit hints the provider never sees.
type UpdateRequest struct {
	smartpark.MonthlyUpdate
	IsDiscount bool   `json:"isDiscount"`
	Reason     string `json:"reason"`
}

type DetailsRequest struct {
	MonthlyID string `json:"monthlyId"`
}

type DiscountRequest struct {
	MonthlyID   string `json:"monthlyId"`
	AmountCents int64  `json:"amountCents"`
	Reason      string `json:"reason"`
}

type UpdateResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Record  *smartpark.Monthly `json:"record,omitempty"`
}

// normalizePlates upper-cases the submitted plates, drops blanks and
// rejects anything outside A-Z0-9. The provider stores plates verbatim, so
// bad characters would silently break gate recognition.
func normalizePlates(cars []smartpark.Car) ([]smartpark.Car, error) {
	out := make([]smartpark.Car, 0, len(cars))
	for _, car := range cars {
		plate := strings.ToUpper(strings.TrimSpace(car.PlateID))
		if plate == "" {
			continue
		}
		if !platePattern.MatchString(plate) {
			return nil, ErrInvalidPlate
		}
		car.PlateID = plate
		out = append(out, car)
	}
	if len(out) > maxPlates {
		return nil, ErrTooManyPlates
	}
	return out, nil
}
