package request

import (
	"errors"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/vietanh2810/raffle-api/internal/domain"
)

var (
	// creatorCodePattern accepts 2 to 32 characters starting with a letter or digit.
	creatorCodePattern = regexp2.MustCompile(`^(?=.{2,32}$)[A-Z0-9][A-Z0-9_-]*$`, regexp2.None)
	// raffleIDPattern accepts slugs that do not end with a separator.
	raffleIDPattern = regexp2.MustCompile(`^(?=.{1,64}$)[a-zA-Z0-9](?:[a-zA-Z0-9_-]*[a-zA-Z0-9])?$`, regexp2.None)

	errCreatorCodeFormat = errors.New("must be 2-32 letters, digits, '-' or '_'")
	errRaffleIDFormat    = errors.New("must be up to 64 letters, digits, '-' or '_'")
)

func matches(pattern *regexp2.Regexp, formatErr error, normalize func(string) string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if normalize != nil {
			s = normalize(s)
		}
		if s == "" {
			return nil
		}

		ok, err := pattern.MatchString(s)
		if err != nil {
			return err
		}
		if !ok {
			return formatErr
		}

		return nil
	}
}

func normalizeCreatorCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type BuyTicketsRequest struct {
	Qty         int    `json:"qty" example:"3"`
	CreatorCode string `json:"creator_code,omitempty" example:"STREAMER_1"`
	RoundID     *uint  `json:"round_id,omitempty"`
}

func (req *BuyTicketsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Qty, validation.Required, validation.Min(1), validation.Max(10000)),
		validation.Field(&req.CreatorCode, validation.By(matches(creatorCodePattern, errCreatorCodeFormat, normalizeCreatorCode))),
		validation.Field(&req.RoundID, validation.NilOrNotEmpty),
	)
}

type RaffleRequest struct {
	ID          string  `json:"id,omitempty" example:"weekly-bike"`
	Title       string  `json:"title" example:"Weekly bike raffle"`
	Prize       string  `json:"prize" example:"City bike"`
	TicketPrice float64 `json:"ticket_price" example:"2.5"`
	DurationMs  int64   `json:"duration_ms" example:"600000"`
	Image       string  `json:"image,omitempty"`
	Description string  `json:"description,omitempty"`
}

func (req *RaffleRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ID, validation.By(matches(raffleIDPattern, errRaffleIDFormat, nil))),
		validation.Field(&req.Title, validation.Required),
		validation.Field(&req.Prize, validation.Required),
		validation.Field(&req.TicketPrice, validation.Min(0.0)),
		validation.Field(&req.DurationMs, validation.Required, validation.Min(int64(1000))),
	)
}

func (req *RaffleRequest) ToDomain() domain.Raffle {
	return domain.Raffle{
		ID:          req.ID,
		Title:       strings.TrimSpace(req.Title),
		Prize:       strings.TrimSpace(req.Prize),
		TicketPrice: req.TicketPrice,
		Duration:    time.Duration(req.DurationMs) * time.Millisecond,
		Image:       req.Image,
		Description: req.Description,
	}
}
