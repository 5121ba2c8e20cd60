package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
)

const giftCodeIDPrefix = "gc_"

// GiftCodeContext names where the code is being applied.
type GiftCodeContext string

const (
	// GiftCodeContextCart applies the code to the whole cart total.
	GiftCodeContextCart GiftCodeContext = "cart"
	// GiftCodeContextProduct applies the code on a product page.
	GiftCodeContextProduct GiftCodeContext = "product"
)

var (
	// ErrGiftCodeNotFound means the entered code does not exist.
	ErrGiftCodeNotFound = errors.New("giftcode: invalid code")
	// ErrGiftCodeWrongClub means the code is restricted to another club.
	ErrGiftCodeWrongClub = errors.New("giftcode: not valid for this club")
	// ErrGiftCodeRedeemed means the code was already spent.
	ErrGiftCodeRedeemed = errors.New("giftcode: already used")
	// ErrGiftCodeWrongContext means a product code was entered in the cart or vice versa.
	ErrGiftCodeWrongContext = errors.New("giftcode: not applicable in this context")
	// ErrGiftCodeInvalidInput signals bad creation input.
	ErrGiftCodeInvalidInput = errors.New("giftcode: invalid input")
)

// ValidateGiftCodeCommand checks one entered code against an application context.
type ValidateGiftCodeCommand struct {
	Code    string
	ClubID  string
	Context GiftCodeContext
	// Total is the cart subtotal in euro cents; used to compute the effect.
	Total int64
	// ProductID is the product page the code is entered on, for product context.
	ProductID string
}

// GiftCodeResolution is the validated code plus its computed monetary effect.
type GiftCodeResolution struct {
	Code       GiftCode
	Discount   int64
	FinalTotal int64
	// FreeProductID is set for product-type codes: that product is added gift-priced.
	FreeProductID string
}

// CreateGiftCodeCommand registers a new discount code.
type CreateGiftCodeCommand struct {
	Code        string
	Type        domain.GiftCodeType
	Value       int64
	ApplyTo     string
	AllowedClub string
	ProductID   string
}

// GiftCodeServiceDeps bundles collaborators for the gift code service.
type GiftCodeServiceDeps struct {
	GiftCodes   repositories.GiftCodeRepository
	Clock       func() time.Time
	IDGenerator func() string
}

type giftCodeService struct {
	codes repositories.GiftCodeRepository
	clock func() time.Time
	newID func() string
}

// NewGiftCodeService wires dependencies into a concrete GiftCodeService.
func NewGiftCodeService(deps GiftCodeServiceDeps) (GiftCodeService, error) {
	if deps.GiftCodes == nil {
		return nil, errors.New("giftcode service: gift code repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	return &giftCodeService{
		codes: deps.GiftCodes,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

// Validate checks the entered code. Failures short-circuit in a fixed order:
// unknown code, wrong club, already redeemed, wrong application context.
func (s *giftCodeService) Validate(ctx context.Context, cmd ValidateGiftCodeCommand) (GiftCodeResolution, error) {
	entered := strings.ToUpper(strings.TrimSpace(cmd.Code))
	if entered == "" {
		return GiftCodeResolution{}, ErrGiftCodeNotFound
	}

	code, err := s.codes.FindByCode(ctx, entered)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return GiftCodeResolution{}, ErrGiftCodeNotFound
		}
		return GiftCodeResolution{}, err
	}

	if code.AllowedClub != "" && code.AllowedClub != domain.ScopeAll && code.AllowedClub != strings.TrimSpace(cmd.ClubID) {
		return GiftCodeResolution{}, ErrGiftCodeWrongClub
	}
	if code.Status == domain.GiftCodeRedeemed {
		return GiftCodeResolution{}, ErrGiftCodeRedeemed
	}

	switch cmd.Context {
	case GiftCodeContextCart:
		if code.ApplyTo != domain.ScopeAll {
			return GiftCodeResolution{}, fmt.Errorf("%w: use this code on the product page", ErrGiftCodeWrongContext)
		}
	case GiftCodeContextProduct:
		if code.ApplyTo == domain.ScopeAll {
			return GiftCodeResolution{}, fmt.Errorf("%w: use this code in the cart", ErrGiftCodeWrongContext)
		}
	default:
		return GiftCodeResolution{}, fmt.Errorf("%w: unknown context %q", ErrGiftCodeWrongContext, cmd.Context)
	}

	resolution := GiftCodeResolution{Code: code, FinalTotal: cmd.Total}
	switch code.Type {
	case domain.GiftCodePercent:
		resolution.Discount = cmd.Total * code.Value / 100
	case domain.GiftCodeFixed:
		resolution.Discount = code.Value
		if resolution.Discount > cmd.Total {
			resolution.Discount = cmd.Total
		}
	case domain.GiftCodeProduct:
		resolution.FreeProductID = code.ProductID
	}
	resolution.FinalTotal = cmd.Total - resolution.Discount
	if resolution.FinalTotal < 0 {
		resolution.FinalTotal = 0
	}
	return resolution, nil
}

// Redeem flips the code to redeemed; an already-spent code surfaces as ErrGiftCodeRedeemed.
func (s *giftCodeService) Redeem(ctx context.Context, codeID string) error {
	codeID = strings.TrimSpace(codeID)
	if codeID == "" {
		return fmt.Errorf("%w: code id is required", ErrGiftCodeInvalidInput)
	}
	if err := s.codes.MarkRedeemed(ctx, codeID, s.clock()); err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) {
			switch {
			case repoErr.IsNotFound():
				return ErrGiftCodeNotFound
			case repoErr.IsConflict():
				return ErrGiftCodeRedeemed
			}
		}
		return err
	}
	return nil
}

func (s *giftCodeService) Create(ctx context.Context, cmd CreateGiftCodeCommand) (GiftCode, error) {
	token := strings.ToUpper(strings.TrimSpace(cmd.Code))
	if token == "" {
		return GiftCode{}, fmt.Errorf("%w: code is required", ErrGiftCodeInvalidInput)
	}
	switch cmd.Type {
	case domain.GiftCodePercent:
		if cmd.Value <= 0 || cmd.Value > 100 {
			return GiftCode{}, fmt.Errorf("%w: percent value must be between 1 and 100", ErrGiftCodeInvalidInput)
		}
	case domain.GiftCodeFixed:
		if cmd.Value <= 0 {
			return GiftCode{}, fmt.Errorf("%w: fixed value must be positive", ErrGiftCodeInvalidInput)
		}
	case domain.GiftCodeProduct:
		if strings.TrimSpace(cmd.ProductID) == "" {
			return GiftCode{}, fmt.Errorf("%w: product codes need a product id", ErrGiftCodeInvalidInput)
		}
	default:
		return GiftCode{}, fmt.Errorf("%w: unknown code type %q", ErrGiftCodeInvalidInput, cmd.Type)
	}

	applyTo := strings.TrimSpace(cmd.ApplyTo)
	if applyTo == "" {
		applyTo = domain.ScopeAll
	}
	allowedClub := strings.TrimSpace(cmd.AllowedClub)
	if allowedClub == "" {
		allowedClub = domain.ScopeAll
	}

	code := domain.GiftCode{
		ID:          giftCodeIDPrefix + s.newID(),
		Code:        token,
		Type:        cmd.Type,
		Value:       cmd.Value,
		ApplyTo:     applyTo,
		AllowedClub: allowedClub,
		Status:      domain.GiftCodeActive,
		ProductID:   strings.TrimSpace(cmd.ProductID),
		CreatedAt:   s.clock(),
	}
	if err := s.codes.Insert(ctx, code); err != nil {
		return GiftCode{}, err
	}
	return code, nil
}

func (s *giftCodeService) List(ctx context.Context) ([]GiftCode, error) {
	return s.codes.List(ctx)
}
