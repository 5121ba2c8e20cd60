package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/auth"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
)

const clubIDPrefix = "club_"

// Accounting flag names accepted by SetAccountingFlag.
const (
	AccountingFlagSupplierPaid   = "supplierPaid"
	AccountingFlagClubPaid       = "clubPaid"
	AccountingFlagCommercialPaid = "commercialPaid"
	AccountingFlagCashCollected  = "cashCollected"
)

var (
	// ErrClubInvalidInput signals the caller provided invalid data.
	ErrClubInvalidInput = errors.New("club: invalid input")
	// ErrClubNotFound indicates the club could not be located.
	ErrClubNotFound = errors.New("club: not found")
	// ErrClubInvalidCredentials is deliberately generic: it never distinguishes
	// an unknown username from a wrong password.
	ErrClubInvalidCredentials = errors.New("club: invalid credentials")
	// ErrClubBlocked rejects authentication for a blocked club.
	ErrClubBlocked = errors.New("club: account blocked")
	// ErrClubUsernameTaken rejects duplicate login usernames.
	ErrClubUsernameTaken = errors.New("club: username already in use")
)

// SessionIssuer mints the portal token handed out after a successful login.
type SessionIssuer interface {
	Issue(session auth.ClubSession) (string, error)
}

// ClubLoginCommand carries the portal credentials.
type ClubLoginCommand struct {
	Username string
	Password string
}

// ClubLoginResult returns the session token plus the authenticated club.
type ClubLoginResult struct {
	Token string
	Club  Club
}

// CreateClubCommand registers a tenant.
type CreateClubCommand struct {
	Name               string
	Code               string
	Username           string
	Password           string
	Color              string
	LogoPath           string
	CommissionPct      *float64
	CashPaymentEnabled bool
}

// UpdateClubCommand edits tenant fields. Nil pointers leave the field untouched.
type UpdateClubCommand struct {
	ClubID             string
	Name               *string
	Password           *string
	Color              *string
	LogoPath           *string
	CommissionPct      *float64
	ClearCommission    bool
	CashPaymentEnabled *bool
	Blocked            *bool
}

// SetAccountingFlagCommand toggles one settlement flag for a batch key.
type SetAccountingFlagCommand struct {
	ClubID string
	Batch  BatchKey
	Flag   string
	Value  bool
}

// ClubServiceDeps bundles collaborators for the club service.
type ClubServiceDeps struct {
	Clubs         repositories.ClubRepository
	Sessions      SessionIssuer
	Clock         func() time.Time
	IDGenerator   func() string
	HashPassword  func(password string) (string, error)
	CheckPassword func(hash, password string) bool
}

type clubService struct {
	clubs         repositories.ClubRepository
	sessions      SessionIssuer
	clock         func() time.Time
	newID         func() string
	hashPassword  func(string) (string, error)
	checkPassword func(hash, password string) bool
}

// NewClubService wires dependencies into a concrete ClubService.
func NewClubService(deps ClubServiceDeps) (ClubService, error) {
	if deps.Clubs == nil {
		return nil, errors.New("club service: club repository is required")
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
	hash := deps.HashPassword
	if hash == nil {
		hash = auth.HashPassword
	}
	check := deps.CheckPassword
	if check == nil {
		check = auth.CheckPassword
	}
	return &clubService{
		clubs:         deps.Clubs,
		sessions:      deps.Sessions,
		clock:         func() time.Time { return clock().UTC() },
		newID:         idGen,
		hashPassword:  hash,
		checkPassword: check,
	}, nil
}

// Login authenticates the club portal. Blocked clubs are rejected outright;
// unknown usernames and wrong passwords both map to the same generic error.
func (s *clubService) Login(ctx context.Context, cmd ClubLoginCommand) (ClubLoginResult, error) {
	username := strings.TrimSpace(cmd.Username)
	if username == "" || cmd.Password == "" {
		return ClubLoginResult{}, ErrClubInvalidCredentials
	}

	club, err := s.clubs.FindByUsername(ctx, username)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return ClubLoginResult{}, ErrClubInvalidCredentials
		}
		return ClubLoginResult{}, err
	}
	if !s.checkPassword(club.PassHash, cmd.Password) {
		return ClubLoginResult{}, ErrClubInvalidCredentials
	}
	if club.Blocked {
		return ClubLoginResult{}, ErrClubBlocked
	}

	var token string
	if s.sessions != nil {
		token, err = s.sessions.Issue(auth.ClubSession{ClubID: club.ID, ClubName: club.Name})
		if err != nil {
			return ClubLoginResult{}, fmt.Errorf("club: issue session: %w", err)
		}
	}
	club.PassHash = ""
	return ClubLoginResult{Token: token, Club: club}, nil
}

func (s *clubService) GetClub(ctx context.Context, clubID string) (Club, error) {
	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return Club{}, fmt.Errorf("%w: club id is required", ErrClubInvalidInput)
	}
	club, err := s.clubs.FindByID(ctx, clubID)
	if err != nil {
		return Club{}, s.mapRepositoryError(err)
	}
	return club, nil
}

func (s *clubService) ListClubs(ctx context.Context) ([]Club, error) {
	clubs, err := s.clubs.List(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return clubs, nil
}

func (s *clubService) CreateClub(ctx context.Context, cmd CreateClubCommand) (Club, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return Club{}, fmt.Errorf("%w: name is required", ErrClubInvalidInput)
	}
	username := strings.TrimSpace(cmd.Username)
	if username == "" {
		return Club{}, fmt.Errorf("%w: username is required", ErrClubInvalidInput)
	}
	if len(cmd.Password) < 8 {
		return Club{}, fmt.Errorf("%w: password must be at least 8 characters", ErrClubInvalidInput)
	}
	if cmd.CommissionPct != nil && (*cmd.CommissionPct < 0 || *cmd.CommissionPct >= 1) {
		return Club{}, fmt.Errorf("%w: commission must be a fraction below 1", ErrClubInvalidInput)
	}

	if _, err := s.clubs.FindByUsername(ctx, username); err == nil {
		return Club{}, ErrClubUsernameTaken
	} else {
		var repoErr repositories.RepositoryError
		if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
			return Club{}, s.mapRepositoryError(err)
		}
	}

	passHash, err := s.hashPassword(cmd.Password)
	if err != nil {
		return Club{}, fmt.Errorf("club: hash password: %w", err)
	}

	now := s.clock()
	club := domain.Club{
		ID:                 clubIDPrefix + s.newID(),
		Name:               strings.TrimSpace(cmd.Name),
		Code:               strings.TrimSpace(cmd.Code),
		Username:           username,
		PassHash:           passHash,
		Color:              strings.TrimSpace(cmd.Color),
		LogoPath:           strings.TrimSpace(cmd.LogoPath),
		ActiveGlobalBatch:  1,
		ActiveErrorBatch:   1,
		CommissionPct:      cmd.CommissionPct,
		CashPaymentEnabled: cmd.CashPaymentEnabled,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.clubs.Insert(ctx, club); err != nil {
		return Club{}, s.mapRepositoryError(err)
	}
	club.PassHash = ""
	return club, nil
}

func (s *clubService) UpdateClub(ctx context.Context, cmd UpdateClubCommand) (Club, error) {
	club, err := s.GetClub(ctx, cmd.ClubID)
	if err != nil {
		return Club{}, err
	}

	if cmd.Name != nil {
		if strings.TrimSpace(*cmd.Name) == "" {
			return Club{}, fmt.Errorf("%w: name is required", ErrClubInvalidInput)
		}
		club.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.Password != nil {
		if len(*cmd.Password) < 8 {
			return Club{}, fmt.Errorf("%w: password must be at least 8 characters", ErrClubInvalidInput)
		}
		passHash, err := s.hashPassword(*cmd.Password)
		if err != nil {
			return Club{}, fmt.Errorf("club: hash password: %w", err)
		}
		club.PassHash = passHash
	}
	if cmd.Color != nil {
		club.Color = strings.TrimSpace(*cmd.Color)
	}
	if cmd.LogoPath != nil {
		club.LogoPath = strings.TrimSpace(*cmd.LogoPath)
	}
	if cmd.ClearCommission {
		club.CommissionPct = nil
	} else if cmd.CommissionPct != nil {
		if *cmd.CommissionPct < 0 || *cmd.CommissionPct >= 1 {
			return Club{}, fmt.Errorf("%w: commission must be a fraction below 1", ErrClubInvalidInput)
		}
		club.CommissionPct = cmd.CommissionPct
	}
	if cmd.CashPaymentEnabled != nil {
		club.CashPaymentEnabled = *cmd.CashPaymentEnabled
	}
	if cmd.Blocked != nil {
		club.Blocked = *cmd.Blocked
	}
	club.UpdatedAt = s.clock()

	saved, err := s.clubs.Save(ctx, club)
	if err != nil {
		return Club{}, s.mapRepositoryError(err)
	}
	saved.PassHash = ""
	return saved, nil
}

// SetAccountingFlag toggles one settlement flag on the club's accounting log,
// stamping or clearing the matching date.
func (s *clubService) SetAccountingFlag(ctx context.Context, cmd SetAccountingFlagCommand) (AccountingEntry, error) {
	club, err := s.GetClub(ctx, cmd.ClubID)
	if err != nil {
		return AccountingEntry{}, err
	}
	if err := cmd.Batch.Validate(); err != nil {
		return AccountingEntry{}, fmt.Errorf("%w: %v", ErrClubInvalidInput, err)
	}

	entry := club.AccountingLog[cmd.Batch.String()]
	now := s.clock()
	var stamp *time.Time
	if cmd.Value {
		stamp = &now
	}

	switch cmd.Flag {
	case AccountingFlagSupplierPaid:
		entry.SupplierPaid = cmd.Value
		entry.SupplierPaidDate = stamp
	case AccountingFlagClubPaid:
		entry.ClubPaid = cmd.Value
		entry.ClubPaidDate = stamp
	case AccountingFlagCommercialPaid:
		entry.CommercialPaid = cmd.Value
		entry.CommercialPaidDate = stamp
	case AccountingFlagCashCollected:
		entry.CashCollected = cmd.Value
		entry.CashCollectedDate = stamp
	default:
		return AccountingEntry{}, fmt.Errorf("%w: unknown accounting flag %q", ErrClubInvalidInput, cmd.Flag)
	}

	if err := s.clubs.SetAccountingEntry(ctx, club.ID, cmd.Batch, entry); err != nil {
		return AccountingEntry{}, s.mapRepositoryError(err)
	}
	return entry, nil
}

func (s *clubService) SetNextBatchDate(ctx context.Context, clubID string, date *time.Time) error {
	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return fmt.Errorf("%w: club id is required", ErrClubInvalidInput)
	}
	if err := s.clubs.SetNextBatchDate(ctx, clubID, date); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *clubService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrClubNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("club: repository unavailable: %w", err)
		}
	}
	return err
}
