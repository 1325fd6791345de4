// Package cases manages the per-user case registry on top of the vault
// store, filling in the registry fields the court interface displays.
package cases

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lextrack/lextrack/internal/legalai"
	"github.com/lextrack/lextrack/internal/models"
	"github.com/lextrack/lextrack/internal/vault"
)

var ErrCaseNotFound = errors.New("cases: case not found")

const cnrAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

type Service struct {
	vault *vault.Store
	ai    *legalai.Service

	// Research results are held in memory only; a restart drops them and
	// the next request hits the collaborator again.
	mu       sync.Mutex
	research map[string]legalai.Research
}

func NewService(store *vault.Store, ai *legalai.Service) *Service {
	return &Service{vault: store, ai: ai, research: make(map[string]legalai.Research)}
}

// CreateInput carries the fields the filing form collects; everything else
// on the record is generated here.
type CreateInput struct {
	Title           string `json:"title" binding:"required"`
	CaseType        string `json:"caseType" binding:"required"`
	Court           string `json:"court"`
	Time            string `json:"time"` // HH:MM
	Description     string `json:"description"`
	NextHearingDate string `json:"nextHearingDate"` // YYYY-MM-DD
}

// Create registers a case for the user. The required-document list comes
// from the collaborator; it degrades to a fixed list, so filing never blocks
// on its availability.
func (s *Service) Create(ctx context.Context, user models.User, in CreateInput) (vault.Case, error) {
	docs := s.ai.SuggestRequiredDocuments(ctx, in.CaseType, in.Description)

	petitioner := "Confidential Petitioner"
	if user.Role == models.RoleClient {
		petitioner = user.FullName
	}

	c := vault.Case{
		ID:                ulid.Make().String(),
		UserID:            user.ID,
		Title:             in.Title,
		CaseType:          in.CaseType,
		CNR:               "LT-" + randomUpper(6),
		Court:             in.Court,
		Hall:              fmt.Sprintf("Hall %d", randomInt(15)+1),
		Time:              in.Time,
		Stage:             "Filing",
		Risk:              "medium",
		NextStep:          "Document Verification",
		Session:           sessionForTime(in.Time),
		Petitioner:        petitioner,
		Respondent:        "Pending Information",
		Description:       in.Description,
		LastOrderDate:     time.Now().Format("2006-01-02"),
		NextHearingDate:   in.NextHearingDate,
		RequiredDocuments: docs,
	}

	existing, err := s.vault.LoadCases(ctx, user.ID)
	if err != nil {
		return vault.Case{}, err
	}
	updated := append([]vault.Case{c}, existing...)
	if err := s.vault.SaveCases(ctx, user.ID, updated); err != nil {
		return vault.Case{}, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]vault.Case, error) {
	return s.vault.LoadCases(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, caseID string) (vault.Case, error) {
	list, err := s.vault.LoadCases(ctx, userID)
	if err != nil {
		return vault.Case{}, err
	}
	for _, c := range list {
		if c.ID == caseID {
			return c, nil
		}
	}
	return vault.Case{}, ErrCaseNotFound
}

func (s *Service) Delete(ctx context.Context, userID, caseID string) error {
	list, err := s.vault.LoadCases(ctx, userID)
	if err != nil {
		return err
	}
	kept := list[:0]
	found := false
	for _, c := range list {
		if c.ID == caseID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return ErrCaseNotFound
	}
	s.mu.Lock()
	delete(s.research, caseID)
	s.mu.Unlock()
	return s.vault.SaveCases(ctx, userID, kept)
}

// Research returns the collaborator's precedent digest for the case, served
// from the in-memory cache after the first call.
func (s *Service) Research(ctx context.Context, userID, caseID string) (legalai.Research, error) {
	c, err := s.Get(ctx, userID, caseID)
	if err != nil {
		return legalai.Research{}, err
	}

	s.mu.Lock()
	cached, ok := s.research[caseID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	res := s.ai.ResearchCase(ctx, c.Title, c.Description)

	s.mu.Lock()
	s.research[caseID] = res
	s.mu.Unlock()
	return res, nil
}

func sessionForTime(hhmm string) string {
	h, _, ok := strings.Cut(hhmm, ":")
	if !ok {
		return "Morning"
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 12 {
		return "Morning"
	}
	return "Afternoon"
}

func randomUpper(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = cnrAlphabet[randomInt(len(cnrAlphabet))]
	}
	return string(b)
}

func randomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
