package bill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/billsplit/internal/scanning"
)

// ErrNoBill is returned for operations that need an analyzed bill before
// one has been uploaded.
var ErrNoBill = errors.New("no bill has been analyzed for this session")

// IDGenerator generates unique IDs for sessions and items
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles bill splitting sessions
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     ImageStore
	scanTimeout time.Duration
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with uuid IDs and the wall clock
func NewService(db DB, scanner scanning.Scanner, storage ImageStore, scanTimeout time.Duration) *Service {
	return NewServiceWithDeps(db, scanner, storage, scanTimeout, uuidGenerator{}, defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage ImageStore, scanTimeout time.Duration, idGen IDGenerator, timeSrc TimeSource) *Service {
	if scanTimeout <= 0 {
		scanTimeout = 30 * time.Second
	}
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		scanTimeout: scanTimeout,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// CreateSession starts a session from a comma-separated list of participant
// names. Names are trimmed and empty entries dropped; the participant set
// is fixed for the life of the session.
func (s *Service) CreateSession(namesCSV string) (*Session, error) {
	var participants []string
	for _, name := range strings.Split(namesCSV, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		participants = append(participants, name)
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	now := s.timeSource.Now()
	session := &Session{
		ID:           s.idGenerator.Generate(),
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.db.SaveSession(session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session by ID
func (s *Service) GetSession(id string) (*Session, error) {
	session, err := s.db.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return session, nil
}

// ListSessions returns all sessions
func (s *Service) ListSessions() ([]*Session, error) {
	sessions, err := s.db.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

// sanitizeFilename cleans up a filename by removing special characters and
// truncating length (phone-generated names can be long and odd)
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "bill"
	}

	return base + ext
}

// dollarsToCents converts a model-reported dollar amount to integer cents
func dollarsToCents(v float64) int {
	return int(math.Round(v * 100))
}

// AnalyzeBill stores the uploaded image, runs the scanner on it under the
// configured deadline, and replaces the session's bill with the extraction
// result. Allocations are reset to an empty sharer set per item; the
// extracted total is stored as reported and only recomputed on edit.
func (s *Service) AnalyzeBill(ctx context.Context, id string, filename string, data []byte, contentType string) (*Session, error) {
	session, err := s.db.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	cleanFilename := sanitizeFilename(filename)
	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", session.ID, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	scanCtx, cancel := context.WithTimeout(ctx, s.scanTimeout)
	defer cancel()

	billData, err := s.scanner.ScanBill(scanCtx, data, contentType)
	if err != nil {
		slog.Error("Failed to scan bill",
			"session_id", session.ID,
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Clean up the saved file since scanning failed
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("scanning bill: %w", err)
	}

	items := make([]Item, 0, len(billData.Items))
	allocations := make(map[string][]string, len(billData.Items))
	for _, extracted := range billData.Items {
		item := Item{
			ID:         s.idGenerator.Generate(),
			Name:       extracted.Name,
			PriceCents: dollarsToCents(extracted.Price),
		}
		items = append(items, item)
		allocations[item.ID] = []string{}
	}

	// A new analysis replaces any prior bill and its stored image
	if session.ImageFile != "" && session.ImageFile != savedPath {
		if err := s.storage.Delete(session.ImageFile); err != nil {
			slog.Warn("Failed to delete previous bill image", "filename", session.ImageFile, "error", err)
		}
	}

	session.Bill = &Bill{
		Items:         items,
		SubtotalCents: dollarsToCents(billData.Subtotal),
		TaxCents:      dollarsToCents(billData.Tax),
		TipCents:      dollarsToCents(billData.Tip),
		TotalCents:    dollarsToCents(billData.Total),
	}
	session.Allocations = allocations
	session.ImageFile = savedPath
	session.ImageType = contentType
	session.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveSession(session); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving session: %w", err)
	}

	return session, nil
}

// ItemEdit is one item row as submitted by the editing UI. An empty ID
// marks an item added by the user rather than by extraction.
type ItemEdit struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents"`
}

// BillEdits carries the user's corrections to the extracted bill. The
// total is not accepted from the client: it is always recomputed.
type BillEdits struct {
	Items         []ItemEdit `json:"items"`
	SubtotalCents int        `json:"subtotal_cents"`
	TaxCents      int        `json:"tax_cents"`
	TipCents      int        `json:"tip_cents"`
}

// UpdateBill applies the user's edits and recomputes the total from
// subtotal, tax and tip. Allocations survive for items whose IDs survive;
// removed items lose their entries and new items start unallocated.
func (s *Service) UpdateBill(id string, edits BillEdits) (*Session, error) {
	session, err := s.db.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	if session.Bill == nil {
		return nil, ErrNoBill
	}

	items := make([]Item, 0, len(edits.Items))
	allocations := make(map[string][]string, len(edits.Items))
	for _, edit := range edits.Items {
		itemID := edit.ID
		if itemID == "" {
			itemID = s.idGenerator.Generate()
		}
		items = append(items, Item{
			ID:         itemID,
			Name:       edit.Name,
			PriceCents: edit.PriceCents,
		})
		if sharers, ok := session.Allocations[itemID]; ok {
			allocations[itemID] = sharers
		} else {
			allocations[itemID] = []string{}
		}
	}

	session.Bill.Items = items
	session.Bill.SubtotalCents = edits.SubtotalCents
	session.Bill.TaxCents = edits.TaxCents
	session.Bill.TipCents = edits.TipCents
	session.Bill.Recalculate()
	session.Allocations = allocations
	session.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveSession(session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return session, nil
}

// AssignItem adds a participant to an item's sharer set. Adding twice is a
// no-op; an item ID not on the current bill is silently ignored.
func (s *Service) AssignItem(id string, itemID string, participant string) (*Session, error) {
	session, err := s.db.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	if !slices.Contains(session.Participants, participant) {
		return nil, fmt.Errorf("unknown participant: %s", participant)
	}

	sharers, ok := session.Allocations[itemID]
	if !ok {
		return session, nil
	}
	if slices.Contains(sharers, participant) {
		return session, nil
	}

	session.Allocations[itemID] = append(sharers, participant)
	session.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveSession(session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return session, nil
}

// UnassignItem removes a participant from an item's sharer set. Removing a
// participant who is not in the set, or targeting an unknown item ID, is a
// no-op.
func (s *Service) UnassignItem(id string, itemID string, participant string) (*Session, error) {
	session, err := s.db.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	sharers, ok := session.Allocations[itemID]
	if !ok {
		return session, nil
	}
	idx := slices.Index(sharers, participant)
	if idx == -1 {
		return session, nil
	}

	session.Allocations[itemID] = append(sharers[:idx], sharers[idx+1:]...)
	session.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveSession(session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return session, nil
}

// ComputeSplit calculates the per-person split for the session's bill
func (s *Service) ComputeSplit(id string) (*Split, error) {
	session, err := s.db.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	if session.Bill == nil {
		return nil, ErrNoBill
	}
	return ComputeSplit(session.Bill, session.Allocations, session.Participants)
}

// GetBillImage retrieves the stored upload for a session
func (s *Service) GetBillImage(id string) ([]byte, string, error) {
	session, err := s.db.GetSession(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting session: %w", err)
	}
	if session.ImageFile == "" {
		return nil, "", ErrNoBill
	}

	data, err := s.storage.Get(session.ImageFile)
	if err != nil {
		return nil, "", fmt.Errorf("getting bill image: %w", err)
	}

	return data, session.ImageType, nil
}

// DeleteSession removes a session and its stored image
func (s *Service) DeleteSession(id string) error {
	session, err := s.db.GetSession(id)
	if err != nil {
		return fmt.Errorf("getting session for deletion: %w", err)
	}

	if session.ImageFile != "" {
		if err := s.storage.Delete(session.ImageFile); err != nil {
			slog.Warn("Failed to delete bill image", "filename", session.ImageFile, "error", err)
		}
	}

	if err := s.db.DeleteSession(id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
