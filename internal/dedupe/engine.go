package dedupe

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/agext/levenshtein"
	"github.com/google/uuid"

	"github.com/virajbhatt/cardintel/constants"
	"github.com/virajbhatt/cardintel/internal/entity"
	"github.com/virajbhatt/cardintel/internal/llm"
)

// Directory is the read-only client source the engine scans.
type Directory interface {
	ListActive(ctx context.Context) ([]entity.ClientRecord, error)
}

// MatchType tags which stored contact field collided.
type MatchType string

const (
	MatchPhone    MatchType = "phone"
	MatchWhatsapp MatchType = "whatsapp"
	MatchEmail    MatchType = "email"
)

// ClientRef points at an existing client implicated by a signal.
type ClientRef struct {
	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"company_name"`
}

// SimilarCompany is one fuzzy-match candidate.
type SimilarCompany struct {
	Client            ClientRef `json:"client"`
	SimilarityPercent int       `json:"similarity_percent"`
}

// ContactMatch is one contact collision with an existing client.
type ContactMatch struct {
	Client         ClientRef `json:"client"`
	MatchedContact string    `json:"matched_contact"`
	MatchType      MatchType `json:"match_type"`
}

// DuplicateSignals holds the three independent signals, recomputed on every
// request and never cached.
type DuplicateSignals struct {
	ExactMatch       *ClientRef       `json:"exact_match,omitempty"`
	SimilarCompanies []SimilarCompany `json:"similar_companies,omitempty"`
	ExistingContact  *ContactMatch    `json:"existing_contact,omitempty"`
}

type Engine struct {
	dir       Directory
	threshold float64
	log       *slog.Logger
}

func NewEngine(dir Directory, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{dir: dir, threshold: constants.FuzzyMatchThreshold, log: logger}
}

// Detect computes the duplicate signals for a freshly parsed card against
// every active client. Duplicate detection is advisory: any internal error
// (including the directory read failing) degrades to all-empty signals
// rather than blocking the pipeline.
func (e *Engine) Detect(ctx context.Context, candidate entity.ParsedCard) DuplicateSignals {
	clients, err := e.dir.ListActive(ctx)
	if err != nil {
		e.log.Warn("dedupe.degraded", "error", err)
		return DuplicateSignals{}
	}
	return e.detect(candidate, clients)
}

func (e *Engine) detect(candidate entity.ParsedCard, clients []entity.ClientRecord) DuplicateSignals {
	var signals DuplicateSignals
	candName := NormalizeCompanyName(candidate.CompanyName)

	if candName != "" {
		for i := range clients {
			if NormalizeCompanyName(clients[i].CompanyName) == candName {
				signals.ExactMatch = &ClientRef{ID: clients[i].ID, CompanyName: clients[i].CompanyName}
				break
			}
		}
		// Fuzzy matching only applies when no exact collision exists.
		if signals.ExactMatch == nil {
			signals.SimilarCompanies = e.similar(candName, clients)
		}
	}

	signals.ExistingContact = e.contactCollision(candidate, clients)
	return signals
}

func (e *Engine) similar(candName string, clients []entity.ClientRecord) []SimilarCompany {
	var out []SimilarCompany
	for i := range clients {
		name := NormalizeCompanyName(clients[i].CompanyName)
		if name == "" {
			continue
		}
		sim := similarity(candName, name)
		if sim < e.threshold {
			continue
		}
		out = append(out, SimilarCompany{
			Client:            ClientRef{ID: clients[i].ID, CompanyName: clients[i].CompanyName},
			SimilarityPercent: int(math.Round(sim * 100)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SimilarityPercent > out[j].SimilarityPercent
	})
	if len(out) > constants.MaxSimilarResults {
		out = out[:constants.MaxSimilarResults]
	}
	return out
}

// similarity is edit-distance similarity over normalized names:
// 1 - distance/max(len(a), len(b)).
func similarity(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.Distance(a, b, nil)
	return 1 - float64(dist)/float64(longest)
}

// contactCollision scans all contact persons of all clients and returns the
// first collision on phone, whatsapp, or email. The scan is deliberately
// exhaustive and cross-field: a number stored as "phone" must match a number
// supplied as "whatsapp" and vice versa.
// TODO: back this with an indexed lookup once the directory grows; the
// cross-field semantics must be preserved exactly.
func (e *Engine) contactCollision(candidate entity.ParsedCard, clients []entity.ClientRecord) *ContactMatch {
	numbers := make(map[string]struct{})
	emails := make(map[string]struct{})
	for _, p := range candidate.ContactPersons {
		if n := llm.NormalizePhone(p.Phone); n != "" {
			numbers[n] = struct{}{}
		}
		if n := llm.NormalizePhone(p.WhatsappNumber); n != "" {
			numbers[n] = struct{}{}
		}
		if m := llm.NormalizeEmail(p.Email); m != "" {
			emails[m] = struct{}{}
		}
	}
	if len(numbers) == 0 && len(emails) == 0 {
		return nil
	}

	for i := range clients {
		ref := ClientRef{ID: clients[i].ID, CompanyName: clients[i].CompanyName}
		for _, p := range clients[i].Contacts {
			if n := llm.NormalizePhone(p.Phone); n != "" {
				if _, ok := numbers[n]; ok {
					return &ContactMatch{Client: ref, MatchedContact: n, MatchType: MatchPhone}
				}
			}
			if n := llm.NormalizePhone(p.WhatsappNumber); n != "" {
				if _, ok := numbers[n]; ok {
					return &ContactMatch{Client: ref, MatchedContact: n, MatchType: MatchWhatsapp}
				}
			}
			if m := llm.NormalizeEmail(p.Email); m != "" {
				if _, ok := emails[m]; ok {
					return &ContactMatch{Client: ref, MatchedContact: m, MatchType: MatchEmail}
				}
			}
		}
	}
	return nil
}
