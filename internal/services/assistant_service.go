package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/internal/constants"
	"pbm-portal/internal/repositories"
	"pbm-portal/pkg/llm"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Intent is the data source the assistant consults for a message.
type Intent string

const (
	IntentGreeting    Intent = "GREETING"
	IntentPharmacies  Intent = "PHARMACIES"
	IntentHistory     Intent = "HISTORY"
	IntentMedications Intent = "MEDICATIONS"
	IntentGeneral     Intent = "GENERAL"
)

var (
	greetingPattern = regexp.MustCompile(`^(hola|buenos dias|buenas tardes|buenas noches|que tal|como estas|hey|saludos)`)
	cedulaPattern   = regexp.MustCompile(`\d{3}-?\d{7}-?\d`)
	digitsPattern   = regexp.MustCompile(`\d{4,}`)
	codePattern     = regexp.MustCompile(`\b\d{4,}\b`)

	pharmacyKeywords   = []string{"farmacia", "sucursal", "ubicacion"}
	historyKeywords    = []string{"historial", "pasado", "ayer", "hoy", "transaccion", "orden", "pedido", "autorizacion", "hice", "estatus", "estado", "revisame", "buscame", "consultame"}
	medicationKeywords = []string{"medicamento", "pastilla", "jarabe", "precio", "stock", "codigo"}
)

// DetectIntent routes a message with keyword rules. Greetings win over
// everything else so that they never trigger a search.
func DetectIntent(message string) Intent {
	msg := strings.ToLower(message)
	switch {
	case greetingPattern.MatchString(msg):
		return IntentGreeting
	case containsAny(msg, pharmacyKeywords):
		return IntentPharmacies
	case cedulaPattern.MatchString(msg), digitsPattern.MatchString(msg), containsAny(msg, historyKeywords):
		return IntentHistory
	case containsAny(msg, medicationKeywords):
		return IntentMedications
	default:
		return IntentGeneral
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// ExtractSearchTerm prefers a standalone code of four or more digits.
// Otherwise it keeps the words longer than three characters and the numbers.
func ExtractSearchTerm(message string) string {
	if code := codePattern.FindString(message); code != "" {
		return code
	}
	var kept []string
	for _, word := range strings.Split(message, " ") {
		if len([]rune(word)) > 3 {
			kept = append(kept, word)
			continue
		}
		if _, err := strconv.ParseFloat(word, 64); err == nil {
			kept = append(kept, word)
		}
	}
	if len(kept) == 0 {
		return message
	}
	return strings.Join(kept, " ")
}

// contextItem is one retrieved row shown to the assistant model.
type contextItem struct {
	Type     string          `json:"type"`
	Code     string          `json:"code,omitempty"`
	Name     string          `json:"name,omitempty"`
	Date     *time.Time      `json:"date,omitempty"`
	Pharmacy string          `json:"pharmacy,omitempty"`
	Details  json.RawMessage `json:"details,omitempty"`
}

type AssistantService interface {
	Chat(ctx context.Context, req *dtos.AssistantChatRequest) (*dtos.AssistantChatResponse, uint32, error)
}

type assistantService struct {
	llmClient   llm.Client
	lookupRepo  repositories.LookupRepository
	historyRepo repositories.HistoryRepository
	now         func() time.Time
}

func NewAssistantService(llmClient llm.Client, lookupRepo repositories.LookupRepository, historyRepo repositories.HistoryRepository) AssistantService {
	return &assistantService{
		llmClient:   llmClient,
		lookupRepo:  lookupRepo,
		historyRepo: historyRepo,
		now:         time.Now,
	}
}

func (s *assistantService) Chat(ctx context.Context, req *dtos.AssistantChatRequest) (*dtos.AssistantChatResponse, uint32, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, http.StatusBadRequest, errors.New("message is required")
	}

	intent := DetectIntent(req.Message)
	term := ExtractSearchTerm(req.Message)
	pharmacyCode := ""
	if req.PharmacyDetails != nil {
		pharmacyCode = req.PharmacyDetails.Code
	}
	logger := log.With().Str("component", "assistant").Str("intent", string(intent)).Logger()

	items, source, err := s.retrieve(ctx, intent, term, pharmacyCode)
	if err != nil {
		logger.Error().Err(err).Msg("Chat -> retrieval failed")
		return nil, http.StatusInternalServerError, err
	}
	logger.Debug().Str("term", term).Int("items", len(items)).Msg("Chat -> context retrieved")

	reply, err := s.llmClient.Chat(ctx, llm.ChatRequest{
		SystemInstruction: s.buildSystemPrompt(req.PharmacyDetails, intent, source, items),
		History:           BuildAssistantHistory(req.History),
		Message:           fmt.Sprintf(constants.AssistantUserPrompt, req.Message),
		MaxOutputTokens:   constants.AssistantMaxOutputTokens,
	})
	if err != nil {
		if s.llmClient.IsRateLimited(err) {
			logger.Warn().Err(err).Msg("Chat -> rate limit exhausted")
			return nil, http.StatusTooManyRequests, errors.New(constants.AssistantBusyMessage)
		}
		logger.Error().Err(err).Msg("Chat -> model call failed")
		return nil, http.StatusInternalServerError, err
	}
	return &dtos.AssistantChatResponse{Text: reply}, http.StatusOK, nil
}

func (s *assistantService) retrieve(ctx context.Context, intent Intent, term, pharmacyCode string) ([]contextItem, string, error) {
	switch intent {
	case IntentGreeting:
		return []contextItem{}, constants.SourceGreeting, nil
	case IntentPharmacies:
		items, err := s.searchPharmacies(ctx, term)
		return items, constants.SourcePharmacies, err
	case IntentHistory:
		items, err := s.searchHistory(ctx, pharmacyCode)
		return items, constants.SourceHistory, err
	case IntentMedications:
		items, err := s.searchMedications(ctx, term)
		return items, constants.SourceMedications, err
	}

	var medications, history []contextItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		medications, err = s.searchMedications(gctx, term)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.searchHistory(gctx, pharmacyCode)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, constants.SourceUnified, err
	}
	return append(medications, history...), constants.SourceUnified, nil
}

func (s *assistantService) searchMedications(ctx context.Context, term string) ([]contextItem, error) {
	medications, err := s.lookupRepo.SearchMedications(ctx, term, constants.AssistantSearchLimit)
	if err != nil {
		return nil, err
	}
	items := make([]contextItem, 0, len(medications))
	for _, m := range medications {
		items = append(items, contextItem{Type: "MEDICAMENTO", Code: m.Code, Name: m.Name})
	}
	return items, nil
}

func (s *assistantService) searchPharmacies(ctx context.Context, term string) ([]contextItem, error) {
	pharmacies, err := s.lookupRepo.SearchPharmacies(ctx, term, constants.AssistantSearchLimit)
	if err != nil {
		return nil, err
	}
	items := make([]contextItem, 0, len(pharmacies))
	for _, p := range pharmacies {
		items = append(items, contextItem{Type: "FARMACIA", Code: p.Code, Name: p.Name})
	}
	return items, nil
}

// searchHistory returns the latest authorizations of the pharmacy, nothing
// without a pharmacy and every pharmacy's for the all-pharmacies code.
func (s *assistantService) searchHistory(ctx context.Context, pharmacyCode string) ([]contextItem, error) {
	if pharmacyCode == "" {
		return []contextItem{}, nil
	}
	rows, err := s.historyRepo.RecentWithPharmacy(ctx, pharmacyCode, constants.AssistantSearchLimit)
	if err != nil {
		return nil, err
	}
	items := make([]contextItem, 0, len(rows))
	for _, row := range rows {
		pharmacy := row.PharmacyCode
		if row.PharmacyName != nil && *row.PharmacyName != "" {
			pharmacy = *row.PharmacyName
		}
		date := row.CreatedAt
		items = append(items, contextItem{
			Type:     "HISTORIAL",
			Date:     &date,
			Pharmacy: pharmacy,
			Details:  json.RawMessage(row.Data),
		})
	}
	return items, nil
}

func (s *assistantService) buildSystemPrompt(pharmacy *dtos.PharmacyDetails, intent Intent, source string, items []contextItem) string {
	pharmacyContext := constants.AssistantNoPharmacyContext
	if pharmacy != nil {
		pharmacyContext = fmt.Sprintf(constants.AssistantPharmacyContext, pharmacy.Name, pharmacy.Code)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	rowsJSON := "[]"
	if err := enc.Encode(items); err == nil {
		rowsJSON = strings.TrimRight(buf.String(), "\n")
	}

	return fmt.Sprintf(constants.AssistantSystemPrompt,
		FormatSpanishDate(s.now()), pharmacyContext, intent, source, rowsJSON)
}

// BuildAssistantHistory accepts both {role, text} and {role, parts} turns.
// Leading model turns and empty turns are dropped.
func BuildAssistantHistory(turns []dtos.ChatHistoryTurn) []llm.Message {
	history := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		text := turn.Text
		if text == "" {
			parts := make([]string, 0, len(turn.Parts))
			for _, part := range turn.Parts {
				parts = append(parts, part.Text)
			}
			text = strings.Join(parts, "")
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		role := llm.RoleUser
		if turn.Role == llm.RoleModel || turn.Role == "assistant" {
			role = llm.RoleModel
		}
		if len(history) == 0 && role == llm.RoleModel {
			continue
		}
		history = append(history, llm.Message{Role: role, Content: text})
	}
	return history
}

var (
	spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	spanishMonths   = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}
)

// FormatSpanishDate renders t as "jueves, 16 de octubre de 2026".
func FormatSpanishDate(t time.Time) string {
	return fmt.Sprintf("%s, %d de %s de %d",
		spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year())
}
