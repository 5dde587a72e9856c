package web

import (
	"net/http"

	"github.com/conorfennell/iquiz/internal/domain"
	"github.com/conorfennell/iquiz/internal/importer"
	"github.com/conorfennell/iquiz/internal/review"
	"github.com/conorfennell/iquiz/internal/sm2"
)

type createDeckRequest struct {
	Name string `json:"name" validate:"required"`
}

type deckResponse struct {
	domain.Deck
	CardCount int `json:"card_count"`
	DueCount  int `json:"due_count"`
}

type cardRequest struct {
	Question string   `json:"question" validate:"notblank"`
	Answer   string   `json:"answer" validate:"notblank"`
	Tags     []string `json:"tags" validate:"omitempty,dive,notblank"`
}

type updateCardRequest struct {
	Question string `json:"question" validate:"notblank"`
	Answer   string `json:"answer" validate:"notblank"`
}

type tagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,notblank"`
}

// reviewRequest carries either a numeric grade or a difficulty label.
type reviewRequest struct {
	Grade *int   `json:"grade"`
	Label string `json:"label"`
}

type reviewResponse struct {
	CardID   string                 `json:"card_id"`
	Grade    int                    `json:"grade"`
	Passed   bool                   `json:"passed"`
	Previous domain.SchedulingState `json:"previous"`
	Next     domain.SchedulingState `json:"next"`
}

type importRequest struct {
	Source string `json:"source" validate:"required"`
}

type importResponse struct {
	*importer.Report
	Errors []string `json:"errors"`
}

// handleListDecks returns every deck.
func (s *Server) handleListDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decks, err := s.db.GetDecks(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if decks == nil {
			decks = []domain.Deck{}
		}
		s.writeJSON(w, http.StatusOK, decks)
	}
}

// handleCreateDeck creates a deck and returns it.
func (s *Server) handleCreateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDeckRequest
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		id, err := s.db.AddDeck(r.Context(), req.Name)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		deck, err := s.db.GetDeckInfo(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, deck)
	}
}

// handleGetDeck returns a deck with its card and due counts.
func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deck, err := s.requireDeck(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		cards, err := s.db.GetCardsFromDeck(r.Context(), deck.ID, "")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		due, err := s.db.DueCount(r.Context(), deck.ID, s.now())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, deckResponse{Deck: *deck, CardCount: len(cards), DueCount: due})
	}
}

func (s *Server) handleDeleteDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := deckIDParam(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.db.DeleteDeck(r.Context(), id); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleListCards lists the cards of a deck, soonest due first.
func (s *Server) handleListCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deck, err := s.requireDeck(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		cards, err := s.db.GetCardsFromDeck(r.Context(), deck.ID, r.URL.Query().Get("tag"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if cards == nil {
			cards = []domain.CardSummary{}
		}
		review.SortByDue(cards)
		s.writeJSON(w, http.StatusOK, cards)
	}
}

// handleCreateCard adds a card, and its tags if any, to a deck.
func (s *Server) handleCreateCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deck, err := s.requireDeck(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		var req cardRequest
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		id, err := s.db.AddFlashcard(r.Context(), deck.ID, req.Question, req.Answer, req.Tags...)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		card, err := s.db.GetFullCardData(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, card)
	}
}

// handleNextCard returns the card that is due soonest.
func (s *Server) handleNextCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deck, err := s.requireDeck(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		card, err := s.reviewer.Next(r.Context(), deck.ID, r.URL.Query().Get("tag"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if card == nil {
			s.writeError(w, r, errNoCardsAvailable)
			return
		}
		s.writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleRandomCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deck, err := s.requireDeck(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		card, err := s.reviewer.Random(r.Context(), deck.ID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if card == nil {
			s.writeError(w, r, errNoCardsAvailable)
			return
		}
		s.writeJSON(w, http.StatusOK, card)
	}
}

// handleImport loads cards from a directory or git repository into a deck.
func (s *Server) handleImport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := deckIDParam(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		var req importRequest
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		report, err := s.importer.Import(r.Context(), id, req.Source)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, importResponse{Report: report, Errors: report.ErrorMessages()})
	}
}

func (s *Server) handleGetCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardID, err := pathParam(r, "cardID")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		card, err := s.db.GetFullCardData(r.Context(), cardID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if card == nil {
			s.writeError(w, r, domain.ErrCardNotFound)
			return
		}
		if card.Tags == nil {
			card.Tags = []string{}
		}
		s.writeJSON(w, http.StatusOK, card)
	}
}

// handleUpdateCard replaces the question and answer of a card. Its
// schedule is kept.
func (s *Server) handleUpdateCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardID, err := pathParam(r, "cardID")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		var req updateCardRequest
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.db.UpdateCard(r.Context(), cardID, req.Question, req.Answer); err != nil {
			s.writeError(w, r, err)
			return
		}
		card, err := s.db.GetFullCardData(r.Context(), cardID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleDeleteCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardID, err := pathParam(r, "cardID")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.db.DeleteCard(r.Context(), cardID); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleReviewCard grades a card and returns its new schedule.
func (s *Server) handleReviewCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardID, err := pathParam(r, "cardID")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		var req reviewRequest
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if (req.Grade == nil) == (req.Label == "") {
			s.writeError(w, r, &badRequestError{msg: "exactly one of grade or label is required"})
			return
		}

		var event review.GradedEvent
		if req.Grade != nil {
			event, err = s.reviewer.Grade(r.Context(), cardID, sm2.Grade(*req.Grade))
		} else {
			event, err = s.reviewer.GradeLabel(r.Context(), cardID, req.Label)
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, reviewResponse{
			CardID:   event.CardID,
			Grade:    int(event.Grade),
			Passed:   event.Passed,
			Previous: event.Previous,
			Next:     event.Next,
		})
	}
}

func (s *Server) handleGetCardTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardID, err := pathParam(r, "cardID")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		card, err := s.db.GetCardData(r.Context(), cardID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if card == nil {
			s.writeError(w, r, domain.ErrCardNotFound)
			return
		}
		s.writeTags(w, r, cardID)
	}
}

// handleSetCardTags attaches tags to a card. Tags it already carries are kept.
func (s *Server) handleSetCardTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardID, err := pathParam(r, "cardID")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		var req tagsRequest
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.db.SetTags(r.Context(), cardID, req.Tags...); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeTags(w, r, cardID)
	}
}

func (s *Server) handleRemoveCardTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardID, err := pathParam(r, "cardID")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		tag, err := pathParam(r, "tag")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.db.RemoveTag(r.Context(), cardID, tag); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleListTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeTags(w, r, "")
	}
}

func (s *Server) handleDeleteTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tag, err := pathParam(r, "tag")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.db.DeleteTag(r.Context(), tag); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) writeTags(w http.ResponseWriter, r *http.Request, cardID string) {
	tags, err := s.db.GetTags(r.Context(), cardID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	s.writeJSON(w, http.StatusOK, tags)
}
